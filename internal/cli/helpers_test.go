package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// runCLI executes the command tree and captures its output.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// fixtureFlags writes a tiny dataset under dir and returns train flags
// pointing at it.
func fixtureFlags(t *testing.T, dir string) []string {
	t.Helper()
	sentences := []string{"a good fun film", "a bad dull film", "great story", "awful plot"}
	var sst, sstTest, para, paraTest, sts, stsTest strings.Builder
	sst.WriteString("\tid\tsentence\tsentiment\n")
	sstTest.WriteString("\tid\tsentence\n")
	para.WriteString("id\tsentence1\tsentence2\tis_duplicate\n")
	paraTest.WriteString("id\tsentence1\tsentence2\n")
	sts.WriteString("id\tsentence1\tsentence2\tsimilarity\n")
	stsTest.WriteString("id\tsentence1\tsentence2\n")
	for i := 0; i < 8; i++ {
		s1, s2 := sentences[i%4], sentences[(i+1)%4]
		fmt.Fprintf(&sst, "%d\ts%d\t%s\t%d\n", i, i, s1, []int{4, 0}[i%2])
		fmt.Fprintf(&sstTest, "%d\ts%d\t%s\n", i, i, s1)
		fmt.Fprintf(&para, "p%d\t%s\t%s\t%d.0\n", i, s1, s2, i%2)
		fmt.Fprintf(&paraTest, "p%d\t%s\t%s\n", i, s1, s2)
		fmt.Fprintf(&sts, "p%d\t%s\t%s\t%d.5\n", i, s1, s2, i%5)
		fmt.Fprintf(&stsTest, "p%d\t%s\t%s\n", i, s1, s2)
	}
	files := map[string]string{
		"sst_train": sst.String(), "sst_dev": sst.String(), "sst_test": sstTest.String(),
		"para_train": para.String(), "para_dev": para.String(), "para_test": paraTest.String(),
		"sts_train": sts.String(), "sts_dev": sts.String(), "sts_test": stsTest.String(),
	}
	var flags []string
	for name, content := range files {
		flags = append(flags, "--"+name, writeTempFile(t, dir, "data/"+name+".csv", content))
	}
	for _, out := range []string{"sst_dev_out", "sst_test_out", "para_dev_out", "para_test_out", "sts_dev_out", "sts_test_out"} {
		flags = append(flags, "--"+out, filepath.Join(dir, "predictions", out+".csv"))
	}
	return append(flags,
		"--state-dir", filepath.Join(dir, ".mtexp"),
		"--hidden_size", "4",
		"--steps_per_epoch", "2",
		"--log-level", "error",
	)
}
