package trainer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mtexp/internal/config"
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

var (
	positive = []string{"a good and fun film", "great acting , great fun", "good story", "fun and great"}
	negative = []string{"a bad and dull film", "awful acting , dull plot", "bad story", "dull and awful"}
)

func sstRows(labeled bool, n int) string {
	var b strings.Builder
	if labeled {
		b.WriteString("\tid\tsentence\tsentiment\n")
	} else {
		b.WriteString("\tid\tsentence\n")
	}
	for i := 0; i < n; i++ {
		text, label := positive[i%len(positive)], 4
		if i%2 == 1 {
			text, label = negative[i%len(negative)], 0
		}
		if labeled {
			fmt.Fprintf(&b, "%d\ts%d\t%s\t%d\n", i, i, text, label)
		} else {
			fmt.Fprintf(&b, "%d\ts%d\t%s\n", i, i, text)
		}
	}
	return b.String()
}

func pairRows(labelCol string, n int, label func(i int) string) string {
	var b strings.Builder
	if labelCol != "" {
		fmt.Fprintf(&b, "id\tsentence1\tsentence2\t%s\n", labelCol)
	} else {
		b.WriteString("id\tsentence1\tsentence2\n")
	}
	for i := 0; i < n; i++ {
		s1 := positive[i%len(positive)]
		s2 := positive[(i+1)%len(positive)]
		if i%2 == 1 {
			s2 = negative[i%len(negative)]
		}
		if labelCol != "" {
			fmt.Fprintf(&b, "p%d\t%s\t%s\t%s\n", i, s1, s2, label(i))
		} else {
			fmt.Fprintf(&b, "p%d\t%s\t%s\n", i, s1, s2)
		}
	}
	return b.String()
}

// fixtureConfig writes a tiny three-task dataset under dir and returns a
// config that trains on it quickly.
func fixtureConfig(t *testing.T, dir string) config.RunConfig {
	t.Helper()
	dup := func(i int) string { return []string{"1.0", "0.0"}[i%2] }
	sim := func(i int) string { return []string{"4.5", "0.8"}[i%2] }
	cfg := config.Default()
	cfg.Data = config.DataPaths{
		SSTTrain:  writeTempFile(t, dir, "data/sst-train.csv", sstRows(true, 16)),
		SSTDev:    writeTempFile(t, dir, "data/sst-dev.csv", sstRows(true, 6)),
		SSTTest:   writeTempFile(t, dir, "data/sst-test.csv", sstRows(false, 5)),
		ParaTrain: writeTempFile(t, dir, "data/para-train.csv", pairRows("is_duplicate", 16, dup)),
		ParaDev:   writeTempFile(t, dir, "data/para-dev.csv", pairRows("is_duplicate", 6, dup)),
		ParaTest:  writeTempFile(t, dir, "data/para-test.csv", pairRows("", 5, nil)),
		STSTrain:  writeTempFile(t, dir, "data/sts-train.csv", pairRows("similarity", 16, sim)),
		STSDev:    writeTempFile(t, dir, "data/sts-dev.csv", pairRows("similarity", 6, sim)),
		STSTest:   writeTempFile(t, dir, "data/sts-test.csv", pairRows("", 5, nil)),
	}
	out := filepath.Join(dir, "predictions")
	cfg.Predictions = config.OutputPaths{
		SSTDev:   filepath.Join(out, "sst-dev-output.csv"),
		SSTTest:  filepath.Join(out, "sst-test-output.csv"),
		ParaDev:  filepath.Join(out, "para-dev-output.csv"),
		ParaTest: filepath.Join(out, "para-test-output.csv"),
		STSDev:   filepath.Join(out, "sts-dev-output.csv"),
		STSTest:  filepath.Join(out, "sts-test-output.csv"),
	}
	cfg.StateDir = filepath.Join(dir, ".mtexp")
	cfg.FilePrefix = filepath.Join(dir, "models") + "/sts_"
	cfg.Epochs = 2
	cfg.StepsPerEpoch = 3
	cfg.HiddenSize = 6
	cfg.ParaBatchSize = 8
	return cfg
}

func noAccelerator() string { return "" }
