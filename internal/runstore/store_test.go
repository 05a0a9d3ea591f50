package runstore

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mtexp/pkg/types"
)

func finished(t time.Time) *time.Time { return &t }

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	seed := int64(11711)
	m := types.RunManifest{
		Name:            "sts",
		ID:              "id-1",
		Status:          types.RunSucceeded,
		Seed:            11711,
		ResumedFromSeed: &seed,
		Checkpoint:      types.Artifact{Kind: "checkpoint", Path: "models/sts_x.ckpt", SHA256: "abc"},
		Predictions:     []types.Artifact{{Kind: "sst-dev", Path: "predictions/sst-dev-output.csv"}},
		Warnings:        []string{"seed_reused"},
		StartedAt:       time.Unix(100, 0).UTC(),
		FinishedAt:      finished(time.Unix(200, 0).UTC()),
	}
	if err := s.Save(m); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load("sts")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != "id-1" || got.Checkpoint.SHA256 != "abc" || *got.ResumedFromSeed != 11711 || len(got.Predictions) != 1 || !got.FinishedAt.Equal(*m.FinishedAt) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestLoadMissing(t *testing.T) {
	s, _ := Open(t.TempDir())
	_, err := s.Load("nope")
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if IsNotFound(fmt.Errorf("other")) {
		t.Fatalf("false positive")
	}
}

func TestListSkipsJunkAndSorts(t *testing.T) {
	s, _ := Open(t.TempDir())
	for _, n := range []string{"simultaneous", "pcgrad", "sts"} {
		if err := s.Save(types.RunManifest{Name: n, Status: types.RunRunning}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	runs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 3 || runs[0].Name != "pcgrad" || runs[2].Name != "sts" {
		t.Fatalf("unexpected list: %+v", runs)
	}
}

func TestListEmptyStateDir(t *testing.T) {
	s, _ := Open(filepath.Join(t.TempDir(), "fresh"))
	runs, err := s.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("got %v %v", runs, err)
	}
}

func TestLatestPicksMostRecentlyFinished(t *testing.T) {
	s, _ := Open(t.TempDir())
	base := time.Unix(1_700_000_000, 0)
	_ = s.Save(types.RunManifest{Name: "a", FinishedAt: finished(base.Add(time.Hour))})
	_ = s.Save(types.RunManifest{Name: "b", FinishedAt: finished(base)})
	_ = s.Save(types.RunManifest{Name: "c"}) // still running
	got, err := s.Latest()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.Name != "a" {
		t.Fatalf("got %s", got.Name)
	}

	empty, _ := Open(t.TempDir())
	if _, err := empty.Latest(); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFileNameSanitizes(t *testing.T) {
	cases := map[string]string{"sts": "sts", "a b/c": "a_b_c", "..": "_", "": "_", "x.y-z_1": "x.y-z_1"}
	for in, want := range cases {
		if got := FileName(in); got != want {
			t.Fatalf("FileName(%q) = %q want %q", in, got, want)
		}
	}
}
