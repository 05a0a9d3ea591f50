// Package runstore persists run manifests under {state dir}/runs/{name}.json.
// The run name is the identifier shared by the trainer (derived from the file
// prefix) and the submission preparer (derived from the file suffix).
package runstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mtexp/internal/common/fsutil"
	"mtexp/pkg/types"
)

type notFoundError struct{ name string }

func (e notFoundError) Error() string { return "run not found: " + e.name }

// IsNotFound reports whether err indicates a missing run manifest.
func IsNotFound(err error) bool {
	var nf notFoundError
	return errors.As(err, &nf)
}

// Store reads and writes manifests in one directory.
type Store struct {
	dir string
}

// Open returns a store rooted at stateDir/runs. The directory is created on
// first Save, so opening a fresh state dir for reading does not touch disk.
func Open(stateDir string) (*Store, error) {
	base, err := fsutil.ExpandHome(stateDir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	return &Store{dir: filepath.Join(abs, "runs")}, nil
}

// Dir is the manifest directory.
func (s *Store) Dir() string { return s.dir }

// Path returns the manifest file for name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, FileName(name)+".json")
}

// FileName maps a run name to a safe file stem.
func FileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 || strings.Trim(b.String(), ".") == "" {
		return "_"
	}
	return b.String()
}

// Save writes m, replacing any previous manifest of the same name.
func (s *Store) Save(m types.RunManifest) error {
	if m.Name == "" {
		return fmt.Errorf("save manifest: empty run name")
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.Path(m.Name), append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Load reads the manifest for name.
func (s *Store) Load(name string) (types.RunManifest, error) {
	var m types.RunManifest
	b, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return m, notFoundError{name: name}
		}
		return m, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode manifest %s: %w", name, err)
	}
	return m, nil
}

// List returns every readable manifest ordered by name. Unreadable files are
// skipped.
func (s *Store) List() ([]types.RunManifest, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []types.RunManifest
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var m types.RunManifest
		if err := json.Unmarshal(b, &m); err != nil || m.Name == "" {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Latest returns the most recently finished run.
func (s *Store) Latest() (types.RunManifest, error) {
	runs, err := s.List()
	if err != nil {
		return types.RunManifest{}, err
	}
	var best *types.RunManifest
	for i := range runs {
		r := &runs[i]
		if r.FinishedAt == nil {
			continue
		}
		if best == nil || r.FinishedAt.After(*best.FinishedAt) {
			best = r
		}
	}
	if best == nil {
		return types.RunManifest{}, notFoundError{name: "(latest)"}
	}
	return *best, nil
}
