// Package submit packages the predictions of a finished run into a
// submission zip. The run is located by the file suffix that matches the
// file prefix it was trained with ("_sts" finds the run of "models/sts_").
package submit

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"mtexp/internal/common/fsutil"
	"mtexp/internal/config"
	"mtexp/internal/runstore"
	"mtexp/pkg/types"
)

// DefaultArchiveBase is the file name stem of the submission zip.
const DefaultArchiveBase = "cs224n_default_final_project_submission"

const manifestEntry = "run.json"

// Options controls Prepare.
type Options struct {
	// Suffix selects the run; empty means the most recently finished run.
	Suffix   string
	StateDir string
	// OutDir receives the zip. Defaults to the working directory.
	OutDir string
	// ArchiveBase defaults to DefaultArchiveBase.
	ArchiveBase string
	// Include lists extra glob patterns (e.g. source files) added to the zip
	// under their relative path.
	Include []string
	Logger  *zerolog.Logger
}

// Result describes a written submission.
type Result struct {
	Path  string
	Run   types.RunManifest
	Files []string
}

// Prepare resolves the run for opts.Suffix, verifies its checkpoint and
// prediction files, and writes {OutDir}/{ArchiveBase}{Suffix}.zip.
func Prepare(opts Options) (Result, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	if opts.StateDir == "" {
		opts.StateDir = config.DefaultStateDir
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	if opts.ArchiveBase == "" {
		opts.ArchiveBase = DefaultArchiveBase
	}

	run, err := Resolve(opts.StateDir, opts.Suffix)
	if err != nil {
		return Result{}, err
	}
	log.Info().Str("suffix", opts.Suffix).Str("run", run.Name).Str("run_id", run.ID).Msg("run resolved")
	if err := Verify(run); err != nil {
		return Result{}, err
	}

	extra, err := expandIncludes(opts.Include)
	if err != nil {
		return Result{}, err
	}
	type entry struct{ name, src string }
	var entries []entry
	for _, a := range run.Predictions {
		entries = append(entries, entry{path.Join("predictions", filepath.Base(a.Path)), a.Path})
	}
	for _, f := range extra {
		name := filepath.ToSlash(filepath.Clean(f))
		if filepath.IsAbs(f) || strings.HasPrefix(name, "../") {
			name = filepath.Base(f)
		}
		entries = append(entries, entry{name, f})
	}
	owner := map[string]string{manifestEntry: "run manifest"}
	for _, e := range entries {
		if prev, ok := owner[e.name]; ok {
			return Result{}, archiveConflictError{name: e.name, first: prev, second: e.src}
		}
		owner[e.name] = e.src
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	var names []string
	for _, e := range entries {
		if err := addFile(zw, e.name, e.src); err != nil {
			return Result{}, err
		}
		names = append(names, e.name)
	}
	manifest, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("encode run manifest: %w", err)
	}
	w, err := zw.Create(manifestEntry)
	if err != nil {
		return Result{}, err
	}
	if _, err := w.Write(manifest); err != nil {
		return Result{}, err
	}
	names = append(names, manifestEntry)
	if err := zw.Close(); err != nil {
		return Result{}, fmt.Errorf("finish zip: %w", err)
	}

	out := filepath.Join(opts.OutDir, opts.ArchiveBase+opts.Suffix+".zip")
	if err := fsutil.WriteFileAtomic(out, buf.Bytes(), 0o644); err != nil {
		return Result{}, fmt.Errorf("write %s: %w", out, err)
	}
	log.Info().Str("path", out).Int("files", len(names)).Msg("submission written")
	return Result{Path: out, Run: run, Files: names}, nil
}

// Resolve maps a file suffix to its run manifest.
func Resolve(stateDir, suffix string) (types.RunManifest, error) {
	store, err := runstore.Open(stateDir)
	if err != nil {
		return types.RunManifest{}, err
	}
	name := config.RunNameFromSuffix(suffix)
	if name == "" {
		run, err := store.Latest()
		if runstore.IsNotFound(err) {
			return run, runNotFoundError{suffix: suffix}
		}
		return run, err
	}
	run, err := store.Load(name)
	if runstore.IsNotFound(err) {
		return run, runNotFoundError{suffix: suffix, name: name}
	}
	return run, err
}

// Verify checks that run succeeded and that its checkpoint and prediction
// files still exist with the recorded content.
func Verify(run types.RunManifest) error {
	if run.Status != types.RunSucceeded {
		return runNotSucceededError{name: run.Name, status: run.Status}
	}
	if err := checkArtifact(run.Checkpoint); err != nil {
		return err
	}
	if len(run.Predictions) == 0 {
		return artifactMissingError{kind: "predictions", path: "(none recorded)"}
	}
	for _, a := range run.Predictions {
		if err := checkArtifact(a); err != nil {
			return err
		}
	}
	return nil
}

func checkArtifact(a types.Artifact) error {
	sum, err := fsutil.SHA256File(a.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return artifactMissingError{kind: a.Kind, path: a.Path}
		}
		return err
	}
	if a.SHA256 != "" && sum != a.SHA256 {
		return artifactStaleError{kind: a.Kind, path: a.Path}
	}
	return nil
}

func addFile(zw *zip.Writer, name, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

func expandIncludes(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", p, err)
		}
		for _, m := range matches {
			if fi, err := os.Stat(m); err != nil || fi.IsDir() || seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}
