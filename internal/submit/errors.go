package submit

import (
	"errors"
	"fmt"

	"mtexp/pkg/types"
)

// runNotFoundError means no manifest matches the suffix.
type runNotFoundError struct{ suffix, name string }

func (e runNotFoundError) Error() string {
	if e.name == "" {
		return "run not found: no finished runs"
	}
	return fmt.Sprintf("run not found for suffix %q (run name %q)", e.suffix, e.name)
}

// IsRunNotFound reports whether err means the suffix resolved to no run.
func IsRunNotFound(err error) bool {
	var e runNotFoundError
	return errors.As(err, &e)
}

// runNotSucceededError means the run exists but did not finish successfully.
type runNotSucceededError struct {
	name   string
	status types.RunStatus
}

func (e runNotSucceededError) Error() string {
	return fmt.Sprintf("run %s has status %s", e.name, e.status)
}

// IsRunNotSucceeded reports whether err means the matched run is running or failed.
func IsRunNotSucceeded(err error) bool {
	var e runNotSucceededError
	return errors.As(err, &e)
}

// artifactMissingError means a file recorded by the run is gone.
type artifactMissingError struct{ kind, path string }

func (e artifactMissingError) Error() string {
	return fmt.Sprintf("artifact missing: %s %s", e.kind, e.path)
}

// IsArtifactMissing reports whether err means a recorded artifact does not exist.
func IsArtifactMissing(err error) bool {
	var e artifactMissingError
	return errors.As(err, &e)
}

// artifactStaleError means a recorded file changed after the run finished.
type artifactStaleError struct{ kind, path string }

func (e artifactStaleError) Error() string {
	return fmt.Sprintf("artifact changed since the run: %s %s", e.kind, e.path)
}

// IsArtifactStale reports whether err means an artifact's digest no longer matches.
func IsArtifactStale(err error) bool {
	var e artifactStaleError
	return errors.As(err, &e)
}

// archiveConflictError means two files map to the same zip entry.
type archiveConflictError struct{ name, first, second string }

func (e archiveConflictError) Error() string {
	return fmt.Sprintf("zip entry %s would hold both %s and %s", e.name, e.first, e.second)
}

// IsArchiveConflict reports whether err means two files share a zip entry name.
func IsArchiveConflict(err error) bool {
	var e archiveConflictError
	return errors.As(err, &e)
}
