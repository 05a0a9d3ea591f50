// Package cli implements the mtexp command tree. The runbook binaries
// multitask-classifier and prepare-submit are thin shims over the train and
// prepare-submit subcommands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"mtexp/internal/config"
)

// Exit codes returned by MainWithArgs.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Environment variables read as flag defaults.
const (
	envConfig    = "MTEXP_CONFIG"
	envLogLevel  = "MTEXP_LOG_LEVEL"
	envLogFormat = "MTEXP_LOG_FORMAT"
	envStateDir  = "MTEXP_STATE_DIR"
	envAddr      = "MTEXP_ADDR"
	envWorkers   = "MTEXP_WORKERS"
	envCORS      = "MTEXP_CORS"
)

// usageError marks bad flags or arguments.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func isUsage(err error) bool {
	var ue usageError
	if errors.As(err, &ue) {
		return true
	}
	// cobra reports unknown subcommands as plain errors
	return strings.HasPrefix(err.Error(), "unknown command") || strings.HasPrefix(err.Error(), "unknown flag")
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case config.IsInvalidConfiguration(err), isUsage(err):
		return ExitUsage
	default:
		return ExitFailure
	}
}

// MainWithArgs runs the command tree with args and returns the exit code: 0 on
// success, 2 for invalid configuration or usage, 1 for any other failure.
// SIGINT and SIGTERM cancel the running command.
func MainWithArgs(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

// Main returns an exit code for use by cmd/mtexp.
func Main() int { return MainWithArgs(os.Args[1:]) }

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := buildRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err.Error())
	}
	return exitCode(err)
}
