package cli

import (
	"errors"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// globalOpts holds persistent flags shared by every subcommand.
type globalOpts struct {
	logLevel  string
	logFormat string
	stateDir  string

	stdout io.Writer
	stderr io.Writer
	log    zerolog.Logger
}

func buildRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalOpts{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "mtexp",
		Short:         "Multitask sentence classifier experiments: train, package, inspect",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.RunE = func(cmd *cobra.Command, args []string) error {
		_ = cmd.Help()
		return usageError{errors.New("a command is required")}
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error { return usageError{err} })

	pf := root.PersistentFlags()
	pf.StringVar(&g.logLevel, "log-level", envStr(envLogLevel, "info"), "Log level: debug|info|warn|error (defaults MTEXP_LOG_LEVEL or info)")
	pf.StringVar(&g.logFormat, "log-format", envStr(envLogFormat, "console"), "Log format: console|json")
	pf.StringVar(&g.stateDir, "state-dir", envStr(envStateDir, ".mtexp"), "Directory holding run manifests (defaults MTEXP_STATE_DIR)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		g.log = newLogger(g.stderr, g.logLevel, g.logFormat)
	}

	root.AddCommand(
		newTrainCmd(g),
		newSubmitCmd(g),
		newRunsCmd(g),
		newServeCmd(g),
	)

	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error {
		return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	}})
	root.AddCommand(completionCmd)

	return root
}

// noArgs rejects positional arguments as a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err}
	}
	return nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
