package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mtexp/internal/submit"
)

func newSubmitCmd(g *globalOpts) *cobra.Command {
	var opts submit.Options
	cmd := &cobra.Command{
		Use:     "prepare-submit",
		Aliases: []string{"submit"},
		Short:   "Package the predictions of a finished run into a submission zip",
		Example: "  mtexp prepare-submit --file-suffix '_sts'",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.StateDir = g.stateDir
			log := g.log.With().Str("component", "submit").Logger()
			opts.Logger = &log
			res, err := submit.Prepare(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(g.stdout, "Submission zip file created: %s\n", res.Path)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&opts.Suffix, "file-suffix", "", "Suffix matching the run's --file_prefix (e.g. _sts); empty picks the latest finished run")
	fs.StringVar(&opts.OutDir, "out-dir", ".", "Directory receiving the zip")
	fs.StringVar(&opts.ArchiveBase, "archive-base", submit.DefaultArchiveBase, "Zip file name stem; the suffix is appended")
	fs.StringSliceVar(&opts.Include, "include", nil, "Extra files (glob patterns) to add, e.g. source files")
	return cmd
}
