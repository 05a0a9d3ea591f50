package cli

import (
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"

	"mtexp/internal/config"
	"mtexp/internal/httpapi"
	"mtexp/internal/runstore"
	"mtexp/internal/trainer"
	"mtexp/pkg/types"
)

func newTrainCmd(g *globalOpts) *cobra.Command {
	var (
		configFile  string
		metricsAddr string
		flagCfg     = defaultRunConfig()
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the multitask classifier and write checkpoint and predictions",
		Example: "  mtexp train --fine-tune-mode full-model --file_prefix 'models/sts_' --epochs 10 --lr 1e-5 --use_gpu --para_batch_size 8\n" +
			"  mtexp train --config run.yaml --train_type pcgrad",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveRunConfig(cmd.Flags(), configFile, g.stateDir, cmd.Flags().Changed("state-dir"))
			if err != nil {
				return err
			}
			return runTrain(cmd, g, cfg, metricsAddr)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&configFile, "config", envStr(envConfig, ""), "Run config file (.yaml, .json, .toml); explicit flags override it (defaults MTEXP_CONFIG)")
	fs.StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and the run browser on this address while training")
	bindRunFlags(fs, &flagCfg)
	return cmd
}

func runTrain(cmd *cobra.Command, g *globalOpts, cfg config.RunConfig, metricsAddr string) error {
	ctx := cmd.Context()
	log := g.log.With().Str("component", "trainer").Logger()

	if metricsAddr != "" {
		store, err := runstore.Open(cfg.StateDir)
		if err != nil {
			return err
		}
		var done atomic.Bool
		defer done.Store(true)
		httpapi.SetLogger(g.log.With().Str("component", "http").Logger())
		h := httpapi.NewMux(httpapi.NewStoreService(store, done.Load))
		go func() {
			if err := httpapi.Serve(ctx, metricsAddr, h, nil); err != nil {
				log.Error().Err(err).Str("addr", metricsAddr).Msg("metrics server stopped")
			}
		}()
	}

	r := trainer.NewWithConfig(trainer.Config{Run: cfg, Logger: &log})
	man, err := r.Run(ctx)
	if err != nil {
		return err
	}
	printRunSummary(g, man)
	return nil
}

func printRunSummary(g *globalOpts, man types.RunManifest) {
	fmt.Fprintf(g.stdout, "run %s (%s) %s\n", man.Name, man.ID, man.Status)
	fmt.Fprintf(g.stdout, "checkpoint: %s\n", man.Checkpoint.Path)
	if man.Dev != nil {
		fmt.Fprintf(g.stdout, "dev sentiment acc: %.3f\n", man.Dev.SentimentAccuracy)
		fmt.Fprintf(g.stdout, "dev paraphrase acc: %.3f\n", man.Dev.ParaphraseAccuracy)
		fmt.Fprintf(g.stdout, "dev sts corr: %.3f\n", man.Dev.SimilarityCorr)
	}
	for _, w := range man.Warnings {
		fmt.Fprintf(g.stdout, "warning: %s\n", w)
	}
}
