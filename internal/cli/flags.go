package cli

import (
	"github.com/spf13/pflag"

	"mtexp/internal/config"
)

// bindRunFlags registers every run configuration flag on fs, writing into c.
// Flag names follow the runbook: underscores, except --fine-tune-mode.
func bindRunFlags(fs *pflag.FlagSet, c *config.RunConfig) {
	fs.StringVar((*string)(&c.FineTuneMode), "fine-tune-mode", string(c.FineTuneMode), "last-linear-layer: train task heads only; full-model: also update the encoder")
	fs.StringVar(&c.FilePrefix, "file_prefix", c.FilePrefix, "Prefix of the checkpoint path; its last element names the run")
	fs.IntVar(&c.Epochs, "epochs", c.Epochs, "Epochs per training phase")
	fs.Float64Var(&c.LR, "lr", c.LR, "Learning rate")
	fs.BoolVar(&c.UseGPU, "use_gpu", c.UseGPU, "Use the parallel compute backend and probe for an accelerator")
	fs.IntVar(&c.ParaBatchSize, "para_batch_size", c.ParaBatchSize, "Paraphrase batch size")
	fs.StringVar((*string)(&c.TrainType), "train_type", string(c.TrainType), "Gradient combination: omit (or sequential) for one task at a time, simultaneous, pcgrad")

	fs.Int64Var(&c.Seed, "seed", c.Seed, "Random seed; change it when resuming from --model_path")
	fs.IntVar(&c.SSTBatchSize, "sst_batch_size", c.SSTBatchSize, "Sentiment batch size")
	fs.IntVar(&c.STSBatchSize, "sts_batch_size", c.STSBatchSize, "Similarity batch size")
	fs.Float64Var(&c.HiddenDropoutProb, "hidden_dropout_prob", c.HiddenDropoutProb, "Dropout on sentence embeddings")
	fs.StringVar(&c.ModelPath, "model_path", c.ModelPath, "Resume from this checkpoint; the run overwrites it")
	fs.IntVar(&c.HiddenSize, "hidden_size", c.HiddenSize, "Embedding width")
	fs.IntVar(&c.MaxVocab, "max_vocab", c.MaxVocab, "Vocabulary size including [UNK]")
	fs.IntVar(&c.MaxTokens, "max_tokens", c.MaxTokens, "Tokens kept per sentence")
	fs.IntVar(&c.StepsPerEpoch, "steps_per_epoch", c.StepsPerEpoch, "Random-batch steps per epoch for para and joint training")
	fs.Float64Var(&c.WeightDecay, "weight_decay", c.WeightDecay, "AdamW weight decay")
	fs.IntVar(&c.Workers, "workers", c.Workers, "Parallel backend workers, 0 for one per CPU (defaults MTEXP_WORKERS)")

	for _, p := range []struct {
		name string
		v    *string
	}{
		{"sst_train", &c.Data.SSTTrain}, {"sst_dev", &c.Data.SSTDev}, {"sst_test", &c.Data.SSTTest},
		{"para_train", &c.Data.ParaTrain}, {"para_dev", &c.Data.ParaDev}, {"para_test", &c.Data.ParaTest},
		{"sts_train", &c.Data.STSTrain}, {"sts_dev", &c.Data.STSDev}, {"sts_test", &c.Data.STSTest},
		{"sst_dev_out", &c.Predictions.SSTDev}, {"sst_test_out", &c.Predictions.SSTTest},
		{"para_dev_out", &c.Predictions.ParaDev}, {"para_test_out", &c.Predictions.ParaTest},
		{"sts_dev_out", &c.Predictions.STSDev}, {"sts_test_out", &c.Predictions.STSTest},
	} {
		fs.StringVar(p.v, p.name, *p.v, "")
	}
}

// defaultRunConfig is config.Default with environment overrides applied.
func defaultRunConfig() config.RunConfig {
	c := config.Default()
	c.Workers = envInt(envWorkers, c.Workers)
	c.StateDir = envStr(envStateDir, c.StateDir)
	return c
}

// resolveRunConfig layers the config file (if any) and then the flags that
// were explicitly set on fs over the defaults.
func resolveRunConfig(fs *pflag.FlagSet, configFile, stateDir string, stateDirSet bool) (config.RunConfig, error) {
	cfg := defaultRunConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.LoadOver(configFile, cfg); err != nil {
			return cfg, usageError{err}
		}
	}
	replay := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	bindRunFlags(replay, &cfg)
	var setErr error
	fs.Visit(func(f *pflag.Flag) {
		if replay.Lookup(f.Name) == nil || setErr != nil {
			return
		}
		setErr = replay.Set(f.Name, f.Value.String())
	})
	if setErr != nil {
		return cfg, usageError{setErr}
	}
	if stateDirSet {
		cfg.StateDir = stateDir
	}
	return cfg.Normalize(), nil
}
