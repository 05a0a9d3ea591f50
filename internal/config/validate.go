package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// invalidConfigError lists every problem found in a RunConfig.
type invalidConfigError struct{ problems []string }

func (e invalidConfigError) Error() string {
	return "invalid configuration: " + strings.Join(e.problems, "; ")
}

// Problems returns the individual validation failures.
func (e invalidConfigError) Problems() []string { return append([]string(nil), e.problems...) }

// ErrInvalidConfiguration builds an InvalidConfiguration error from messages.
func ErrInvalidConfiguration(problems ...string) error {
	return invalidConfigError{problems: problems}
}

// IsInvalidConfiguration reports whether err (or anything it wraps) is a
// configuration validation failure.
func IsInvalidConfiguration(err error) bool {
	var ice invalidConfigError
	return errors.As(err, &ice)
}

// Validate checks c before any training work begins.
func (c RunConfig) Validate() error {
	c = c.Normalize()
	var p []string
	switch c.FineTuneMode {
	case LastLinearLayer, FullModel:
	default:
		p = append(p, fmt.Sprintf("fine-tune-mode %q must be one of %s, %s", c.FineTuneMode, LastLinearLayer, FullModel))
	}
	switch c.TrainType {
	case Sequential, Simultaneous, PCGrad:
	default:
		p = append(p, fmt.Sprintf("train_type %q must be omitted or one of %s, %s", c.TrainType, Simultaneous, PCGrad))
	}
	if c.Epochs < 1 {
		p = append(p, fmt.Sprintf("epochs must be >= 1, got %d", c.Epochs))
	}
	if !(c.LR > 0) || math.IsInf(c.LR, 0) {
		p = append(p, fmt.Sprintf("lr must be > 0, got %g", c.LR))
	}
	for _, bs := range []struct {
		name string
		v    int
	}{
		{"sst_batch_size", c.SSTBatchSize},
		{"para_batch_size", c.ParaBatchSize},
		{"sts_batch_size", c.STSBatchSize},
		{"hidden_size", c.HiddenSize},
		{"max_vocab", c.MaxVocab},
		{"max_tokens", c.MaxTokens},
		{"steps_per_epoch", c.StepsPerEpoch},
	} {
		if bs.v < 1 {
			p = append(p, fmt.Sprintf("%s must be >= 1, got %d", bs.name, bs.v))
		}
	}
	if !(c.HiddenDropoutProb >= 0 && c.HiddenDropoutProb < 1) {
		p = append(p, fmt.Sprintf("hidden_dropout_prob must be in [0, 1), got %g", c.HiddenDropoutProb))
	}
	if !(c.WeightDecay >= 0) || math.IsInf(c.WeightDecay, 0) {
		p = append(p, fmt.Sprintf("weight_decay must be >= 0, got %g", c.WeightDecay))
	}
	if c.Workers < 0 {
		p = append(p, fmt.Sprintf("workers must be >= 0, got %d", c.Workers))
	}
	if strings.TrimSpace(c.StateDir) == "" {
		p = append(p, "state-dir is required")
	}
	for name, v := range map[string]string{
		"sst_train": c.Data.SSTTrain, "sst_dev": c.Data.SSTDev, "sst_test": c.Data.SSTTest,
		"para_train": c.Data.ParaTrain, "para_dev": c.Data.ParaDev, "para_test": c.Data.ParaTest,
		"sts_train": c.Data.STSTrain, "sts_dev": c.Data.STSDev, "sts_test": c.Data.STSTest,
		"sst_dev_out": c.Predictions.SSTDev, "sst_test_out": c.Predictions.SSTTest,
		"para_dev_out": c.Predictions.ParaDev, "para_test_out": c.Predictions.ParaTest,
		"sts_dev_out": c.Predictions.STSDev, "sts_test_out": c.Predictions.STSTest,
	} {
		if strings.TrimSpace(v) == "" {
			p = append(p, name+" path is required")
		}
	}
	p = append(p, duplicateOutputs(c.Predictions)...)
	if c.ModelPath != "" {
		if fi, err := os.Stat(c.ModelPath); err != nil {
			p = append(p, fmt.Sprintf("model_path %s: %v", c.ModelPath, err))
		} else if fi.IsDir() {
			p = append(p, fmt.Sprintf("model_path %s is a directory", c.ModelPath))
		}
	}
	if len(p) == 0 {
		return nil
	}
	// map iteration above is unordered
	sort.Strings(p)
	return invalidConfigError{problems: p}
}

// duplicateOutputs reports prediction outputs that would overwrite each other.
func duplicateOutputs(o OutputPaths) []string {
	var p []string
	seen := map[string]string{}
	for _, out := range []struct{ name, path string }{
		{"sst_dev_out", o.SSTDev}, {"sst_test_out", o.SSTTest},
		{"para_dev_out", o.ParaDev}, {"para_test_out", o.ParaTest},
		{"sts_dev_out", o.STSDev}, {"sts_test_out", o.STSTest},
	} {
		if strings.TrimSpace(out.path) == "" {
			continue
		}
		key := filepath.Clean(out.path)
		if prev, ok := seen[key]; ok {
			p = append(p, fmt.Sprintf("%s and %s both write %s", prev, out.name, out.path))
			continue
		}
		seen[key] = out.name
	}
	return p
}
