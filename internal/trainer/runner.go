package trainer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mtexp/internal/config"
	"mtexp/internal/dataset"
	"mtexp/internal/model"
	"mtexp/internal/runstore"
	"mtexp/pkg/types"
)

// Warnings recorded in the run manifest.
const (
	WarnSeedReused             = "seed_reused"
	WarnAcceleratorUnavailable = "accelerator_unavailable"
)

// Runner trains one run configuration.
type Runner struct {
	cfg   config.RunConfig
	store *runstore.Store
	log   zerolog.Logger
	pub   EventPublisher
	now   func() time.Time
	probe func() string
	chunk int
}

// RunConfig returns the configuration the runner was built with.
func (r *Runner) RunConfig() config.RunConfig { return r.cfg }

func (r *Runner) publish(name, run string, fields map[string]any) {
	r.pub.Publish(Event{Name: name, Run: run, Fields: fields})
}

// Run validates the configuration, trains, saves the best checkpoint, writes
// prediction files and records the run manifest. The returned manifest is
// also persisted on failure, with Status failed. Validation errors are
// returned before anything is written.
func (r *Runner) Run(ctx context.Context) (types.RunManifest, error) {
	cfg := r.cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		runsTotal.WithLabelValues("invalid").Inc()
		return types.RunManifest{}, err
	}
	store := r.store
	if store == nil {
		s, err := runstore.Open(cfg.StateDir)
		if err != nil {
			return types.RunManifest{}, fmt.Errorf("open run store: %w", err)
		}
		store = s
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return types.RunManifest{}, fmt.Errorf("encode config: %w", err)
	}
	man := types.RunManifest{
		Name:         cfg.RunName(),
		ID:           uuid.NewString(),
		Status:       types.RunRunning,
		TrainType:    cfg.StrategyName(),
		FineTuneMode: string(cfg.FineTuneMode),
		FilePrefix:   cfg.FilePrefix,
		Seed:         cfg.Seed,
		Config:       raw,
		Checkpoint:   types.Artifact{Kind: "checkpoint", Path: cfg.CheckpointPath()},
		StartedAt:    r.now().UTC(),
	}
	log := r.log.With().Str("run", man.Name).Str("run_id", man.ID).Logger()
	if err := store.Save(man); err != nil {
		return man, err
	}
	log.Info().
		Str("strategy", cfg.StrategyName()).
		Str("fine_tune_mode", string(cfg.FineTuneMode)).
		Int("epochs", cfg.Epochs).
		Float64("lr", cfg.LR).
		Bool("use_gpu", cfg.UseGPU).
		Int64("seed", cfg.Seed).
		Str("checkpoint", man.Checkpoint.Path).
		Msg("run start")
	r.publish(EventRunStarted, man.Name, map[string]any{"id": man.ID, "strategy": cfg.StrategyName()})

	rn := &run{r: r, cfg: cfg, log: log, man: &man, rng: rand.New(rand.NewSource(cfg.Seed))}
	err = rn.execute(ctx)

	fin := r.now().UTC()
	man.FinishedAt = &fin
	if err != nil {
		man.Status = types.RunFailed
		man.Error = err.Error()
		outcome := "failed"
		if IsCanceled(err) {
			outcome = "canceled"
		}
		runsTotal.WithLabelValues(outcome).Inc()
		log.Error().Err(err).Str("outcome", outcome).Msg("run failed")
		r.publish(EventRunFailed, man.Name, map[string]any{"error": err.Error()})
		if serr := store.Save(man); serr != nil {
			log.Error().Err(serr).Msg("save manifest")
		}
		return man, err
	}
	man.Status = types.RunSucceeded
	if err := store.Save(man); err != nil {
		return man, err
	}
	runsTotal.WithLabelValues("succeeded").Inc()
	log.Info().Str("checkpoint", man.Checkpoint.Path).Dur("dur", fin.Sub(man.StartedAt)).Msg("run finished")
	r.publish(EventRunFinished, man.Name, map[string]any{"checkpoint": man.Checkpoint.Path})
	return man, nil
}

// run is the mutable state of one Run call.
type run struct {
	r     *Runner
	cfg   config.RunConfig
	log   zerolog.Logger
	man   *types.RunManifest
	rng   *rand.Rand
	dev   *device
	vocab *dataset.Vocab
	model *model.Model
	train *taskData
	devel *taskData
	// raw dev split, re-encoded with the saved vocabulary at test time
	devRaw rawSplit
}

func (rn *run) warn(code, msg string, fields map[string]any) {
	rn.man.Warnings = append(rn.man.Warnings, code)
	ev := rn.log.Warn().Str("warning", code)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
	rn.r.publish(code, rn.man.Name, fields)
}

func (rn *run) execute(ctx context.Context) error {
	cfg := rn.cfg
	rn.dev = newDevice(cfg.UseGPU, cfg.Workers, rn.r.chunk, rn.r.probe)
	defer rn.dev.close()
	rn.man.Device = rn.dev.info
	if cfg.UseGPU && rn.dev.info.Accelerator == "" {
		rn.warn(WarnAcceleratorUnavailable, "no accelerator detected; using the parallel CPU backend", map[string]any{"workers": rn.dev.info.Workers})
	}
	rn.log.Info().Str("backend", rn.dev.info.Backend).Int("workers", rn.dev.info.Workers).Str("accelerator", rn.dev.info.Accelerator).Msg("device")

	var resumed *model.Checkpoint
	if cfg.ModelPath != "" {
		ck, err := model.LoadCheckpoint(cfg.ModelPath)
		if err != nil {
			return fmt.Errorf("load model_path: %w", err)
		}
		if ck.Model.NumLabels != dataset.NumSentimentLabels {
			return config.ErrInvalidConfiguration(fmt.Sprintf("model_path %s has %d sentiment labels, want %d", cfg.ModelPath, ck.Model.NumLabels, dataset.NumSentimentLabels))
		}
		resumed = &ck
		seed := ck.Seed
		rn.man.ResumedFrom = cfg.ModelPath
		rn.man.ResumedFromSeed = &seed
		rn.log.Info().Str("model_path", cfg.ModelPath).Int64("trained_seed", ck.Seed).Msg("loading previously trained model")
		if ck.Seed == cfg.Seed {
			rn.man.SeedReused = true
			rn.warn(WarnSeedReused, "resuming with the seed the loaded model was trained with; pass a different --seed", map[string]any{"seed": cfg.Seed, "model_path": cfg.ModelPath})
		}
	}

	if err := checkCanceled(ctx); err != nil {
		return err
	}
	trainRaw, err := loadSplit(cfg.Data.SSTTrain, cfg.Data.ParaTrain, cfg.Data.STSTrain, dataset.Train)
	if err != nil {
		return err
	}
	devRaw, err := loadSplit(cfg.Data.SSTDev, cfg.Data.ParaDev, cfg.Data.STSDev, dataset.Dev)
	if err != nil {
		return err
	}

	if resumed != nil {
		rn.vocab = dataset.NewVocab(resumed.Vocab)
		resumed.Model.Dropout = cfg.HiddenDropoutProb
		if rn.model, err = resumed.Restore(); err != nil {
			return fmt.Errorf("restore %s: %w", cfg.ModelPath, err)
		}
		if resumed.Model.HiddenSize != cfg.HiddenSize {
			rn.log.Warn().Int("checkpoint_hidden_size", resumed.Model.HiddenSize).Int("hidden_size", cfg.HiddenSize).Msg("hidden size taken from the loaded model")
		}
	} else {
		rn.vocab = dataset.BuildVocab(cfg.MaxVocab, trainRaw.texts())
		rn.model, err = model.New(model.Config{
			VocabSize:  rn.vocab.Size(),
			HiddenSize: cfg.HiddenSize,
			NumLabels:  dataset.NumSentimentLabels,
			Dropout:    cfg.HiddenDropoutProb,
		}, cfg.Seed)
		if err != nil {
			return err
		}
	}
	rn.model.FreezeEncoder(cfg.FineTuneMode == config.LastLinearLayer)
	rn.train = trainRaw.encode(rn.vocab, cfg.MaxTokens)
	rn.devel = devRaw.encode(rn.vocab, cfg.MaxTokens)
	rn.devRaw = devRaw
	rn.log.Info().
		Int("vocab", rn.vocab.Size()).
		Int("sst_train", len(rn.train.sst)).Int("para_train", len(rn.train.para)).Int("sts_train", len(rn.train.sts)).
		Int("sst_dev", len(rn.devel.sst)).Int("para_dev", len(rn.devel.para)).Int("sts_dev", len(rn.devel.sts)).
		Msg("data loaded")

	switch cfg.TrainType {
	case config.Sequential:
		err = rn.trainSequential(ctx)
	case config.Simultaneous:
		err = rn.trainJoint(ctx, false)
	case config.PCGrad:
		err = rn.trainJoint(ctx, true)
	default:
		err = config.ErrInvalidConfiguration(fmt.Sprintf("train_type %q is not supported", cfg.TrainType))
	}
	if err != nil {
		return err
	}
	if err := checkCanceled(ctx); err != nil {
		return err
	}
	return rn.test(ctx)
}

// saveCheckpoint writes the current model as the run's best checkpoint.
func (rn *run) saveCheckpoint(phase string, epoch int, score float64) error {
	ck := rn.model.NewCheckpoint(rn.vocab.Words())
	ck.FineTuneMode = string(rn.cfg.FineTuneMode)
	ck.Seed = rn.cfg.Seed
	ck.TrainType = rn.cfg.StrategyName()
	ck.Phase = phase
	ck.Epoch = epoch
	ck.DevScore = score
	ck.RunConfig = rn.man.Config
	path := rn.man.Checkpoint.Path
	if err := model.SaveCheckpoint(path, ck); err != nil {
		return err
	}
	checkpointsSavedTotal.Inc()
	rn.log.Info().Str("phase", phase).Int("epoch", epoch).Float64("dev_score", score).Str("path", path).Msg("checkpoint saved")
	rn.r.publish(EventCheckpointSaved, rn.man.Name, map[string]any{"phase": phase, "epoch": epoch, "dev_score": score, "path": path})
	return nil
}
