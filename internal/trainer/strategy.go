package trainer

import (
	"context"
	"math"
	"time"

	"mtexp/internal/dataset"
	"mtexp/internal/model"
	"mtexp/internal/optim"
	"mtexp/pkg/types"
)

// Phase names as they appear in manifests, logs and checkpoints.
const (
	PhaseSST  = model.TaskSST
	PhasePara = model.TaskPara
	PhaseSTS  = model.TaskSTS
)

// epochFunc trains one epoch and returns the mean batch loss.
type epochFunc func(ctx context.Context, o *optim.AdamW) (float64, error)

// phase trains for cfg.Epochs epochs with a fresh optimizer, scoring on dev
// after every epoch and saving the checkpoint whenever the score improves.
func (rn *run) phase(ctx context.Context, name string, epoch epochFunc, score func() float64) error {
	o := optim.NewAdamW(rn.model, rn.cfg.LR, rn.cfg.WeightDecay)
	res := types.PhaseResult{Name: name, BestEpoch: -1}
	defer func() { rn.man.Phases = append(rn.man.Phases, res) }()
	rn.log.Info().Str("phase", name).Msg("phase start")
	rn.r.publish(EventPhaseStarted, rn.man.Name, map[string]any{"phase": name})

	best := math.Inf(-1)
	for e := 0; e < rn.cfg.Epochs; e++ {
		loss, err := epoch(ctx, o)
		if err != nil {
			return err
		}
		dev := finite(score())
		loss = finite(loss)
		em := types.EpochMetrics{Epoch: e, TrainLoss: loss, DevScore: dev}
		if dev > best {
			best = dev
			if err := rn.saveCheckpoint(name, e, dev); err != nil {
				return err
			}
			em.Saved = true
			res.BestEpoch, res.BestScore = e, dev
		}
		res.Epochs = append(res.Epochs, em)
		trainEpochLoss.WithLabelValues(name).Set(loss)
		trainDevScore.WithLabelValues(name).Set(dev)
		rn.log.Info().Str("phase", name).Int("epoch", e).Float64("train_loss", loss).Float64("dev_score", dev).Bool("saved", em.Saved).Msg("epoch end")
		rn.r.publish(EventEpochEnd, rn.man.Name, map[string]any{"phase": name, "epoch": e, "train_loss": loss, "dev_score": dev, "saved": em.Saved})
	}
	return nil
}

// trainSequential trains sst, then para, then sts. Each task gets its own
// optimizer and best-score tracking, so the final checkpoint is the best sts
// model.
func (rn *run) trainSequential(ctx context.Context) error {
	strategy := rn.cfg.StrategyName()
	sst := func(ctx context.Context, o *optim.AdamW) (float64, error) {
		return rn.epochOver(ctx, o, strategy, dataset.Batches(len(rn.train.sst), rn.cfg.SSTBatchSize, rn.rng), rn.sstGrads)
	}
	paraSampler := dataset.NewSampler(len(rn.train.para), rn.cfg.ParaBatchSize, rn.rng)
	para := func(ctx context.Context, o *optim.AdamW) (float64, error) {
		batches := make([][]int, rn.cfg.StepsPerEpoch)
		for i := range batches {
			batches[i] = paraSampler.Next()
		}
		return rn.epochOver(ctx, o, strategy, batches, rn.paraGrads)
	}
	sts := func(ctx context.Context, o *optim.AdamW) (float64, error) {
		return rn.epochOver(ctx, o, strategy, dataset.Batches(len(rn.train.sts), rn.cfg.STSBatchSize, rn.rng), rn.stsGrads)
	}
	if err := rn.phase(ctx, PhaseSST, sst, rn.devSST); err != nil {
		return err
	}
	if err := rn.phase(ctx, PhasePara, para, rn.devPara); err != nil {
		return err
	}
	return rn.phase(ctx, PhaseSTS, sts, rn.devSTS)
}

// finite maps NaN and ±Inf to 0 so that diverged values can still be
// recorded as JSON.
func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

type gradFunc func(batch []int) (*model.Grads, float64)

func (rn *run) epochOver(ctx context.Context, o *optim.AdamW, strategy string, batches [][]int, grads gradFunc) (float64, error) {
	var total float64
	for _, b := range batches {
		if err := checkCanceled(ctx); err != nil {
			return 0, err
		}
		start := time.Now()
		g, loss := grads(b)
		o.Step(g)
		total += loss
		trainStepsTotal.WithLabelValues(strategy).Inc()
		trainStepDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	}
	if len(batches) == 0 {
		return 0, nil
	}
	return total / float64(len(batches)), nil
}

// trainJoint draws one batch per task at every step. The simultaneous
// strategy sums the task gradients; pcgrad combines them with gradient
// surgery. The dev score is the mean of the three task metrics.
func (rn *run) trainJoint(ctx context.Context, pcgrad bool) error {
	strategy := rn.cfg.StrategyName()
	sst := dataset.NewSampler(len(rn.train.sst), rn.cfg.SSTBatchSize, rn.rng)
	para := dataset.NewSampler(len(rn.train.para), rn.cfg.ParaBatchSize, rn.rng)
	sts := dataset.NewSampler(len(rn.train.sts), rn.cfg.STSBatchSize, rn.rng)
	epoch := func(ctx context.Context, o *optim.AdamW) (float64, error) {
		var total float64
		for step := 0; step < rn.cfg.StepsPerEpoch; step++ {
			if err := checkCanceled(ctx); err != nil {
				return 0, err
			}
			start := time.Now()
			g1, l1 := rn.sstGrads(sst.Next())
			g2, l2 := rn.paraGrads(para.Next())
			g3, l3 := rn.stsGrads(sts.Next())
			tasks := []*model.Grads{g1, g2, g3}
			var g *model.Grads
			if pcgrad {
				g = optim.PCGrad(tasks, rn.rng)
			} else {
				g = optim.Sum(tasks)
			}
			o.Step(g)
			total += l1 + l2 + l3
			trainStepsTotal.WithLabelValues(strategy).Inc()
			trainStepDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
		}
		return total / float64(rn.cfg.StepsPerEpoch), nil
	}
	score := func() float64 { return (rn.devSST() + rn.devPara() + rn.devSTS()) / 3 }
	return rn.phase(ctx, strategy, epoch, score)
}

// Per-task batch gradients. Losses are summed over the batch and divided by
// the configured batch size, also for a short final batch.

func (rn *run) sstGrads(batch []int) (*model.Grads, float64) {
	seed, scale := rn.rng.Uint64(), 1/float64(rn.cfg.SSTBatchSize)
	g, loss := rn.dev.accumulate(rn.model, len(batch), func(pos int, g *model.Grads) float64 {
		return rn.model.SentimentStep(rn.train.sst[batch[pos]], model.TrainDropout(seed, pos), scale, g)
	})
	return g, loss * scale
}

func (rn *run) paraGrads(batch []int) (*model.Grads, float64) {
	seed, scale := rn.rng.Uint64(), 1/float64(rn.cfg.ParaBatchSize)
	g, loss := rn.dev.accumulate(rn.model, len(batch), func(pos int, g *model.Grads) float64 {
		return rn.model.ParaphraseStep(rn.train.para[batch[pos]], model.TrainDropout(seed, pos), scale, g)
	})
	return g, loss * scale
}

func (rn *run) stsGrads(batch []int) (*model.Grads, float64) {
	seed, scale := rn.rng.Uint64(), 1/float64(rn.cfg.STSBatchSize)
	g, loss := rn.dev.accumulate(rn.model, len(batch), func(pos int, g *model.Grads) float64 {
		return rn.model.SimilarityStep(rn.train.sts[batch[pos]], model.TrainDropout(seed, pos), scale, g)
	})
	return g, loss * scale
}
