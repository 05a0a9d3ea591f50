package optim

import (
	"math/rand"

	"mtexp/internal/model"
)

// PCGrad combines per-task gradients with gradient surgery: each task
// gradient is projected onto the normal plane of every other task gradient it
// conflicts with (negative inner product), visiting the others in random
// order. The projected gradients are then summed, and encoder gradients are
// averaged over the tasks.
func PCGrad(tasks []*model.Grads, rng *rand.Rand) *model.Grads {
	if len(tasks) == 0 {
		return nil
	}
	norms := make([]float64, len(tasks))
	for j, g := range tasks {
		norms[j] = g.Dot(g)
	}
	var merged *model.Grads
	for i, gi := range tasks {
		pc := gi.Clone()
		for _, j := range rng.Perm(len(tasks)) {
			if j == i || norms[j] == 0 {
				continue
			}
			if dot := pc.Dot(tasks[j]); dot < 0 {
				pc.AddScaled(tasks[j], -dot/norms[j])
			}
		}
		if merged == nil {
			merged = pc
		} else {
			merged.Add(pc)
		}
	}
	merged.ScaleShared(1 / float64(len(tasks)))
	return merged
}

// Sum adds the task gradients, the simultaneous strategy.
func Sum(tasks []*model.Grads) *model.Grads {
	if len(tasks) == 0 {
		return nil
	}
	out := tasks[0].Clone()
	for _, g := range tasks[1:] {
		out.Add(g)
	}
	return out
}
