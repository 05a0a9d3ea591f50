// Package optim updates model parameters from accumulated gradients.
package optim

import (
	"math"

	"mtexp/internal/model"
)

// Adam hyperparameters shared by every run.
const (
	Beta1   = 0.9
	Beta2   = 0.999
	Epsilon = 1e-6
)

// AdamW is Adam with bias correction and decoupled weight decay. Embedding
// rows keep their own step counts and are only updated when a batch touches
// them.
type AdamW struct {
	LR          float64
	WeightDecay float64

	m     *model.Model
	step  int
	mom   [model.NumParams][]float64
	vel   [model.NumParams][]float64
	steps []int // per embedding row
}

// NewAdamW returns a fresh optimizer for m. Moments start at zero.
func NewAdamW(m *model.Model, lr, weightDecay float64) *AdamW {
	o := &AdamW{LR: lr, WeightDecay: weightDecay, m: m}
	for i, p := range m.Params() {
		o.mom[i] = make([]float64, len(p.W))
		o.vel[i] = make([]float64, len(p.W))
	}
	o.steps = make([]int, m.Param(model.Embeddings).Rows)
	return o
}

// Steps is the number of Step calls so far.
func (o *AdamW) Steps() int { return o.step }

// Step applies one update. Parameters without a gradient and frozen
// parameters are left alone.
func (o *AdamW) Step(g *model.Grads) {
	o.step++
	for i, p := range o.m.Params() {
		if !o.m.Trainable(i) {
			continue
		}
		if i == model.Embeddings {
			for _, id := range g.Rows() {
				o.steps[id]++
				lo, hi := id*p.Cols, (id+1)*p.Cols
				o.update(p.W[lo:hi], g.Row(id), o.mom[i][lo:hi], o.vel[i][lo:hi], o.steps[id])
			}
			continue
		}
		if grad := g.Dense(i); grad != nil {
			o.update(p.W, grad, o.mom[i], o.vel[i], o.step)
		}
	}
}

func (o *AdamW) update(w, grad, m, v []float64, t int) {
	c1 := 1 - math.Pow(Beta1, float64(t))
	c2 := 1 - math.Pow(Beta2, float64(t))
	for j, gj := range grad {
		m[j] = Beta1*m[j] + (1-Beta1)*gj
		v[j] = Beta2*v[j] + (1-Beta2)*gj*gj
		if o.WeightDecay != 0 {
			w[j] -= o.LR * o.WeightDecay * w[j]
		}
		w[j] -= o.LR * (m[j] / c1) / (math.Sqrt(v[j]/c2) + Epsilon)
	}
}
