package model

import (
	"math"

	"mtexp/internal/dataset"
)

// encoding keeps the activations of one sentence for the backward pass.
type encoding struct {
	tokens []int
	h0     []float64 // mean embedding
	h      []float64 // tanh(pooler)
	scale  []float64 // dropout scale per unit, nil when dropout is off
	out    []float64 // h after dropout
}

func (m *Model) encode(tokens []int, d Dropout, side int) *encoding {
	H := m.cfg.HiddenSize
	e := &encoding{tokens: tokens, h0: make([]float64, H), h: make([]float64, H), out: make([]float64, H)}
	emb := m.params[Embeddings].W
	for _, t := range tokens {
		row := emb[m.row(t)*H:][:H]
		for k, v := range row {
			e.h0[k] += v
		}
	}
	if n := len(tokens); n > 0 {
		inv := 1 / float64(n)
		for k := range e.h0 {
			e.h0[k] *= inv
		}
	}
	W, b := m.params[PoolerWeight].W, m.params[PoolerBias].W
	for i := 0; i < H; i++ {
		z := b[i]
		wi := W[i*H:][:H]
		for k, v := range e.h0 {
			z += wi[k] * v
		}
		e.h[i] = math.Tanh(z)
	}
	if d.on && m.cfg.Dropout > 0 {
		e.scale = make([]float64, H)
		for i := range e.scale {
			e.scale[i] = d.scale(side, i, m.cfg.Dropout)
			e.out[i] = e.h[i] * e.scale[i]
		}
	} else {
		copy(e.out, e.h)
	}
	return e
}

// row maps out-of-range ids to [UNK].
func (m *Model) row(t int) int {
	if t < 0 || t >= m.cfg.VocabSize {
		return 0
	}
	return t
}

// backEncode propagates dout (gradient w.r.t. e.out) into the encoder.
func (m *Model) backEncode(e *encoding, dout []float64, g *Grads) {
	if m.frozen {
		return
	}
	H := m.cfg.HiddenSize
	W := m.params[PoolerWeight].W
	gW, gb := g.buf(PoolerWeight), g.buf(PoolerBias)
	dh0 := make([]float64, H)
	for i := 0; i < H; i++ {
		dh := dout[i]
		if e.scale != nil {
			dh *= e.scale[i]
		}
		dz := dh * (1 - e.h[i]*e.h[i])
		if dz == 0 {
			continue
		}
		gb[i] += dz
		wi, gwi := W[i*H:][:H], gW[i*H:][:H]
		for k, v := range e.h0 {
			gwi[k] += dz * v
			dh0[k] += wi[k] * dz
		}
	}
	inv := 1 / float64(len(e.tokens))
	for _, t := range e.tokens {
		r := g.embRow(m.row(t))
		for k, v := range dh0 {
			r[k] += v * inv
		}
	}
}

func (m *Model) sentimentLogits(x []float64) []float64 {
	H, L := m.cfg.HiddenSize, m.cfg.NumLabels
	W, b := m.params[SentimentWeight].W, m.params[SentimentBias].W
	logits := make([]float64, L)
	for c := 0; c < L; c++ {
		s := b[c]
		for k, v := range x {
			s += W[c*H+k] * v
		}
		logits[c] = s
	}
	return logits
}

// bilinear computes x1ᵀ W x2 + b for head w.
func (m *Model) bilinear(w int, x1, x2 []float64) float64 {
	H := m.cfg.HiddenSize
	W := m.params[w].W
	s := m.params[w+1].W[0]
	for i, a := range x1 {
		if a == 0 {
			continue
		}
		wi := W[i*H:][:H]
		var r float64
		for j, v := range x2 {
			r += wi[j] * v
		}
		s += a * r
	}
	return s
}

// backBilinear adds ds * ∂s/∂(W,b) into g and returns ∂s/∂x1, ∂s/∂x2 scaled by ds.
func (m *Model) backBilinear(w int, x1, x2 []float64, ds float64, g *Grads) (dx1, dx2 []float64) {
	H := m.cfg.HiddenSize
	W := m.params[w].W
	gW := g.buf(w)
	g.buf(w + 1)[0] += ds
	dx1, dx2 = make([]float64, H), make([]float64, H)
	for i := 0; i < H; i++ {
		wi, gwi := W[i*H:][:H], gW[i*H:][:H]
		a := x1[i]
		for j := 0; j < H; j++ {
			gwi[j] += ds * a * x2[j]
			dx1[i] += ds * wi[j] * x2[j]
			dx2[j] += ds * wi[j] * a
		}
	}
	return dx1, dx2
}

// SentimentStep runs one sst example forward, adds scale·∇loss to g and
// returns the unscaled cross-entropy loss.
func (m *Model) SentimentStep(x dataset.EncodedSentence, d Dropout, scale float64, g *Grads) float64 {
	e := m.encode(x.Tokens, d, 0)
	logits := m.sentimentLogits(e.out)
	probs, lse := softmax(logits)
	loss := lse - logits[x.Label]

	H := m.cfg.HiddenSize
	W := m.params[SentimentWeight].W
	gW, gb := g.buf(SentimentWeight), g.buf(SentimentBias)
	dx := make([]float64, H)
	for c, p := range probs {
		dl := p
		if c == x.Label {
			dl -= 1
		}
		dl *= scale
		gb[c] += dl
		for k, v := range e.out {
			gW[c*H+k] += dl * v
			dx[k] += W[c*H+k] * dl
		}
	}
	m.backEncode(e, dx, g)
	return loss
}

// ParaphraseStep runs one para example forward with a binary cross-entropy
// loss on sigmoid(logit).
func (m *Model) ParaphraseStep(x dataset.EncodedPair, d Dropout, scale float64, g *Grads) float64 {
	e1, e2 := m.encode(x.Tokens1, d, 1), m.encode(x.Tokens2, d, 2)
	s := m.bilinear(ParaphraseWeight, e1.out, e2.out)
	// softplus(s) - y*s, written to stay finite for large |s|
	loss := math.Max(s, 0) - x.Label*s + math.Log1p(math.Exp(-math.Abs(s)))
	ds := (sigmoid(s) - x.Label) * scale
	dx1, dx2 := m.backBilinear(ParaphraseWeight, e1.out, e2.out, ds, g)
	m.backEncode(e1, dx1, g)
	m.backEncode(e2, dx2, g)
	return loss
}

// SimilarityStep runs one sts example forward with a squared-error loss
// against the gold score.
func (m *Model) SimilarityStep(x dataset.EncodedPair, d Dropout, scale float64, g *Grads) float64 {
	e1, e2 := m.encode(x.Tokens1, d, 1), m.encode(x.Tokens2, d, 2)
	s := m.bilinear(SimilarityWeight, e1.out, e2.out)
	diff := s - x.Label
	dx1, dx2 := m.backBilinear(SimilarityWeight, e1.out, e2.out, 2*diff*scale, g)
	m.backEncode(e1, dx1, g)
	m.backEncode(e2, dx2, g)
	return diff * diff
}

// SentimentLogits scores a sentence without dropout.
func (m *Model) SentimentLogits(tokens []int) []float64 {
	return m.sentimentLogits(m.encode(tokens, NoDropout, 0).out)
}

// PredictSentiment returns the arg-max sentiment class.
func (m *Model) PredictSentiment(tokens []int) int {
	logits := m.SentimentLogits(tokens)
	best := 0
	for c, v := range logits {
		if v > logits[best] {
			best = c
		}
	}
	return best
}

// ParaphraseLogit scores a sentence pair without dropout.
func (m *Model) ParaphraseLogit(t1, t2 []int) float64 {
	return m.bilinear(ParaphraseWeight, m.encode(t1, NoDropout, 1).out, m.encode(t2, NoDropout, 2).out)
}

// PredictParaphrase returns 1 when sigmoid(logit) rounds to 1.
func (m *Model) PredictParaphrase(t1, t2 []int) int {
	if sigmoid(m.ParaphraseLogit(t1, t2)) > 0.5 {
		return 1
	}
	return 0
}

// PredictSimilarity returns the raw similarity score.
func (m *Model) PredictSimilarity(t1, t2 []int) float64 {
	return m.bilinear(SimilarityWeight, m.encode(t1, NoDropout, 1).out, m.encode(t2, NoDropout, 2).out)
}

func softmax(logits []float64) (probs []float64, logSumExp float64) {
	mx := math.Inf(-1)
	for _, v := range logits {
		mx = math.Max(mx, v)
	}
	probs = make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(v - mx)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, mx + math.Log(sum)
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	z := math.Exp(x)
	return z / (1 + z)
}
