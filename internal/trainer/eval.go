package trainer

import (
	"math"

	"mtexp/internal/dataset"
	"mtexp/internal/model"
)

func (rn *run) devSST() float64 {
	return sentimentAccuracy(predictSentiment(rn.dev, rn.model, rn.devel.sst), rn.devel.sst)
}

func (rn *run) devPara() float64 {
	return paraphraseAccuracy(predictParaphrase(rn.dev, rn.model, rn.devel.para), rn.devel.para)
}

func (rn *run) devSTS() float64 {
	return similarityCorrelation(predictSimilarity(rn.dev, rn.model, rn.devel.sts), rn.devel.sts)
}

func predictSentiment(d *device, m *model.Model, xs []dataset.EncodedSentence) []int {
	out := make([]int, len(xs))
	d.eachIndex(len(xs), func(i int) { out[i] = m.PredictSentiment(xs[i].Tokens) })
	return out
}

func predictParaphrase(d *device, m *model.Model, xs []dataset.EncodedPair) []int {
	out := make([]int, len(xs))
	d.eachIndex(len(xs), func(i int) { out[i] = m.PredictParaphrase(xs[i].Tokens1, xs[i].Tokens2) })
	return out
}

func predictSimilarity(d *device, m *model.Model, xs []dataset.EncodedPair) []float64 {
	out := make([]float64, len(xs))
	d.eachIndex(len(xs), func(i int) { out[i] = m.PredictSimilarity(xs[i].Tokens1, xs[i].Tokens2) })
	return out
}

func sentimentAccuracy(pred []int, xs []dataset.EncodedSentence) float64 {
	if len(xs) == 0 {
		return 0
	}
	var ok int
	for i, x := range xs {
		if pred[i] == x.Label {
			ok++
		}
	}
	return float64(ok) / float64(len(xs))
}

func paraphraseAccuracy(pred []int, xs []dataset.EncodedPair) float64 {
	if len(xs) == 0 {
		return 0
	}
	var ok int
	for i, x := range xs {
		if float64(pred[i]) == x.Label {
			ok++
		}
	}
	return float64(ok) / float64(len(xs))
}

func similarityCorrelation(pred []float64, xs []dataset.EncodedPair) float64 {
	gold := make([]float64, len(xs))
	for i, x := range xs {
		gold[i] = x.Label
	}
	return pearson(pred, gold)
}

// pearson returns the Pearson correlation of x and y, 0 when it is undefined
// (fewer than two points or a constant series).
func pearson(x, y []float64) float64 {
	n := len(x)
	if n < 2 || len(y) != n {
		return 0
	}
	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(n)
	my /= float64(n)
	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0
	}
	r := sxy / math.Sqrt(sxx*syy)
	if math.IsNaN(r) {
		return 0
	}
	return r
}
