package trainer

import (
	"math"
	"testing"

	"mtexp/internal/dataset"
	"mtexp/internal/model"
)

func TestPearson(t *testing.T) {
	if r := pearson([]float64{1, 2, 3}, []float64{2, 4, 6}); math.Abs(r-1) > 1e-12 {
		t.Fatalf("perfect correlation: %g", r)
	}
	if r := pearson([]float64{1, 2, 3}, []float64{3, 2, 1}); math.Abs(r+1) > 1e-12 {
		t.Fatalf("perfect anti-correlation: %g", r)
	}
	if pearson([]float64{1, 1, 1}, []float64{1, 2, 3}) != 0 || pearson([]float64{1}, []float64{1}) != 0 {
		t.Fatalf("undefined correlation should be 0")
	}
}

func TestAccuracy(t *testing.T) {
	sst := []dataset.EncodedSentence{{Label: 1}, {Label: 4}, {Label: 0}, {Label: 2}}
	if a := sentimentAccuracy([]int{1, 4, 3, 3}, sst); a != 0.5 {
		t.Fatalf("sentiment accuracy %g", a)
	}
	para := []dataset.EncodedPair{{Label: 1}, {Label: 0}}
	if a := paraphraseAccuracy([]int{1, 1}, para); a != 0.5 {
		t.Fatalf("paraphrase accuracy %g", a)
	}
	if sentimentAccuracy(nil, nil) != 0 {
		t.Fatalf("empty accuracy")
	}
}

func TestFinite(t *testing.T) {
	if finite(math.NaN()) != 0 || finite(math.Inf(1)) != 0 || finite(2) != 2 {
		t.Fatalf("finite")
	}
}

func TestAccumulateIsIndependentOfWorkers(t *testing.T) {
	m, err := model.New(model.Config{VocabSize: 10, HiddenSize: 5, NumLabels: 5, Dropout: 0.3}, 4)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	xs := make([]dataset.EncodedSentence, 13)
	for i := range xs {
		xs[i] = dataset.EncodedSentence{Tokens: []int{i % 10, (i * 3) % 10}, Label: i % 5}
	}
	step := func(pos int, g *model.Grads) float64 {
		return m.SentimentStep(xs[pos], model.TrainDropout(99, pos), 0.1, g)
	}
	cpu := newDevice(false, 0, 4, noAccelerator)
	par := newDevice(true, 5, 4, noAccelerator)
	defer par.close()
	g1, l1 := cpu.accumulate(m, len(xs), step)
	g2, l2 := par.accumulate(m, len(xs), step)
	if l1 != l2 {
		t.Fatalf("loss differs: %v vs %v", l1, l2)
	}
	for i := 0; i < model.NumParams; i++ {
		a, b := g1.Dense(i), g2.Dense(i)
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("param %d grad %d differs", i, j)
			}
		}
	}
	if par.info.Workers != 5 || par.info.Backend != backendParallel || cpu.info.Backend != backendCPU {
		t.Fatalf("device info: %+v %+v", cpu.info, par.info)
	}
}
