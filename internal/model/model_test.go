package model

import (
	"math"
	"path/filepath"
	"testing"

	"mtexp/internal/dataset"
)

func testModel(t *testing.T, dropout float64) *Model {
	t.Helper()
	m, err := New(Config{VocabSize: 7, HiddenSize: 4, NumLabels: 5, Dropout: dropout}, 3)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	// move biases off zero so their gradients are exercised
	for _, i := range []int{PoolerBias, SentimentBias, ParaphraseBias, SimilarityBias} {
		for j := range m.params[i].W {
			m.params[i].W[j] = 0.1 * float64(j+1)
		}
	}
	return m
}

// checkGradients compares analytic gradients with central differences for
// every dense parameter and for the touched embedding rows.
func checkGradients(t *testing.T, m *Model, loss func(g *Grads) float64) {
	t.Helper()
	g := m.NewGrads()
	loss(g)
	const eps = 1e-6
	numeric := func(w []float64, j int) float64 {
		orig := w[j]
		w[j] = orig + eps
		lp := loss(m.NewGrads())
		w[j] = orig - eps
		lm := loss(m.NewGrads())
		w[j] = orig
		return (lp - lm) / (2 * eps)
	}
	for i, p := range m.params {
		if i == Embeddings {
			continue
		}
		an := g.Dense(i)
		for j := range p.W {
			want := numeric(p.W, j)
			var got float64
			if an != nil {
				got = an[j]
			}
			if math.Abs(got-want) > 1e-5*math.Max(1, math.Abs(want)) {
				t.Fatalf("%s[%d]: analytic %.8f numeric %.8f", p.Name, j, got, want)
			}
		}
	}
	E := m.params[Embeddings]
	for _, id := range g.Rows() {
		row := g.Row(id)
		for k := range row {
			want := numeric(E.W, id*E.Cols+k)
			if math.Abs(row[k]-want) > 1e-5*math.Max(1, math.Abs(want)) {
				t.Fatalf("embeddings[%d][%d]: analytic %.8f numeric %.8f", id, k, row[k], want)
			}
		}
	}
}

func TestSentimentGradients(t *testing.T) {
	m := testModel(t, 0.3)
	x := dataset.EncodedSentence{Tokens: []int{1, 2, 2, 5}, Label: 3}
	d := TrainDropout(42, 0)
	checkGradients(t, m, func(g *Grads) float64 { return m.SentimentStep(x, d, 1, g) })
}

func TestParaphraseGradients(t *testing.T) {
	m := testModel(t, 0)
	for _, y := range []float64{0, 1} {
		x := dataset.EncodedPair{Tokens1: []int{1, 3}, Tokens2: []int{3, 4, 6}, Label: y}
		checkGradients(t, m, func(g *Grads) float64 { return m.ParaphraseStep(x, NoDropout, 1, g) })
	}
}

func TestSimilarityGradients(t *testing.T) {
	m := testModel(t, 0.2)
	x := dataset.EncodedPair{Tokens1: []int{2}, Tokens2: []int{2, 6}, Label: 3.5}
	d := TrainDropout(7, 3)
	checkGradients(t, m, func(g *Grads) float64 { return m.SimilarityStep(x, d, 1, g) })
}

func TestScaleIsApplied(t *testing.T) {
	m := testModel(t, 0)
	x := dataset.EncodedSentence{Tokens: []int{1}, Label: 0}
	g1, g8 := m.NewGrads(), m.NewGrads()
	m.SentimentStep(x, NoDropout, 1, g1)
	m.SentimentStep(x, NoDropout, 0.125, g8)
	a, b := g1.Dense(SentimentBias), g8.Dense(SentimentBias)
	for i := range a {
		if math.Abs(a[i]*0.125-b[i]) > 1e-12 {
			t.Fatalf("bias grad %d not scaled: %g vs %g", i, a[i], b[i])
		}
	}
}

func TestFrozenEncoderGetsNoGradient(t *testing.T) {
	m := testModel(t, 0)
	m.FreezeEncoder(true)
	g := m.NewGrads()
	m.SimilarityStep(dataset.EncodedPair{Tokens1: []int{1}, Tokens2: []int{2}, Label: 5}, NoDropout, 1, g)
	if g.Dense(PoolerWeight) != nil || len(g.Rows()) != 0 {
		t.Fatalf("encoder received gradient while frozen")
	}
	if g.Dense(SimilarityWeight) == nil {
		t.Fatalf("head should still receive gradient")
	}
	if m.Trainable(Embeddings) || !m.Trainable(SimilarityBias) {
		t.Fatalf("Trainable disagrees with freeze")
	}
}

func TestDropoutDeterministic(t *testing.T) {
	a, b := TrainDropout(9, 4), TrainDropout(9, 4)
	other := TrainDropout(9, 5)
	var diff bool
	for u := 0; u < 64; u++ {
		if a.scale(1, u, 0.5) != b.scale(1, u, 0.5) {
			t.Fatalf("same stream differs at unit %d", u)
		}
		if a.scale(1, u, 0.5) != other.scale(1, u, 0.5) {
			diff = true
		}
		if s := a.scale(1, u, 0.5); s != 0 && s != 2 {
			t.Fatalf("unexpected scale %g", s)
		}
	}
	if !diff {
		t.Fatalf("different examples should get different masks")
	}
	if NoDropout.scale(0, 0, 0.9) != 1 {
		t.Fatalf("NoDropout must keep every unit")
	}
}

func TestPredictions(t *testing.T) {
	m := testModel(t, 0.3)
	c := m.PredictSentiment([]int{1, 2})
	if c < 0 || c >= 5 {
		t.Fatalf("class out of range: %d", c)
	}
	// evaluation ignores dropout, so repeated calls agree
	if m.PredictSimilarity([]int{1}, []int{2}) != m.PredictSimilarity([]int{1}, []int{2}) {
		t.Fatalf("prediction not deterministic")
	}
	if p := m.PredictParaphrase([]int{1}, []int{99}); p != 0 && p != 1 {
		t.Fatalf("paraphrase prediction %d", p)
	}
}

func TestGradsAlgebra(t *testing.T) {
	m := testModel(t, 0)
	g := m.NewGrads()
	if !g.Empty() {
		t.Fatalf("new grads should be empty")
	}
	m.SentimentStep(dataset.EncodedSentence{Tokens: []int{1, 2}, Label: 1}, NoDropout, 1, g)
	n2 := g.Dot(g)
	c := g.Clone()
	c.Scale(2)
	if math.Abs(g.Dot(c)-2*n2) > 1e-9 {
		t.Fatalf("dot/scale mismatch")
	}
	c.AddScaled(g, -2)
	if math.Abs(c.Dot(c)) > 1e-18 {
		t.Fatalf("AddScaled did not cancel")
	}
	s := g.Clone()
	s.ScaleShared(0)
	if s.Dot(s) == 0 || len(s.Rows()) == 0 {
		t.Fatalf("ScaleShared should keep head grads and row entries")
	}
	for _, v := range s.Dense(PoolerWeight) {
		if v != 0 {
			t.Fatalf("shared grads not scaled")
		}
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	m := testModel(t, 0.3)
	vocab := []string{dataset.UnknownToken, "a", "b", "c", "d", "e", "f"}
	ck := m.NewCheckpoint(vocab)
	ck.Seed = 11711
	ck.FineTuneMode = "full-model"
	ck.DevScore = math.Inf(-1)
	p := filepath.Join(t.TempDir(), "models", "x-multitask.ckpt")
	if err := SaveCheckpoint(p, ck); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadCheckpoint(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Seed != 11711 || got.FineTuneMode != "full-model" || len(got.Vocab) != 7 || got.DevScore != 0 {
		t.Fatalf("metadata lost: %+v", got.Model)
	}
	m2, err := got.Restore()
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	x1, x2 := []int{1, 2}, []int{3}
	if m.PredictSimilarity(x1, x2) != m2.PredictSimilarity(x1, x2) {
		t.Fatalf("restored model differs")
	}
}

func TestLoadStateRejectsShapeMismatch(t *testing.T) {
	m := testModel(t, 0)
	st := m.State()
	st["pooler.bias"] = [][]float64{{1, 2}}
	if err := m.LoadState(st); err == nil {
		t.Fatalf("expected shape error")
	}
	delete(st, "pooler.bias")
	if err := m.LoadState(st); err == nil {
		t.Fatalf("expected missing param error")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{VocabSize: 0, HiddenSize: 4, NumLabels: 5}, 1); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := New(Config{VocabSize: 3, HiddenSize: 4, NumLabels: 5, Dropout: 1}, 1); err == nil {
		t.Fatalf("expected dropout error")
	}
}
