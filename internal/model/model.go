// Package model implements the multitask sentence model: a mean-pooled word
// embedding encoder shared by a sentiment head, a paraphrase head and a
// similarity head. Forward and backward passes are written out by hand over
// flat float64 slices.
package model

import (
	"fmt"
	"math"
	"math/rand"
)

// Parameter indices. The order is also the checkpoint and optimizer order.
const (
	Embeddings = iota
	PoolerWeight
	PoolerBias
	SentimentWeight
	SentimentBias
	ParaphraseWeight
	ParaphraseBias
	SimilarityWeight
	SimilarityBias
	NumParams
)

// Task names used for head ownership.
const (
	TaskSST  = "sst"
	TaskPara = "para"
	TaskSTS  = "sts"
)

var paramNames = [NumParams]string{
	"embeddings",
	"pooler.weight", "pooler.bias",
	"sentiment.weight", "sentiment.bias",
	"paraphrase.weight", "paraphrase.bias",
	"similarity.weight", "similarity.bias",
}

// empty task = shared encoder parameter
var paramTasks = [NumParams]string{"", "", "", TaskSST, TaskSST, TaskPara, TaskPara, TaskSTS, TaskSTS}

// Config fixes the shape of a model.
type Config struct {
	VocabSize  int     `json:"vocab_size"`
	HiddenSize int     `json:"hidden_size"`
	NumLabels  int     `json:"num_labels"`
	Dropout    float64 `json:"hidden_dropout_prob"`
}

func (c Config) validate() error {
	if c.VocabSize < 1 || c.HiddenSize < 1 || c.NumLabels < 2 {
		return fmt.Errorf("invalid model config: vocab=%d hidden=%d labels=%d", c.VocabSize, c.HiddenSize, c.NumLabels)
	}
	if c.Dropout < 0 || c.Dropout >= 1 {
		return fmt.Errorf("invalid model config: dropout %g", c.Dropout)
	}
	return nil
}

// Param is one weight matrix stored row-major.
type Param struct {
	Name       string
	Task       string
	Rows, Cols int
	W          []float64
}

// Shared reports whether the parameter belongs to the encoder used by all tasks.
func (p *Param) Shared() bool { return p.Task == "" }

// Model holds the parameters. It is not safe to mutate parameters while a
// forward pass is running; concurrent forward/backward passes are fine.
type Model struct {
	cfg    Config
	params [NumParams]*Param
	frozen bool
}

// New builds a model with weights drawn from seed.
func New(cfg Config, seed int64) (*Model, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	h, v, l := cfg.HiddenSize, cfg.VocabSize, cfg.NumLabels
	shapes := [NumParams][2]int{
		{v, h},
		{h, h}, {1, h},
		{l, h}, {1, l},
		{h, h}, {1, 1},
		{h, h}, {1, 1},
	}
	m := &Model{cfg: cfg}
	for i := range m.params {
		m.params[i] = &Param{Name: paramNames[i], Task: paramTasks[i], Rows: shapes[i][0], Cols: shapes[i][1], W: make([]float64, shapes[i][0]*shapes[i][1])}
	}
	rng := rand.New(rand.NewSource(seed))
	fill := func(p *Param, std float64) {
		for j := range p.W {
			p.W[j] = rng.NormFloat64() * std
		}
	}
	fill(m.params[Embeddings], 0.1)
	fill(m.params[PoolerWeight], 1/math.Sqrt(float64(h)))
	fill(m.params[SentimentWeight], 1/math.Sqrt(float64(h)))
	fill(m.params[ParaphraseWeight], 1/float64(h))
	fill(m.params[SimilarityWeight], 1/float64(h))
	return m, nil
}

// Config returns the model shape.
func (m *Model) Config() Config { return m.cfg }

// Param returns parameter i (one of the index constants).
func (m *Model) Param(i int) *Param { return m.params[i] }

// Params returns all parameters in index order.
func (m *Model) Params() []*Param { return m.params[:] }

// FreezeEncoder stops gradients from reaching the embeddings and pooler. It
// implements the last-linear-layer fine-tune mode.
func (m *Model) FreezeEncoder(frozen bool) { m.frozen = frozen }

// EncoderFrozen reports the current freeze setting.
func (m *Model) EncoderFrozen() bool { return m.frozen }

// Trainable reports whether parameter i receives updates.
func (m *Model) Trainable(i int) bool { return !(m.frozen && paramTasks[i] == "") }
