package model

import "sort"

// Grads accumulates gradients for every parameter of a model. Dense buffers
// are allocated on first use; embedding gradients are kept per touched row.
type Grads struct {
	hidden int
	sizes  [NumParams]int
	dense  [NumParams][]float64
	emb    map[int][]float64
}

// NewGrads returns an empty accumulator shaped for m.
func (m *Model) NewGrads() *Grads {
	g := &Grads{hidden: m.cfg.HiddenSize, emb: map[int][]float64{}}
	for i, p := range m.params {
		g.sizes[i] = len(p.W)
	}
	return g
}

func (g *Grads) buf(i int) []float64 {
	if g.dense[i] == nil {
		g.dense[i] = make([]float64, g.sizes[i])
	}
	return g.dense[i]
}

func (g *Grads) embRow(id int) []float64 {
	r, ok := g.emb[id]
	if !ok {
		r = make([]float64, g.hidden)
		g.emb[id] = r
	}
	return r
}

// Buffer returns the writable gradient of dense parameter i, allocating it
// on first use.
func (g *Grads) Buffer(i int) []float64 { return g.buf(i) }

// EmbeddingRow returns the writable gradient of embedding row id.
func (g *Grads) EmbeddingRow(id int) []float64 { return g.embRow(id) }

// Dense returns the gradient of parameter i, nil if it was never touched.
// The embeddings are never dense; use Rows.
func (g *Grads) Dense(i int) []float64 { return g.dense[i] }

// Rows returns the touched embedding rows in ascending id order.
func (g *Grads) Rows() []int {
	ids := make([]int, 0, len(g.emb))
	for id := range g.emb {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Row returns the gradient of embedding row id, nil if untouched.
func (g *Grads) Row(id int) []float64 { return g.emb[id] }

// Empty reports whether nothing has been accumulated.
func (g *Grads) Empty() bool {
	if len(g.emb) > 0 {
		return false
	}
	for _, d := range g.dense {
		if d != nil {
			return false
		}
	}
	return true
}

// AddScaled performs g += s*o.
func (g *Grads) AddScaled(o *Grads, s float64) {
	for i, src := range o.dense {
		if src == nil {
			continue
		}
		dst := g.buf(i)
		for j, v := range src {
			dst[j] += s * v
		}
	}
	for _, id := range o.Rows() {
		dst := g.embRow(id)
		for j, v := range o.emb[id] {
			dst[j] += s * v
		}
	}
}

// Add performs g += o.
func (g *Grads) Add(o *Grads) { g.AddScaled(o, 1) }

// Scale multiplies every gradient by s.
func (g *Grads) Scale(s float64) { g.scaleWhere(func(int) bool { return true }, s) }

// ScaleShared multiplies only the encoder gradients by s.
func (g *Grads) ScaleShared(s float64) { g.scaleWhere(func(i int) bool { return paramTasks[i] == "" }, s) }

func (g *Grads) scaleWhere(pred func(int) bool, s float64) {
	for i, d := range g.dense {
		if d == nil || !pred(i) {
			continue
		}
		for j := range d {
			d[j] *= s
		}
	}
	if pred(Embeddings) {
		for _, r := range g.emb {
			for j := range r {
				r[j] *= s
			}
		}
	}
}

// Dot returns the inner product of g and o over all parameters.
func (g *Grads) Dot(o *Grads) float64 {
	var s float64
	for i, a := range g.dense {
		b := o.dense[i]
		if a == nil || b == nil {
			continue
		}
		for j := range a {
			s += a[j] * b[j]
		}
	}
	for _, id := range g.Rows() {
		b, ok := o.emb[id]
		if !ok {
			continue
		}
		for j, v := range g.emb[id] {
			s += v * b[j]
		}
	}
	return s
}

// Clone returns a deep copy.
func (g *Grads) Clone() *Grads {
	c := &Grads{hidden: g.hidden, sizes: g.sizes, emb: make(map[int][]float64, len(g.emb))}
	c.Add(g)
	return c
}
