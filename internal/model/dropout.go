package model

// Dropout selects the mask applied to the pooled sentence vector. Masks are a
// pure function of (batch seed, example index, side, unit), so the same batch
// yields the same masks however it is split across workers.
type Dropout struct {
	on   bool
	seed uint64
}

// NoDropout is used for evaluation and prediction.
var NoDropout = Dropout{}

// TrainDropout returns the mask stream for one example of a batch.
func TrainDropout(batchSeed uint64, example int) Dropout {
	return Dropout{on: true, seed: splitmix64(batchSeed ^ splitmix64(uint64(example)+1))}
}

// scale returns 0 for a dropped unit and 1/(1-p) for a kept one.
func (d Dropout) scale(side, unit int, p float64) float64 {
	if !d.on || p == 0 {
		return 1
	}
	u := splitmix64(d.seed + uint64(side)*0x9e3779b97f4a7c15 + uint64(unit)*0xbf58476d1ce4e5b9)
	if float64(u>>11)/(1<<53) < p {
		return 0
	}
	return 1 / (1 - p)
}

func splitmix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
