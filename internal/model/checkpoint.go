package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"mtexp/internal/common/fsutil"
)

const checkpointVersion = 1

// Checkpoint is the on-disk form of a trained model together with what is
// needed to use it again: the vocabulary, the model shape and the training
// seed.
type Checkpoint struct {
	Version      int                    `json:"version"`
	CreatedAt    time.Time              `json:"created_at"`
	Model        Config                 `json:"model"`
	FineTuneMode string                 `json:"fine_tune_mode"`
	Seed         int64                  `json:"seed"`
	TrainType    string                 `json:"train_type"`
	Phase        string                 `json:"phase"`
	Epoch        int                    `json:"epoch"`
	DevScore     float64                `json:"dev_score"`
	RunConfig    json.RawMessage        `json:"run_config,omitempty"`
	Vocab        []string               `json:"vocab"`
	State        map[string][][]float64 `json:"state"`
}

// State exports the parameters as named row matrices.
func (m *Model) State() map[string][][]float64 {
	out := make(map[string][][]float64, NumParams)
	for _, p := range m.params {
		rows := make([][]float64, p.Rows)
		for r := range rows {
			rows[r] = append([]float64(nil), p.W[r*p.Cols:(r+1)*p.Cols]...)
		}
		out[p.Name] = rows
	}
	return out
}

// LoadState copies exported parameters into m. Every parameter must be
// present with the model's shape.
func (m *Model) LoadState(src map[string][][]float64) error {
	for _, p := range m.params {
		rows, ok := src[p.Name]
		if !ok {
			return fmt.Errorf("state: missing %s", p.Name)
		}
		if len(rows) != p.Rows {
			return fmt.Errorf("state: %s has %d rows, want %d", p.Name, len(rows), p.Rows)
		}
		for r, row := range rows {
			if len(row) != p.Cols {
				return fmt.Errorf("state: %s row %d has %d cols, want %d", p.Name, r, len(row), p.Cols)
			}
		}
	}
	for _, p := range m.params {
		for r, row := range src[p.Name] {
			copy(p.W[r*p.Cols:], row)
		}
	}
	return nil
}

// NewCheckpoint snapshots m with its vocabulary.
func (m *Model) NewCheckpoint(vocab []string) Checkpoint {
	return Checkpoint{
		Version:   checkpointVersion,
		CreatedAt: time.Now().UTC(),
		Model:     m.cfg,
		Vocab:     vocab,
		State:     m.State(),
	}
}

// Restore rebuilds the model stored in ck.
func (ck Checkpoint) Restore() (*Model, error) {
	m, err := New(ck.Model, 0)
	if err != nil {
		return nil, err
	}
	if err := m.LoadState(ck.State); err != nil {
		return nil, err
	}
	return m, nil
}

// SaveCheckpoint writes ck to path atomically.
func SaveCheckpoint(path string, ck Checkpoint) error {
	if math.IsNaN(ck.DevScore) || math.IsInf(ck.DevScore, 0) {
		ck.DevScore = 0
	}
	b, err := json.Marshal(ck)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, b, 0o644); err != nil {
		return fmt.Errorf("write checkpoint %s: %w", path, err)
	}
	return nil
}

// LoadCheckpoint reads and sanity-checks a checkpoint file.
func LoadCheckpoint(path string) (Checkpoint, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Checkpoint{}, err
	}
	var ck Checkpoint
	if err := json.Unmarshal(b, &ck); err != nil {
		return Checkpoint{}, fmt.Errorf("decode checkpoint %s: %w", path, err)
	}
	if ck.Version != checkpointVersion {
		return Checkpoint{}, fmt.Errorf("checkpoint %s: unsupported version %d", path, ck.Version)
	}
	if err := ck.Model.validate(); err != nil {
		return Checkpoint{}, fmt.Errorf("checkpoint %s: %w", path, err)
	}
	if len(ck.Vocab) != ck.Model.VocabSize {
		return Checkpoint{}, fmt.Errorf("checkpoint %s: vocab has %d words, model expects %d", path, len(ck.Vocab), ck.Model.VocabSize)
	}
	return ck, nil
}
