package types

import (
	"encoding/json"
	"time"
)

// RunStatus is the lifecycle state recorded in a run manifest.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Artifact is a file produced by a run together with its content digest.
type Artifact struct {
	// Kind of artifact (checkpoint, sst-dev, sst-test, para-dev, ...).
	// example: sts-test
	Kind string `json:"kind" example:"sts-test"`
	// Path as written by the runner.
	// example: predictions/sts-test-output.csv
	Path string `json:"path" example:"predictions/sts-test-output.csv"`
	// Hex sha256 of the file content at the end of the run.
	SHA256 string `json:"sha256"`
}

// EpochMetrics records one epoch of one training phase.
type EpochMetrics struct {
	Epoch     int     `json:"epoch"`
	TrainLoss float64 `json:"train_loss"`
	DevScore  float64 `json:"dev_score"`
	Saved     bool    `json:"saved"`
}

// PhaseResult summarizes a training phase (sst, para, sts or joint).
type PhaseResult struct {
	Name      string         `json:"name"`
	BestEpoch int            `json:"best_epoch"`
	BestScore float64        `json:"best_score"`
	Epochs    []EpochMetrics `json:"epochs"`
}

// DevMetrics holds the dev-set scores of the saved model.
type DevMetrics struct {
	SentimentAccuracy  float64 `json:"sentiment_accuracy"`
	ParaphraseAccuracy float64 `json:"paraphrase_accuracy"`
	SimilarityCorr     float64 `json:"similarity_corr"`
}

// DeviceInfo describes the compute backend a run used.
type DeviceInfo struct {
	// Backend is "cpu" or "parallel".
	Backend string `json:"backend"`
	Workers int    `json:"workers"`
	// GPURequested mirrors --use_gpu.
	GPURequested bool `json:"gpu_requested"`
	// Accelerator is a best-effort description of a detected device, empty if none.
	Accelerator string `json:"accelerator,omitempty"`
}

// RunManifest is the persisted record of a single training run. The submission
// preparer locates runs by Name.
type RunManifest struct {
	Name   string    `json:"name"`
	ID     string    `json:"id"`
	Status RunStatus `json:"status"`
	Error  string    `json:"error,omitempty"`

	TrainType    string `json:"train_type"`
	FineTuneMode string `json:"fine_tune_mode"`
	FilePrefix   string `json:"file_prefix"`
	Seed         int64  `json:"seed"`

	// ResumedFrom is the --model_path the run started from, if any.
	ResumedFrom     string `json:"resumed_from,omitempty"`
	ResumedFromSeed *int64 `json:"resumed_from_seed,omitempty"`
	SeedReused      bool   `json:"seed_reused,omitempty"`

	Config      json.RawMessage `json:"config,omitempty"`
	Device      DeviceInfo      `json:"device"`
	Checkpoint  Artifact        `json:"checkpoint"`
	Predictions []Artifact      `json:"predictions,omitempty"`
	Phases      []PhaseResult   `json:"phases,omitempty"`
	Dev         *DevMetrics     `json:"dev,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
