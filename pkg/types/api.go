package types

// RunSummary is the list view of a run returned by GET /runs.
type RunSummary struct {
	// Run name derived from --file_prefix.
	// example: sts
	Name string `json:"name" example:"sts"`
	// Unique run id.
	// example: 6f1c8a52-4c0e-4f5e-9a63-0d0a4f0c2b11
	ID string `json:"id" example:"6f1c8a52-4c0e-4f5e-9a63-0d0a4f0c2b11"`
	// Lifecycle state: running, succeeded or failed.
	// example: succeeded
	Status RunStatus `json:"status" example:"succeeded"`
	// Training strategy: sequential, simultaneous or pcgrad.
	// example: pcgrad
	TrainType string `json:"train_type" example:"pcgrad"`
	// Checkpoint path written by the run.
	// example: models/sts_full-model-10-1e-05-multitask.ckpt
	Checkpoint string `json:"checkpoint" example:"models/sts_full-model-10-1e-05-multitask.ckpt"`
	// Finish time in unix seconds, 0 while running.
	// example: 1700000000
	FinishedUnix int64 `json:"finished_unix" example:"1700000000"`
}

// RunsResponse wraps the list returned by GET /runs.
type RunsResponse struct {
	Runs []RunSummary `json:"runs"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: run not found: sts
	Error string `json:"error" example:"run not found: sts"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// Summary projects a manifest into its list view.
func (m RunManifest) Summary() RunSummary {
	s := RunSummary{
		Name:       m.Name,
		ID:         m.ID,
		Status:     m.Status,
		TrainType:  m.TrainType,
		Checkpoint: m.Checkpoint.Path,
	}
	if m.FinishedAt != nil {
		s.FinishedUnix = m.FinishedAt.Unix()
	}
	return s
}
