package trainer

// Event represents a run lifecycle event.
// Minimal and stable: name + run name and optional fields via key/values.
type Event struct {
	Name   string
	Run    string
	Fields map[string]any
}

// Event names.
const (
	EventRunStarted             = "run_started"
	EventRunFinished            = "run_finished"
	EventRunFailed              = "run_failed"
	EventPhaseStarted           = "phase_started"
	EventEpochEnd               = "epoch_end"
	EventCheckpointSaved        = "checkpoint_saved"
	EventSeedReused             = "seed_reused"
	EventAcceleratorUnavailable = "accelerator_unavailable"
	EventPredictionsWritten     = "predictions_written"
)

// EventPublisher receives events from the runner. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
