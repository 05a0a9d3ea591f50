// Package trainer runs one multitask training experiment from a validated
// run configuration. It is structured into small files by concern:
//
//   - runner.go: Runner type, Run entry point, manifest bookkeeping.
//   - config.go: Config and package defaults; NewWithConfig applies defaults.
//   - errors.go: error types and helpers (IsCanceled).
//   - events.go, eventpub_memory.go: lifecycle events for observers and tests.
//   - metrics.go: Prometheus collectors for steps, epochs and checkpoints.
//   - device.go: compute backend selection and the parallel worker pool.
//   - data.go: loading and encoding of the three task datasets.
//   - strategy.go: sequential, simultaneous and pcgrad training loops.
//   - eval.go: dev metrics (accuracy, Pearson correlation).
//   - predict.go: reload of the saved checkpoint and prediction files.
//
// A run is strictly sequential at the top level. Only per-batch example work
// fans out, and gradients are reduced in a fixed order so results do not
// depend on the number of workers.
package trainer
