package trainer

import "github.com/prometheus/client_golang/prometheus"

var (
	trainStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mtexp",
			Subsystem: "train",
			Name:      "steps_total",
			Help:      "Optimizer steps taken, by strategy",
		},
		[]string{"strategy"},
	)

	trainStepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mtexp",
			Subsystem: "train",
			Name:      "step_duration_seconds",
			Help:      "Wall time of one forward/backward/update step",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
		[]string{"strategy"},
	)

	trainEpochLoss = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mtexp",
			Subsystem: "train",
			Name:      "epoch_loss",
			Help:      "Mean training loss of the last finished epoch, by phase",
		},
		[]string{"phase"},
	)

	trainDevScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mtexp",
			Subsystem: "train",
			Name:      "dev_score",
			Help:      "Dev score of the last finished epoch, by phase",
		},
		[]string{"phase"},
	)

	checkpointsSavedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mtexp",
			Subsystem: "train",
			Name:      "checkpoints_saved_total",
			Help:      "Checkpoints written after a dev score improvement",
		},
	)

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mtexp",
			Subsystem: "train",
			Name:      "runs_total",
			Help:      "Finished runs by outcome",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(trainStepsTotal, trainStepDuration, trainEpochLoss, trainDevScore, checkpointsSavedTotal, runsTotal)
}
