package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	workoutsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "workouts",
		Name:      "created_total",
		Help:      "Workouts recorded, by kind.",
	}, []string{"kind"})
	validationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "workouts",
		Name:      "validation_failures_total",
		Help:      "Form submissions rejected by input validation, by kind.",
	}, []string{"kind"})
	persistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "storage",
		Name:      "persist_failures_total",
		Help:      "Writes of the workout list that failed and were rolled back.",
	})
	restoreCorrupt = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mapty",
		Subsystem: "storage",
		Name:      "restore_corrupt_total",
		Help:      "Start-ups that found a malformed persisted record and began empty.",
	})
	geolocationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mapty",
		Subsystem: "geolocation",
		Name:      "lookup_duration_seconds",
		Help:      "Duration of the start-up position lookup, by outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	workoutsStored = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "mapty",
		Subsystem: "workouts",
		Name:      "stored",
		Help:      "Workouts currently held in the store.",
	})
)

func init() {
	prometheus.MustRegister(workoutsCreated, validationFailures, persistFailures, restoreCorrupt, geolocationDuration, workoutsStored)
}

// RecordWorkoutCreated counts a recorded workout and updates the stored gauge.
func RecordWorkoutCreated(kind string, stored int) {
	workoutsCreated.WithLabelValues(kind).Inc()
	workoutsStored.Set(float64(stored))
}

func RecordValidationFailure(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	validationFailures.WithLabelValues(kind).Inc()
}

func RecordPersistFailure() {
	persistFailures.Inc()
}

func RecordRestoreCorrupt() {
	restoreCorrupt.Inc()
}

// RecordStored sets the stored gauge after a restore or reset.
func RecordStored(n int) {
	workoutsStored.Set(float64(n))
}

// RecordGeolocation observes a lookup; outcome is "ok" or "denied".
func RecordGeolocation(outcome string, elapsed time.Duration) {
	geolocationDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
