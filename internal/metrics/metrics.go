package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Interpretations counts parse attempts by interpreter and outcome.
	Interpretations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opsgate_interpretations_total",
		Help: "Parse attempts by interpreter (model, fallback) and outcome.",
	}, []string{"interpreter", "outcome"})

	// FallbackTotal counts times the pattern rules answered because the
	// model path failed.
	FallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "opsgate_model_fallback_total",
		Help: "Times the pattern rules answered after a model failure.",
	})

	// InferenceSeconds tracks wall time of model inference calls.
	InferenceSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "opsgate_inference_seconds",
		Help:    "Wall time of model inference calls.",
		Buckets: prometheus.DefBuckets,
	})

	// Confirmations counts terminal confirmation outcomes.
	Confirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opsgate_confirmations_total",
		Help: "Confirmation records reaching a terminal status.",
	}, []string{"status"})

	// PendingConfirmations gauges records currently awaiting a decision.
	PendingConfirmations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "opsgate_pending_confirmations",
		Help: "Confirmation records currently pending.",
	})

	// Dispatches counts confirmed commands handed to the dispatcher.
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opsgate_dispatches_total",
		Help: "Confirmed commands handed to the dispatcher, by outcome.",
	}, []string{"outcome"})
)

// Handler exposes the default registry, for mounting at /metrics.
func Handler() http.Handler { return promhttp.Handler() }
