package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for EventsHandled.
const (
	OutcomeIgnored   = "ignored"
	OutcomeDropped   = "dropped"
	OutcomeLogged    = "logged"
	OutcomeDialog    = "dialog"
	OutcomeMalformed = "malformed"
	OutcomeFailed    = "failed"
)

var (
	WebhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weather",
		Name:      "webhooks_received_total",
		Help:      "Webhook deliveries by Watson Work event type.",
	}, []string{"type"})

	EventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weather",
		Name:      "events_handled_total",
		Help:      "Events processed by the worker, by outcome.",
	}, []string{"outcome"})

	DialogTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weather",
		Name:      "dialog_transitions_total",
		Help:      "Action dialog branches taken, by action and result.",
	}, []string{"action", "result"})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "weather",
		Name:      "provider_request_seconds",
		Help:      "Weather provider request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)
