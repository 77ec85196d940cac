package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registrations counts registration submissions by kind (individual, group) and outcome.
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agilecoach",
		Name:      "registrations_total",
		Help:      "Course registration submissions by kind and outcome.",
	}, []string{"kind", "outcome"})

	// RegistrationRows counts persisted registration rows.
	RegistrationRows = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "agilecoach",
		Name:      "registration_rows_created_total",
		Help:      "Registration rows written to the store.",
	})

	// Notifications counts notification deliveries by function and outcome.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agilecoach",
		Name:      "notifications_total",
		Help:      "Notification deliveries by function and outcome.",
	}, []string{"function", "outcome"})

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agilecoach",
		Name:      "rate_limited_requests_total",
		Help:      "Requests rejected by the rate limiter.",
	}, []string{"scope"})
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeDropped  = "dropped"
	OutcomeRejected = "rejected"
)
