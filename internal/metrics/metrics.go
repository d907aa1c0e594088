// Package metrics holds Prometheus instruments that are used across the
// application.  All collectors are registered with the global registry, so
// importing this package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// AuthDecisionsTotal counts access decisions by method (token, email,
	// session) and outcome (allow, deny).
	AuthDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_decisions_total",
			Help: "Access decisions by resolution method and outcome.",
		}, []string{"method", "outcome"})

	// AuthDenialsTotal breaks denials down by internal reason.  The reason
	// never reaches the client.
	AuthDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_denials_total",
			Help: "Access denials by internal reason.",
		}, []string{"reason"})

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Outbound notifications by channel and result.",
		}, []string{"channel", "result"})

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Account lifecycle webhook events by kind and result.",
		}, []string{"event", "result"})
)

func init() {
	prometheus.MustRegister(
		AuthDecisionsTotal,
		AuthDenialsTotal,
		NotificationsTotal,
		WebhookEventsTotal,
	)
}
