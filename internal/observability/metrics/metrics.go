package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webchat_http_requests_total",
		Help: "Total HTTP requests by method and path.",
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "webchat_http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	})

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webchat_http_request_duration_seconds",
		Help:    "HTTP request latency by method, path and status class.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status_class"})

	HTTPErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webchat_http_errors_total",
		Help: "HTTP error responses by status, path and method.",
	}, []string{"status", "path", "method"})

	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webchat_registrations_total",
		Help: "Registration attempts by result.",
	}, []string{"result"})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webchat_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	TokensIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webchat_tokens_issued_total",
		Help: "Bearer tokens issued.",
	})

	MessagesPostedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webchat_messages_posted_total",
		Help: "Chat messages accepted and persisted.",
	})

	BroadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webchat_ws_broadcasts_total",
		Help: "Message events fanned out to live sessions.",
	})

	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "webchat_ws_active_connections",
		Help: "Currently connected live sessions.",
	})

	WebSocketClientsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webchat_ws_clients_dropped_total",
		Help: "Live sessions dropped because their send buffer was full.",
	})
)
