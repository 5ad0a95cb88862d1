package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reservation results
const (
	ResultReserved    = "reserved"
	ResultRecheckout  = "recheckout"
	ResultUnavailable = "unavailable"
	ResultRejected    = "rejected"
	ResultError       = "error"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rifas_http_requests_total",
		Help: "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rifas_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"route", "method"})

	Reservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rifas_reservations_total",
		Help: "Reservation attempts by result",
	}, []string{"result"})

	ReservationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rifas_reservations_expired_total",
		Help: "Reservations released by the expiration job",
	})

	PaymentsConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rifas_payments_total",
		Help: "Payment transitions by source and status",
	}, []string{"source", "status"})

	RafflesSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rifas_raffles_settled_total",
		Help: "Completed apuração runs",
	})

	RafflesClosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rifas_raffles_closed_total",
		Help: "Raffles closed by the closing job",
	})

	EntitiesBlocked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rifas_antifraud_blocked_total",
		Help: "Entities auto-blocked by the antifraud analysis",
	}, []string{"type"})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rifas_notifications_total",
		Help: "Outgoing notifications by channel and outcome",
	}, []string{"channel", "outcome"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rifas_job_duration_seconds",
		Help:    "Background job run time",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"job"})
)
