// Package metrics содержит коллекторы Prometheus сервиса.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoomTransitionsTotal counts room lifecycle transitions (created, confirmed, ended, deleted).
	RoomTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamroom_room_transitions_total",
			Help: "Total number of room lifecycle transitions",
		},
		[]string{"transition"},
	)

	// SessionChangesTotal counts session occupancy changes (joined, cancelled, left, kicked).
	SessionChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamroom_session_changes_total",
			Help: "Total number of session occupancy changes",
		},
		[]string{"change"},
	)

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamroom_reservations_total",
			Help: "Total number of reservation operations",
		},
		[]string{"op"},
	)

	AvailabilityVotesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jamroom_availability_submissions_total",
			Help: "Total number of availability vote submissions",
		},
	)

	EvaluationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "jamroom_evaluations_total",
			Help: "Total number of evaluation rows written",
		},
	)

	// NotificationsTotal tracks notification delivery by sender and outcome (sent, failed, dropped).
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jamroom_notifications_total",
			Help: "Total number of notifications by sender and outcome",
		},
		[]string{"sender", "outcome"},
	)

	NotificationQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jamroom_notification_queue_depth",
			Help: "Number of notifications waiting for dispatch",
		},
	)

	// HTTPRequestDuration tracks HTTP latency by route pattern, method and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jamroom_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)
