package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Inbound messages accepted onto the queue, labeled by topic (telemetry|event)
var MessagesReceived = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "binmon_messages_received_total",
		Help: "Inbound device messages accepted for processing",
	},
	[]string{"topic"},
)

var MessagesProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "binmon_messages_processed_total",
		Help: "Inbound device messages fully processed",
	},
	[]string{"topic"},
)

// Dropped or failed messages; reason is the error taxonomy code
var MessagesFailed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "binmon_messages_failed_total",
		Help: "Inbound device messages dropped or failed",
	},
	[]string{"topic", "reason"},
)

var ReadingsStored = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "binmon_sensor_readings_stored_total",
		Help: "Sensor readings appended to the telemetry store",
	},
)

var StatusTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "binmon_status_transitions_total",
		Help: "Device status updates applied, by resulting status",
	},
	[]string{"status"},
)

var NotificationsPersisted = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "binmon_notifications_persisted_total",
		Help: "Notification rows inserted",
	},
)

// Frames handed to live sessions, by path (broadcast|notification)
var LiveDeliveries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "binmon_live_deliveries_total",
		Help: "Frames accepted by live sessions",
	},
	[]string{"path"},
)

var LiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "binmon_live_sessions",
		Help: "Currently connected sessions",
	},
)

var ProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "binmon_message_processing_seconds",
		Help:    "Time spent processing one inbound message",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	},
	[]string{"topic"},
)
