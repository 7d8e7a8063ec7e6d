package ingestion

import (
	"sync"
	"time"
)

// IngestMetrics tracks ingestion throughput for the health endpoint.
type IngestMetrics struct {
	MessagesReceived      int64         `json:"messages_received"`
	MessagesProcessed     int64         `json:"messages_processed"`
	MessagesFailed        int64         `json:"messages_failed"`
	MessagesDropped       int64         `json:"messages_dropped"`
	LastProcessedAt       time.Time     `json:"last_processed_at"`
	AverageProcessingTime time.Duration `json:"average_processing_time_ns"`
	QueueDepth            int           `json:"queue_depth"`
}

// MetricsTracker provides a goroutine-safe wrapper around IngestMetrics.
type MetricsTracker struct {
	mu        sync.RWMutex
	metrics   IngestMetrics
	listeners []func(IngestMetrics)
}

// NewMetricsTracker builds a new tracker with zeroed metrics.
func NewMetricsTracker() *MetricsTracker {
	return &MetricsTracker{}
}

// Update applies a mutation in a thread-safe way.
func (t *MetricsTracker) Update(fn func(*IngestMetrics)) {
	if fn == nil {
		return
	}

	t.mu.Lock()
	fn(&t.metrics)
	snapshot := t.metrics
	listeners := t.listeners
	t.mu.Unlock()

	for _, listener := range listeners {
		listener(snapshot)
	}
}

// Snapshot returns a copy of the current metrics.
func (t *MetricsTracker) Snapshot() IngestMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metrics
}

// OnChange registers a callback invoked whenever metrics are updated.
func (t *MetricsTracker) OnChange(listener func(IngestMetrics)) {
	if listener == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, listener)
}

func (m *IngestMetrics) observe(d time.Duration) {
	m.LastProcessedAt = time.Now()
	if m.AverageProcessingTime == 0 {
		m.AverageProcessingTime = d
	} else {
		m.AverageProcessingTime = (m.AverageProcessingTime + d) / 2
	}
}
