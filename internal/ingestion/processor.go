package ingestion

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"waste-bin-monitor/internal/metrics"
	appErrors "waste-bin-monitor/pkg/errors"
)

// TopicMaintenance labels work submitted through Do.
const TopicMaintenance Topic = "maintenance"

var (
	ErrQueueFull        = errors.New("ingestion queue full")
	ErrProcessorStopped = errors.New("processor stopped")
)

// Handler applies decoded messages.
type Handler interface {
	HandleTelemetry(ctx context.Context, msg *TelemetryMessage) error
	HandleEvent(ctx context.Context, evt Event) error
}

type job struct {
	topic Topic
	key   string
	run   func(ctx context.Context) error
}

// Processor decodes inbound payloads and runs them on a fixed set of
// workers. Work for one device identity always lands on the same worker,
// so it is applied in the order it was submitted.
type Processor struct {
	handler Handler
	timeout time.Duration
	shards  []chan job
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool

	metrics *MetricsTracker
	log     *zap.Logger
}

// NewProcessor creates a processor with workerCount shards of queueSize slots each.
func NewProcessor(handler Handler, workerCount, queueSize int, timeout time.Duration, log *zap.Logger) *Processor {
	if workerCount <= 0 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	shards := make([]chan job, workerCount)
	for i := range shards {
		shards[i] = make(chan job, queueSize)
	}

	return &Processor{
		handler: handler,
		timeout: timeout,
		shards:  shards,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		metrics: NewMetricsTracker(),
		log:     log,
	}
}

// Start starts the processor workers
func (p *Processor) Start() {
	p.log.Info("Starting processor",
		zap.Int("workers", len(p.shards)),
		zap.Int("queue_size", cap(p.shards[0])),
		zap.Duration("message_timeout", p.timeout),
	)

	for i := range p.shards {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop stops accepting work, drains the queues and waits for the workers.
func (p *Processor) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for _, shard := range p.shards {
		close(shard)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()

	p.log.Info("Processor stopped")
}

// Submit decodes a payload received on topic and queues it. The returned
// error is informational; the message has already been logged and dropped.
func (p *Processor) Submit(topic Topic, payload []byte) error {
	receivedAt := p.now()

	var j job
	switch topic {
	case TopicTelemetry:
		msg, err := ParseTelemetry(payload, receivedAt)
		if err != nil {
			return p.reject(topic, err)
		}
		j = job{topic: topic, key: msg.DeviceID, run: func(ctx context.Context) error {
			return p.handler.HandleTelemetry(ctx, msg)
		}}
	case TopicEvent:
		evt, err := ParseEvent(payload, receivedAt)
		if err != nil {
			return p.reject(topic, err)
		}
		j = job{topic: topic, key: evt.Header().DeviceID, run: func(ctx context.Context) error {
			return p.handler.HandleEvent(ctx, evt)
		}}
	default:
		return p.reject(topic, appErrors.NewAppError(appErrors.CodeUnknownTopic, fmt.Sprintf("unknown topic %q", topic), appErrors.ErrUnknownTopic))
	}

	return p.enqueue(j)
}

// Do runs fn on the worker that owns identity, after any work already
// queued for it.
func (p *Processor) Do(identity string, fn func(ctx context.Context) error) error {
	return p.enqueue(job{topic: TopicMaintenance, key: identity, run: fn})
}

// GetMetrics returns current metrics
func (p *Processor) GetMetrics() IngestMetrics {
	snapshot := p.metrics.Snapshot()
	snapshot.QueueDepth = p.queueDepth()
	return snapshot
}

// OnMetrics registers a listener for metric updates.
func (p *Processor) OnMetrics(listener func(IngestMetrics)) {
	p.metrics.OnChange(listener)
}

func (p *Processor) enqueue(j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrProcessorStopped
	}

	select {
	case p.shards[p.shardFor(j.key)] <- j:
		metrics.MessagesReceived.WithLabelValues(string(j.topic)).Inc()
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesReceived++
		})
		return nil
	default:
		p.log.Warn("Ingestion queue full, dropping message",
			zap.String("topic", string(j.topic)),
			zap.String("device_id", j.key),
		)
		metrics.MessagesFailed.WithLabelValues(string(j.topic), "QUEUE_FULL").Inc()
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesDropped++
		})
		return ErrQueueFull
	}
}

func (p *Processor) reject(topic Topic, err error) error {
	kind := appErrors.Kind(err)
	p.log.Warn("Dropping inbound message",
		zap.String("topic", string(topic)),
		zap.String("error_kind", kind),
		zap.Error(err),
	)
	metrics.MessagesFailed.WithLabelValues(string(topic), kind).Inc()
	p.metrics.Update(func(m *IngestMetrics) {
		m.MessagesDropped++
	})
	return err
}

func (p *Processor) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(p.shards)))
}

func (p *Processor) queueDepth() int {
	depth := 0
	for _, shard := range p.shards {
		depth += len(shard)
	}
	return depth
}

// worker processes the jobs of one shard until it is closed.
func (p *Processor) worker(id int) {
	defer p.wg.Done()

	for j := range p.shards[id] {
		p.process(id, j)
	}
}

func (p *Processor) process(worker int, j job) {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := p.safeRun(ctx, j)
	elapsed := time.Since(start)

	metrics.ProcessingDuration.WithLabelValues(string(j.topic)).Observe(elapsed.Seconds())

	if err != nil {
		kind := appErrors.Kind(err)
		fields := []zap.Field{
			zap.Int("worker", worker),
			zap.String("topic", string(j.topic)),
			zap.String("device_id", j.key),
			zap.String("error_kind", kind),
			zap.Error(err),
		}
		if kind == appErrors.CodeUnknownDevice {
			p.log.Warn("Message for unknown device dropped", fields...)
		} else {
			p.log.Error("Failed to process message", fields...)
		}

		metrics.MessagesFailed.WithLabelValues(string(j.topic), kind).Inc()
		p.metrics.Update(func(m *IngestMetrics) {
			m.MessagesFailed++
		})
		return
	}

	metrics.MessagesProcessed.WithLabelValues(string(j.topic)).Inc()
	p.metrics.Update(func(m *IngestMetrics) {
		m.MessagesProcessed++
		m.observe(elapsed)
	})
}

func (p *Processor) safeRun(ctx context.Context, j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = appErrors.NewAppError(appErrors.CodeInternal, "panic in handler", fmt.Errorf("%v", r))
		}
	}()
	return j.run(ctx)
}
