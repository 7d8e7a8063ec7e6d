package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

// NATSSourceConfig describes the JetStream stream and durable consumer the
// source reads from.
type NATSSourceConfig struct {
	URL              string
	Stream           string
	Consumer         string
	TelemetrySubject string
	EventSubject     string
	AckWait          time.Duration
}

// NATSSource consumes device messages bridged onto JetStream.
type NATSSource struct {
	cfg       NATSSourceConfig
	processor *Processor
	log       *zap.Logger

	nc          *nats.Conn
	consumerCtx jetstream.ConsumeContext
}

func NewNATSSource(cfg NATSSourceConfig, processor *Processor, log *zap.Logger) (*NATSSource, error) {
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	if cfg.TelemetrySubject == "" && cfg.EventSubject == "" {
		return nil, errors.New("no NATS subjects configured for ingestion")
	}
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	return &NATSSource{cfg: cfg, processor: processor, log: log}, nil
}

// Start connects, ensures the stream and durable consumer exist and begins
// consuming.
func (s *NATSSource) Start(ctx context.Context) error {
	nc, err := nats.Connect(s.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return err
	}

	subjects := s.subjects()

	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := js.CreateOrUpdateStream(setupCtx, jetstream.StreamConfig{
		Name:      s.cfg.Stream,
		Retention: jetstream.WorkQueuePolicy,
		Subjects:  subjects,
	}); err != nil {
		nc.Close()
		return fmt.Errorf("failed to ensure stream %s: %w", s.cfg.Stream, err)
	}

	consumer, err := js.CreateOrUpdateConsumer(setupCtx, s.cfg.Stream, jetstream.ConsumerConfig{
		Name:           s.cfg.Consumer,
		Durable:        s.cfg.Consumer,
		AckPolicy:      jetstream.AckExplicitPolicy,
		FilterSubjects: subjects,
		AckWait:        s.cfg.AckWait,
	})
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to ensure consumer %s: %w", s.cfg.Consumer, err)
	}

	consumerCtx, err := consumer.Consume(s.handleMessage)
	if err != nil {
		nc.Close()
		return err
	}

	s.nc = nc
	s.consumerCtx = consumerCtx
	s.log.Info("Consuming device messages from NATS",
		zap.String("stream", s.cfg.Stream),
		zap.Strings("subjects", subjects),
	)
	return nil
}

// Stop stops consuming and drains the connection.
func (s *NATSSource) Stop() {
	if s.consumerCtx != nil {
		s.consumerCtx.Stop()
	}
	if s.nc != nil {
		if err := s.nc.Drain(); err != nil {
			s.nc.Close()
		}
	}
}

func (s *NATSSource) subjects() []string {
	var out []string
	if s.cfg.TelemetrySubject != "" {
		out = append(out, s.cfg.TelemetrySubject)
	}
	if s.cfg.EventSubject != "" {
		out = append(out, s.cfg.EventSubject)
	}
	return out
}

func (s *NATSSource) topicFor(subject string) Topic {
	switch subject {
	case s.cfg.TelemetrySubject:
		return TopicTelemetry
	case s.cfg.EventSubject:
		return TopicEvent
	default:
		return Topic(subject)
	}
}

// handleMessage acks every message once it has been handed off; failed
// messages are not redelivered.
func (s *NATSSource) handleMessage(msg jetstream.Msg) {
	_ = s.processor.Submit(s.topicFor(msg.Subject()), msg.Data())

	if err := msg.Ack(); err != nil {
		s.log.Warn("Failed to ack NATS message", zap.String("subject", msg.Subject()), zap.Error(err))
	}
}
