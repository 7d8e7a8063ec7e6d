package ingestion

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	pkgmqtt "waste-bin-monitor/pkg/mqtt"
)

// MQTTSourceConfig describes the topics and MQTT connection parameters.
type MQTTSourceConfig struct {
	ClientConfig   *pkgmqtt.Config
	TelemetryTopic string
	EventTopic     string
	QoS            byte
}

// MQTTSource wires broker messages into the processor.
type MQTTSource struct {
	cfg       *MQTTSourceConfig
	client    *pkgmqtt.Client
	processor *Processor
	log       *zap.Logger

	mu            sync.Mutex
	started       atomic.Bool
	subscriptions map[string]Topic
}

// NewMQTTSource builds a new MQTT source for ingestion.
func NewMQTTSource(cfg *MQTTSourceConfig, processor *Processor, log *zap.Logger) (*MQTTSource, error) {
	if cfg == nil || cfg.ClientConfig == nil {
		return nil, errors.New("mqtt ingestion config is not configured")
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}

	subs := map[string]Topic{}
	if cfg.TelemetryTopic != "" {
		subs[cfg.TelemetryTopic] = TopicTelemetry
	}
	if cfg.EventTopic != "" {
		subs[cfg.EventTopic] = TopicEvent
	}
	if len(subs) == 0 {
		return nil, errors.New("no MQTT topics configured for ingestion")
	}

	s := &MQTTSource{
		cfg:           cfg,
		processor:     processor,
		log:           log,
		subscriptions: subs,
	}
	s.client = pkgmqtt.NewClient(cfg.ClientConfig, log, s.resubscribe)
	return s, nil
}

// Start establishes the MQTT connection and subscribes to the topics.
func (s *MQTTSource) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.Load() {
		return nil
	}

	if err := s.client.Connect(); err != nil {
		return err
	}
	if err := s.subscribeAll(); err != nil {
		s.client.Disconnect()
		return err
	}

	s.started.Store(true)
	return nil
}

// Stop unsubscribes and disconnects from the broker.
func (s *MQTTSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started.Load() {
		return
	}

	topics := make([]string, 0, len(s.subscriptions))
	for topic := range s.subscriptions {
		topics = append(topics, topic)
	}
	if err := s.client.Unsubscribe(topics...); err != nil {
		s.log.Warn("Failed to unsubscribe from MQTT topics", zap.Error(err))
	}

	s.started.Store(false)
	s.client.Disconnect()
}

func (s *MQTTSource) subscribeAll() error {
	for topic := range s.subscriptions {
		if err := s.client.Subscribe(topic, s.cfg.QoS, s.handleMessage); err != nil {
			return fmt.Errorf("subscribe failed for topic %s: %w", topic, err)
		}
	}
	return nil
}

// resubscribe restores subscriptions after an automatic reconnect. The
// first connect is handled by Start.
func (s *MQTTSource) resubscribe() {
	if !s.started.Load() {
		return
	}
	if err := s.subscribeAll(); err != nil {
		s.log.Error("Failed to restore MQTT subscriptions", zap.Error(err))
	}
}

// handleMessage maps the broker topic onto the logical topic and hands the
// payload to the processor.
func (s *MQTTSource) handleMessage(topic string, payload []byte) {
	logical, ok := s.subscriptions[topic]
	if !ok {
		logical = Topic(topic)
	}
	_ = s.processor.Submit(logical, payload)
}
