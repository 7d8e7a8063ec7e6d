package ingestion

import (
	"context"

	"go.uber.org/zap"

	"waste-bin-monitor/internal/device/lifecycle"
	"waste-bin-monitor/internal/domain/device"
	"waste-bin-monitor/internal/domain/telemetry"
	"waste-bin-monitor/internal/metrics"
	"waste-bin-monitor/internal/notify"
	"waste-bin-monitor/internal/realtime"
	appErrors "waste-bin-monitor/pkg/errors"
)

// RecipientResolver returns the users to notify for a tenant's device.
type RecipientResolver interface {
	Resolve(ctx context.Context, tenantID string) ([]string, error)
}

// Fanout is the outbound side of the pipeline.
type Fanout interface {
	Broadcast(event string, payload any) int
	Notify(ctx context.Context, notice notify.Notice, recipients []string) (notify.Result, error)
}

// Service applies decoded device messages: it records readings, moves
// device status and fans notifications out to the device's recipients.
type Service struct {
	devices  device.Registry
	statuses device.StatusStore
	readings telemetry.Store
	resolver RecipientResolver
	fanout   Fanout
	log      *zap.Logger
}

func NewService(
	devices device.Registry,
	statuses device.StatusStore,
	readings telemetry.Store,
	resolver RecipientResolver,
	fanout Fanout,
	log *zap.Logger,
) *Service {
	return &Service{
		devices:  devices,
		statuses: statuses,
		readings: readings,
		resolver: resolver,
		fanout:   fanout,
		log:      log,
	}
}

// HandleTelemetry stores the reading, marks the device online and pushes
// the raw reading to every live session.
func (s *Service) HandleTelemetry(ctx context.Context, msg *TelemetryMessage) error {
	dev, err := s.lookup(ctx, msg.DeviceID)
	if err != nil {
		return err
	}

	reading := &telemetry.Reading{
		DeviceID:    dev.UniqueID,
		Distance:    msg.Distance,
		Gas:         msg.Gas,
		Temperature: msg.Temperature,
		Current:     msg.Current,
		Timestamp:   msg.ReceivedAt,
	}
	if err := s.readings.Append(ctx, reading); err != nil {
		return appErrors.Storage("append reading", err)
	}
	metrics.ReadingsStored.Inc()

	status := lifecycle.TelemetryStatus()
	if err := s.statuses.SetStatus(ctx, dev.UniqueID, status, msg.ReceivedAt); err != nil {
		return appErrors.Storage("set status", err)
	}
	metrics.StatusTransitions.WithLabelValues(string(status)).Inc()

	s.fanout.Broadcast(realtime.EventSensorData, msg.BroadcastPayload())
	return nil
}

// HandleEvent applies the status transition of the event kind, if any, and
// notifies every recipient of the owning tenant.
func (s *Service) HandleEvent(ctx context.Context, evt Event) error {
	h := evt.Header()

	dev, err := s.lookup(ctx, h.DeviceID)
	if err != nil {
		return err
	}

	if status, ok := lifecycle.Derive(h.Kind); ok {
		if err := s.statuses.SetStatus(ctx, dev.UniqueID, status, h.ReceivedAt); err != nil {
			return appErrors.Storage("set status", err)
		}
		metrics.StatusTransitions.WithLabelValues(string(status)).Inc()

		s.fanout.Broadcast(realtime.EventStatusUpdate, StatusUpdate{
			UniqueID: dev.UniqueID,
			Status:   status,
			LastSeen: &h.ReceivedAt,
		})
	}

	recipients, err := s.resolver.Resolve(ctx, dev.TenantID)
	if err != nil {
		return err
	}

	result, err := s.fanout.Notify(ctx, notify.Notice{
		DeviceID:   dev.UniqueID,
		DeviceName: dev.DisplayName(),
		TenantID:   dev.TenantID,
		Kind:       h.Kind,
		Message:    h.Text(),
		At:         h.ReceivedAt,
	}, recipients)

	s.log.Debug("Device event fanned out",
		zap.String("device_id", dev.UniqueID),
		zap.String("event", string(h.Kind)),
		zap.Int("recipients", len(recipients)),
		zap.Int("persisted", result.Persisted),
		zap.Int("delivered", result.Delivered),
	)
	return err
}

func (s *Service) lookup(ctx context.Context, uniqueID string) (*device.Device, error) {
	dev, err := s.devices.FindByIdentity(ctx, uniqueID)
	if err == nil {
		return dev, nil
	}
	if appErrors.Kind(err) == appErrors.CodeInternal {
		return nil, appErrors.Storage("find device", err)
	}
	return nil, err
}
