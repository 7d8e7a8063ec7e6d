package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"waste-bin-monitor/internal/domain/device"
	"waste-bin-monitor/internal/domain/notification"
	"waste-bin-monitor/internal/metrics"
	"waste-bin-monitor/internal/realtime"
	appErrors "waste-bin-monitor/pkg/errors"
)

// LiveSessions is the part of the session hub the dispatcher pushes through.
type LiveSessions interface {
	Broadcast(frame []byte) int
	SendToUser(userID string, frame []byte) int
}

// Notice describes one device event to fan out.
type Notice struct {
	DeviceID   string
	DeviceName string
	TenantID   string
	Kind       device.EventKind
	Message    string
	At         time.Time
}

// Payload is the body of a notification frame.
type Payload struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	Message    string           `json:"message"`
	DeviceID   string           `json:"device_id"`
	DeviceName string           `json:"device_name"`
	TenantID   string           `json:"client_id,omitempty"`
	Event      device.EventKind `json:"event"`
	IsRead     bool             `json:"is_read"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Result summarizes one Notify call.
type Result struct {
	Persisted int
	Delivered int      // frames accepted by live sessions
	Failed    []string // recipients whose row could not be stored
}

// Dispatcher owns both delivery paths: the unscoped broadcast and the
// persisted, recipient-scoped notification path.
type Dispatcher struct {
	store notification.Store
	live  LiveSessions
	log   *zap.Logger
}

func NewDispatcher(store notification.Store, live LiveSessions, log *zap.Logger) *Dispatcher {
	return &Dispatcher{store: store, live: live, log: log}
}

// Broadcast pushes an ephemeral frame to every connected session.
func (d *Dispatcher) Broadcast(event string, payload any) int {
	frame, err := realtime.Encode(event, payload)
	if err != nil {
		d.log.Error("Failed to encode broadcast frame", zap.String("event", event), zap.Error(err))
		return 0
	}

	n := d.live.Broadcast(frame)
	metrics.LiveDeliveries.WithLabelValues("broadcast").Add(float64(n))
	return n
}

// Notify stores one notification per recipient and then pushes it to the
// recipient's live sessions. Every row is written before any push; a
// recipient whose row failed is not pushed to. A storage failure for one
// recipient does not stop the others.
func (d *Dispatcher) Notify(ctx context.Context, notice Notice, recipients []string) (Result, error) {
	var result Result
	if notice.At.IsZero() {
		notice.At = time.Now()
	}

	stored := make([]*notification.Notification, 0, len(recipients))
	var errs []error
	for _, userID := range recipients {
		n := &notification.Notification{
			UserID:    userID,
			Message:   notice.Message,
			DeviceID:  notice.DeviceID,
			CreatedAt: notice.At,
		}
		if err := d.store.Insert(ctx, n); err != nil {
			d.log.Error("Failed to store notification",
				zap.String("user_id", userID),
				zap.String("device_id", notice.DeviceID),
				zap.Error(err),
			)
			result.Failed = append(result.Failed, userID)
			errs = append(errs, err)
			continue
		}
		stored = append(stored, n)
	}
	result.Persisted = len(stored)
	metrics.NotificationsPersisted.Add(float64(len(stored)))

	for _, n := range stored {
		frame, err := realtime.Encode(realtime.EventNotification, Payload{
			ID:         n.ID,
			UserID:     n.UserID,
			Message:    n.Message,
			DeviceID:   notice.DeviceID,
			DeviceName: notice.DeviceName,
			TenantID:   notice.TenantID,
			Event:      notice.Kind,
			IsRead:     false,
			CreatedAt:  n.CreatedAt,
		})
		if err != nil {
			d.log.Error("Failed to encode notification frame", zap.Error(err))
			continue
		}
		result.Delivered += d.live.SendToUser(n.UserID, frame)
	}
	metrics.LiveDeliveries.WithLabelValues("notification").Add(float64(result.Delivered))

	if len(errs) > 0 {
		return result, appErrors.Storage("insert notifications", errors.Join(errs...))
	}
	return result, nil
}
