package ingestion

import (
	"encoding/json"
	"time"

	"waste-bin-monitor/internal/domain/device"
	appErrors "waste-bin-monitor/pkg/errors"
	"waste-bin-monitor/pkg/utils"
)

const maxMessageRunes = 255

// Topic is the logical inbound channel a payload arrived on.
type Topic string

const (
	TopicTelemetry Topic = "telemetry"
	TopicEvent     Topic = "event"
)

// TelemetryMessage represents one sensor reading published by a bin
type TelemetryMessage struct {
	DeviceID    string    `json:"id" validate:"required,max=64"`
	Distance    int       `json:"distance"`
	Gas         int       `json:"gas"`
	Temperature float64   `json:"temperature"`
	Current     int       `json:"current"`
	ReceivedAt  time.Time `json:"-"`

	raw map[string]any
}

// BroadcastPayload is the raw reading as published, with the device identity
// and receipt time added.
func (m *TelemetryMessage) BroadcastPayload() map[string]any {
	out := make(map[string]any, len(m.raw)+2)
	for k, v := range m.raw {
		out[k] = v
	}
	out["device_id"] = m.DeviceID
	out["timestamp"] = m.ReceivedAt
	return out
}

// Event is a decoded device-event message. The concrete type is chosen by
// the event kind; see ParseEvent.
type Event interface {
	Header() *EventHeader
}

// EventHeader holds the fields every device event carries.
type EventHeader struct {
	DeviceID   string           `json:"id" validate:"required,max=64"`
	Kind       device.EventKind `json:"event" validate:"required,event_kind"`
	Message    *string          `json:"message"`
	Flag       *bool            `json:"flag"`
	ReceivedAt time.Time        `json:"-"`
}

func (h *EventHeader) Header() *EventHeader {
	return h
}

// Text is the explicit message when the device sent a usable one, otherwise
// the default text of the kind.
func (h *EventHeader) Text() string {
	if h.Message != nil {
		if text := utils.SanitizeText(*h.Message, maxMessageRunes); text != "" {
			return text
		}
	}
	return h.Kind.DefaultMessage()
}

// FillEvent: full, empty
type FillEvent struct {
	EventHeader
	Full bool
}

// PressEvent: press_active, press_stop
type PressEvent struct {
	EventHeader
	Running bool
}

// GasEvent: gas_alert, gas_ok
type GasEvent struct {
	EventHeader
	Alarm bool
}

// OpeningEvent: door_open, door_close, window_open, window_close
type OpeningEvent struct {
	EventHeader
	Opening string // "door" or "window"
	Open    bool
}

// StatusUpdate is the body of a device-status-update broadcast.
type StatusUpdate struct {
	UniqueID string        `json:"unique_id"`
	Status   device.Status `json:"status"`
	LastSeen *time.Time    `json:"last_seen,omitempty"`
}

// ParseTelemetry decodes and validates a telemetry payload.
func ParseTelemetry(payload []byte, receivedAt time.Time) (*TelemetryMessage, error) {
	var msg TelemetryMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, appErrors.Malformed("decode telemetry", err)
	}
	if err := json.Unmarshal(payload, &msg.raw); err != nil {
		return nil, appErrors.Malformed("decode telemetry", err)
	}
	if err := ValidateStruct(&msg); err != nil {
		return nil, appErrors.Malformed("validate telemetry", err)
	}

	msg.ReceivedAt = receivedAt
	return &msg, nil
}

// ParseEvent decodes a device-event payload into the variant for its kind.
// Payloads that do not name a known kind are rejected.
func ParseEvent(payload []byte, receivedAt time.Time) (Event, error) {
	var h EventHeader
	if err := json.Unmarshal(payload, &h); err != nil {
		return nil, appErrors.Malformed("decode event", err)
	}
	if err := ValidateStruct(&h); err != nil {
		return nil, appErrors.Malformed("validate event", err)
	}
	h.ReceivedAt = receivedAt

	switch h.Kind {
	case device.EventFull, device.EventEmpty:
		return &FillEvent{EventHeader: h, Full: h.Kind == device.EventFull}, nil
	case device.EventPressActive, device.EventPressStop:
		return &PressEvent{EventHeader: h, Running: h.Kind == device.EventPressActive}, nil
	case device.EventGasAlert, device.EventGasOK:
		return &GasEvent{EventHeader: h, Alarm: h.Kind == device.EventGasAlert}, nil
	case device.EventDoorOpen, device.EventDoorClose:
		return &OpeningEvent{EventHeader: h, Opening: "door", Open: h.Kind == device.EventDoorOpen}, nil
	case device.EventWindowOpen, device.EventWindowClose:
		return &OpeningEvent{EventHeader: h, Opening: "window", Open: h.Kind == device.EventWindowOpen}, nil
	default:
		return nil, appErrors.Malformed("unknown event kind "+string(h.Kind), nil)
	}
}
