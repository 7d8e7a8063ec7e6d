package realtime

import (
	"encoding/json"
	"errors"
	"strconv"
)

// Outbound event names understood by the dashboard.
const (
	EventSensorData   = "sensor-data"
	EventStatusUpdate = "device-status-update"
	EventNotification = "notification"

	EventRegistered = "registered"
	EventError      = "error"
)

// Inbound event names.
const (
	EventRegister   = "register"
	EventUnregister = "unregister"
)

// Frame is the envelope of every websocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode builds a wire frame for event with data as payload.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

type registerRequest struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

func parseRegister(data json.RawMessage) (registerRequest, error) {
	var req registerRequest
	if len(data) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(data, &req); err == nil {
		return req, nil
	}

	// Older dashboards send the bare user id as the payload.
	var bare any
	if err := json.Unmarshal(data, &bare); err != nil {
		return req, err
	}
	switch v := bare.(type) {
	case string:
		req.UserID = v
	case float64:
		req.UserID = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return req, errors.New("unsupported register payload")
	}
	return req, nil
}
