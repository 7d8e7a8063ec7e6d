package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waste-bin-monitor/internal/domain/device"
	appErrors "waste-bin-monitor/pkg/errors"
)

var receivedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestParseTelemetry(t *testing.T) {
	msg, err := ParseTelemetry([]byte(`{"id":"BIN-7","distance":42,"gas":310,"temperature":21.5,"current":3,"battery":88}`), receivedAt)
	require.NoError(t, err)

	assert.Equal(t, "BIN-7", msg.DeviceID)
	assert.Equal(t, 42, msg.Distance)
	assert.Equal(t, 310, msg.Gas)
	assert.Equal(t, 21.5, msg.Temperature)
	assert.Equal(t, 3, msg.Current)
	assert.Equal(t, receivedAt, msg.ReceivedAt)

	payload := msg.BroadcastPayload()
	assert.Equal(t, "BIN-7", payload["device_id"])
	assert.Equal(t, float64(88), payload["battery"], "unknown fields are passed through")
	assert.Equal(t, receivedAt, payload["timestamp"])
}

func TestParseTelemetryRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"not json":    `{"id":`,
		"no identity": `{"distance":10}`,
		"empty id":    `{"id":"","distance":10}`,
		"wrong type":  `{"id":"BIN-1","distance":"far"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTelemetry([]byte(payload), receivedAt)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrMalformedMessage)
			assert.Equal(t, appErrors.CodeMalformedMessage, appErrors.Kind(err))
		})
	}
}

func TestParseEventVariants(t *testing.T) {
	evt, err := ParseEvent([]byte(`{"id":"BIN-1","event":"full"}`), receivedAt)
	require.NoError(t, err)
	fill, ok := evt.(*FillEvent)
	require.True(t, ok)
	assert.True(t, fill.Full)
	assert.Equal(t, receivedAt, fill.ReceivedAt)

	evt, err = ParseEvent([]byte(`{"id":"BIN-1","event":"gas_ok"}`), receivedAt)
	require.NoError(t, err)
	gas, ok := evt.(*GasEvent)
	require.True(t, ok)
	assert.False(t, gas.Alarm)

	evt, err = ParseEvent([]byte(`{"id":"BIN-1","event":"press_active","flag":true}`), receivedAt)
	require.NoError(t, err)
	press, ok := evt.(*PressEvent)
	require.True(t, ok)
	assert.True(t, press.Running)
	require.NotNil(t, press.Flag)
	assert.True(t, *press.Flag)

	evt, err = ParseEvent([]byte(`{"id":"BIN-1","event":"window_open"}`), receivedAt)
	require.NoError(t, err)
	opening, ok := evt.(*OpeningEvent)
	require.True(t, ok)
	assert.Equal(t, "window", opening.Opening)
	assert.True(t, opening.Open)
}

func TestParseEventRejectsMissingOrUnknownKind(t *testing.T) {
	for _, payload := range []string{
		`{"id":"BIN-1"}`,
		`{"id":"BIN-1","event":""}`,
		`{"id":"BIN-1","event":"exploded"}`,
		`{"event":"full"}`,
		`[]`,
	} {
		_, err := ParseEvent([]byte(payload), receivedAt)
		assert.ErrorIs(t, err, appErrors.ErrMalformedMessage, payload)
	}
}

func TestEventText(t *testing.T) {
	explicit := "Konteyner 3 dolu"
	empty := ""

	h := EventHeader{Kind: device.EventFull, Message: &explicit}
	assert.Equal(t, explicit, h.Text())

	h.Message = &empty
	assert.Equal(t, device.EventFull.DefaultMessage(), h.Text())

	markup := "  <b></b> "
	h.Message = &markup
	assert.Equal(t, device.EventFull.DefaultMessage(), h.Text())

	h.Message = nil
	assert.Equal(t, "Çöp kutusu dolu", h.Text())
}
