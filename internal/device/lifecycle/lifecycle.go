package lifecycle

import (
	"waste-bin-monitor/internal/domain/device"
)

// Status produced by each event kind. Kinds absent from the table leave the
// status unchanged; door, window and press events only carry a message.
var transitions = map[device.EventKind]device.Status{
	device.EventFull:     device.StatusOutOfService,
	device.EventGasAlert: device.StatusOutOfService,
	device.EventEmpty:    device.StatusOnline,
	device.EventGasOK:    device.StatusOnline,
}

// Derive maps an event kind to the status it sets. ok is false when the event
// does not change the status.
func Derive(kind device.EventKind) (status device.Status, ok bool) {
	status, ok = transitions[kind]
	return status, ok
}

// TelemetryStatus is the status every accepted reading sets.
func TelemetryStatus() device.Status {
	return device.StatusOnline
}
