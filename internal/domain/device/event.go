package device

// EventKind classifies a device-event message.
type EventKind string

const (
	EventFull        EventKind = "full"
	EventEmpty       EventKind = "empty"
	EventPressActive EventKind = "press_active"
	EventPressStop   EventKind = "press_stop"
	EventGasAlert    EventKind = "gas_alert"
	EventGasOK       EventKind = "gas_ok"
	EventDoorOpen    EventKind = "door_open"
	EventDoorClose   EventKind = "door_close"
	EventWindowOpen  EventKind = "window_open"
	EventWindowClose EventKind = "window_close"
)

// Default notification texts, in the language of the operators.
var defaultMessages = map[EventKind]string{
	EventFull:        "Çöp kutusu dolu",
	EventEmpty:       "Çöp kutusu boşaltıldı",
	EventPressActive: "Pres çalışıyor",
	EventPressStop:   "Pres durdu",
	EventGasAlert:    "Yüksek gaz seviyesi algılandı",
	EventGasOK:       "Gaz seviyesi normale döndü",
	EventDoorOpen:    "Kapı açıldı",
	EventDoorClose:   "Kapı kapandı",
	EventWindowOpen:  "Kapak açıldı",
	EventWindowClose: "Kapak kapandı",
}

// EventKinds lists every kind a device may report.
func EventKinds() []EventKind {
	return []EventKind{
		EventFull, EventEmpty,
		EventPressActive, EventPressStop,
		EventGasAlert, EventGasOK,
		EventDoorOpen, EventDoorClose,
		EventWindowOpen, EventWindowClose,
	}
}

func (k EventKind) IsKnown() bool {
	_, ok := defaultMessages[k]
	return ok
}

// DefaultMessage returns the fixed text used when the device sends none.
func (k EventKind) DefaultMessage() string {
	return defaultMessages[k]
}
