package device

import (
	"time"
)

// Device is a registered waste-bin sensor unit.
type Device struct {
	ID         string
	UniqueID   string // identity the unit reports in its messages
	TenantID   string // empty when the device is not assigned to a tenant
	Name       string
	Status     Status
	LastSeenAt *time.Time
	Latitude   *float64
	Longitude  *float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Status represents the operational status of a device
type Status string

const (
	StatusOnline       Status = "online"
	StatusOffline      Status = "offline"
	StatusOutOfService Status = "out_of_service"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusOnline, StatusOffline, StatusOutOfService:
		return true
	}
	return false
}

// DisplayName falls back to the identity when the device has no name.
func (d *Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.UniqueID
}
