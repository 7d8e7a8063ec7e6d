package notification

import (
	"context"
	"time"
)

// Notification is the durable per-recipient record of a device event.
type Notification struct {
	ID        string
	UserID    string
	Message   string
	DeviceID  string // unique_id of the originating device
	IsRead    bool
	CreatedAt time.Time
}

type Store interface {
	// Insert persists n and fills in its ID.
	Insert(ctx context.Context, n *Notification) error
}
