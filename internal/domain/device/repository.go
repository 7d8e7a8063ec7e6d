package device

import (
	"context"
	"time"
)

// Registry resolves the identity a unit reports into its durable record.
// Implementations return ErrDeviceNotFound for identities that are not registered.
type Registry interface {
	FindByIdentity(ctx context.Context, uniqueID string) (*Device, error)
}

// StatusStore owns the mutable status and last-seen columns.
type StatusStore interface {
	SetStatus(ctx context.Context, uniqueID string, status Status, seenAt time.Time) error
	// ListStale returns devices not seen since the cutoff that are not already offline.
	ListStale(ctx context.Context, cutoff time.Time) ([]*Device, error)
	// MarkOffline sets the device offline unless it has been seen since the
	// cutoff, leaving last-seen untouched. It reports whether a row changed.
	MarkOffline(ctx context.Context, uniqueID string, cutoff time.Time) (bool, error)
}

// Repository is the full device persistence contract.
type Repository interface {
	Registry
	StatusStore
}
