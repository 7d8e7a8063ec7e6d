package telemetry

import (
	"context"
	"time"
)

// Reading is one accepted telemetry sample. Readings are append-only.
type Reading struct {
	DeviceID    string
	Distance    int
	Gas         int
	Temperature float64
	Current     int
	Timestamp   time.Time
}

type Store interface {
	Append(ctx context.Context, reading *Reading) error
}
