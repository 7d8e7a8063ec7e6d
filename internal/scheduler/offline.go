package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"waste-bin-monitor/internal/domain/device"
	"waste-bin-monitor/internal/ingestion"
	"waste-bin-monitor/internal/metrics"
	"waste-bin-monitor/internal/realtime"
	appErrors "waste-bin-monitor/pkg/errors"
)

// Sequencer runs fn after any work already queued for the same device.
type Sequencer interface {
	Do(identity string, fn func(ctx context.Context) error) error
}

type Broadcaster interface {
	Broadcast(event string, payload any) int
}

// OfflineSweeper marks devices offline once they have been silent for longer
// than the configured window.
type OfflineSweeper struct {
	devices device.StatusStore
	seq     Sequencer
	fanout  Broadcaster
	after   time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func NewOfflineSweeper(devices device.StatusStore, seq Sequencer, fanout Broadcaster, after time.Duration, log *zap.Logger) *OfflineSweeper {
	return &OfflineSweeper{
		devices: devices,
		seq:     seq,
		fanout:  fanout,
		after:   after,
		now:     time.Now,
		log:     log,
	}
}

// Run queues an offline transition for every stale device and returns how
// many were queued. Each transition runs on the device's ingestion worker,
// so a reading that arrives first wins.
func (s *OfflineSweeper) Run(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.after)

	stale, err := s.devices.ListStale(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Storage("list stale devices", err)
	}

	queued := 0
	for _, d := range stale {
		uniqueID, lastSeen := d.UniqueID, d.LastSeenAt
		err := s.seq.Do(uniqueID, func(ctx context.Context) error {
			changed, err := s.devices.MarkOffline(ctx, uniqueID, cutoff)
			if err != nil {
				return appErrors.Storage("mark offline", err)
			}
			if !changed {
				return nil
			}

			metrics.StatusTransitions.WithLabelValues(string(device.StatusOffline)).Inc()
			s.fanout.Broadcast(realtime.EventStatusUpdate, ingestion.StatusUpdate{
				UniqueID: uniqueID,
				Status:   device.StatusOffline,
				LastSeen: lastSeen,
			})
			s.log.Info("Device marked offline", zap.String("device_id", uniqueID))
			return nil
		})
		if err != nil {
			s.log.Warn("Failed to queue offline transition", zap.String("device_id", uniqueID), zap.Error(err))
			continue
		}
		queued++
	}

	return queued, nil
}
