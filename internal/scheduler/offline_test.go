package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"waste-bin-monitor/internal/domain/device"
	"waste-bin-monitor/internal/ingestion"
	"waste-bin-monitor/internal/realtime"
	appErrors "waste-bin-monitor/pkg/errors"
)

type fakeStore struct {
	stale   []*device.Device
	listErr error
	online  map[string]bool // devices that reported after the listing
	marked  []string
	cutoffs []time.Time
}

func (f *fakeStore) SetStatus(context.Context, string, device.Status, time.Time) error { return nil }

func (f *fakeStore) ListStale(_ context.Context, cutoff time.Time) ([]*device.Device, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.stale, f.listErr
}

func (f *fakeStore) MarkOffline(_ context.Context, uniqueID string, cutoff time.Time) (bool, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.online[uniqueID] {
		return false, nil
	}
	f.marked = append(f.marked, uniqueID)
	return true, nil
}

// inlineSequencer runs work immediately unless the identity is refused.
type inlineSequencer struct {
	refuse map[string]bool
}

func (s inlineSequencer) Do(identity string, fn func(ctx context.Context) error) error {
	if s.refuse[identity] {
		return ingestion.ErrQueueFull
	}
	return fn(context.Background())
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
	bodies []any
}

func (b *recordingBroadcaster) Broadcast(event string, payload any) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	b.bodies = append(b.bodies, payload)
	return 0
}

func TestOfflineSweepMarksStaleDevices(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seen := now.Add(-20 * time.Minute)
	store := &fakeStore{
		stale: []*device.Device{
			{UniqueID: "BIN-1", LastSeenAt: &seen},
			{UniqueID: "BIN-2"},
		},
	}
	fanout := &recordingBroadcaster{}
	s := NewOfflineSweeper(store, inlineSequencer{}, fanout, 10*time.Minute, zap.NewNop())
	s.now = func() time.Time { return now }

	queued, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, queued)
	assert.Equal(t, []string{"BIN-1", "BIN-2"}, store.marked)

	for _, c := range store.cutoffs {
		assert.Equal(t, now.Add(-10*time.Minute), c)
	}

	require.Len(t, fanout.bodies, 2)
	assert.Equal(t, []string{realtime.EventStatusUpdate, realtime.EventStatusUpdate}, fanout.events)
	assert.Equal(t, ingestion.StatusUpdate{UniqueID: "BIN-1", Status: device.StatusOffline, LastSeen: &seen}, fanout.bodies[0])
}

func TestOfflineSweepSkipsDevicesThatReportedMeanwhile(t *testing.T) {
	store := &fakeStore{
		stale:  []*device.Device{{UniqueID: "BIN-1"}, {UniqueID: "BIN-2"}},
		online: map[string]bool{"BIN-1": true},
	}
	fanout := &recordingBroadcaster{}
	s := NewOfflineSweeper(store, inlineSequencer{}, fanout, time.Minute, zap.NewNop())

	_, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BIN-2"}, store.marked)
	assert.Len(t, fanout.events, 1)
}

func TestOfflineSweepContinuesWhenQueueRefuses(t *testing.T) {
	store := &fakeStore{stale: []*device.Device{{UniqueID: "BIN-1"}, {UniqueID: "BIN-2"}}}
	s := NewOfflineSweeper(store, inlineSequencer{refuse: map[string]bool{"BIN-1": true}}, &recordingBroadcaster{}, time.Minute, zap.NewNop())

	queued, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
	assert.Equal(t, []string{"BIN-2"}, store.marked)
}

func TestOfflineSweepListFailure(t *testing.T) {
	store := &fakeStore{listErr: errors.New("timeout")}
	s := NewOfflineSweeper(store, inlineSequencer{}, &recordingBroadcaster{}, time.Minute, zap.NewNop())

	_, err := s.Run(context.Background())
	assert.Equal(t, appErrors.CodeStorageFailure, appErrors.Kind(err))
}

func TestOfflineSweepThroughProcessor(t *testing.T) {
	store := &fakeStore{stale: []*device.Device{{UniqueID: "BIN-1"}}}
	p := ingestion.NewProcessor(nil, 2, 8, time.Second, zap.NewNop())
	s := NewOfflineSweeper(store, p, &recordingBroadcaster{}, time.Minute, zap.NewNop())

	queued, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	p.Start()
	p.Stop()
	assert.Equal(t, []string{"BIN-1"}, store.marked)
}
