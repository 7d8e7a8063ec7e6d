package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"waste-bin-monitor/internal/domain/device"
)

type memoryRedis struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return "", m.failGet
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryRedis) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memoryRedis) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryRedis) Ping(context.Context) error { return nil }
func (m *memoryRedis) Close() error              { return nil }

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) FindByIdentity(ctx context.Context, uniqueID string) (*device.Device, error) {
	args := m.Called(ctx, uniqueID)
	dev, _ := args.Get(0).(*device.Device)
	return dev, args.Error(1)
}

func TestRegistryCacheReadsThroughOnce(t *testing.T) {
	seen := time.Now()
	registry := new(MockRegistry)
	registry.On("FindByIdentity", mock.Anything, "BIN-1").
		Return(&device.Device{ID: "3", UniqueID: "BIN-1", TenantID: "7", Name: "Moda", Status: device.StatusOnline, LastSeenAt: &seen}, nil).
		Once()

	rdb := newMemoryRedis()
	c := NewRegistryCache(registry, rdb, time.Minute, zap.NewNop())

	first, err := c.FindByIdentity(context.Background(), "BIN-1")
	require.NoError(t, err)
	assert.Equal(t, device.StatusOnline, first.Status)

	second, err := c.FindByIdentity(context.Background(), "BIN-1")
	require.NoError(t, err)
	assert.Equal(t, "7", second.TenantID)
	assert.Equal(t, "Moda", second.DisplayName())
	assert.Empty(t, second.Status, "status is never served from cache")
	assert.Nil(t, second.LastSeenAt)

	assert.Equal(t, time.Minute, rdb.ttls[registryKeyPrefix+"BIN-1"])
	registry.AssertExpectations(t)
}

func TestRegistryCacheDoesNotCacheUnknownDevices(t *testing.T) {
	registry := new(MockRegistry)
	registry.On("FindByIdentity", mock.Anything, "GHOST").Return(nil, device.ErrDeviceNotFound).Twice()

	rdb := newMemoryRedis()
	c := NewRegistryCache(registry, rdb, time.Minute, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := c.FindByIdentity(context.Background(), "GHOST")
		assert.ErrorIs(t, err, device.ErrDeviceNotFound)
	}
	assert.Empty(t, rdb.data)
	registry.AssertExpectations(t)
}

func TestRegistryCacheFallsBackWhenRedisDown(t *testing.T) {
	registry := new(MockRegistry)
	registry.On("FindByIdentity", mock.Anything, "BIN-1").Return(&device.Device{UniqueID: "BIN-1"}, nil)

	rdb := newMemoryRedis()
	rdb.failGet = errors.New("dial tcp: connection refused")
	c := NewRegistryCache(registry, rdb, time.Minute, zap.NewNop())

	dev, err := c.FindByIdentity(context.Background(), "BIN-1")
	require.NoError(t, err)
	assert.Equal(t, "BIN-1", dev.UniqueID)
}

func TestRegistryCacheInvalidate(t *testing.T) {
	registry := new(MockRegistry)
	registry.On("FindByIdentity", mock.Anything, "BIN-1").Return(&device.Device{UniqueID: "BIN-1", Name: "Eski"}, nil).Once()
	registry.On("FindByIdentity", mock.Anything, "BIN-1").Return(&device.Device{UniqueID: "BIN-1", Name: "Yeni"}, nil).Once()

	c := NewRegistryCache(registry, newMemoryRedis(), time.Minute, zap.NewNop())

	dev, err := c.FindByIdentity(context.Background(), "BIN-1")
	require.NoError(t, err)
	assert.Equal(t, "Eski", dev.Name)

	require.NoError(t, c.Invalidate(context.Background(), "BIN-1"))

	dev, err = c.FindByIdentity(context.Background(), "BIN-1")
	require.NoError(t, err)
	assert.Equal(t, "Yeni", dev.Name)
}
