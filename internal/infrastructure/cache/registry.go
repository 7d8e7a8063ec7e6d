package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"waste-bin-monitor/internal/domain/device"
)

const registryKeyPrefix = "binmon:device:"

// cachedDevice holds the registry fields that do not change with traffic.
// Status and last-seen are always read from the store.
type cachedDevice struct {
	ID        string   `json:"id"`
	UniqueID  string   `json:"unique_id"`
	TenantID  string   `json:"tenant_id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// RegistryCache is a read-through cache in front of a device.Registry.
// Unknown identities are not cached so a newly registered device is seen
// on its next message.
type RegistryCache struct {
	next   device.Registry
	client RedisClient
	ttl    time.Duration
	log    *zap.Logger
}

func NewRegistryCache(next device.Registry, client RedisClient, ttl time.Duration, log *zap.Logger) *RegistryCache {
	return &RegistryCache{next: next, client: client, ttl: ttl, log: log}
}

var _ device.Registry = (*RegistryCache)(nil)

func (c *RegistryCache) FindByIdentity(ctx context.Context, uniqueID string) (*device.Device, error) {
	key := registryKeyPrefix + uniqueID

	raw, err := c.client.Get(ctx, key)
	switch {
	case err == nil:
		var cached cachedDevice
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return cached.toDevice(), nil
		}
		c.log.Warn("Discarding unreadable cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("Device cache unavailable, reading through", zap.String("device_id", uniqueID), zap.Error(err))
	}

	dev, err := c.next.FindByIdentity(ctx, uniqueID)
	if err != nil {
		return nil, err
	}

	if payload, jsonErr := json.Marshal(fromDevice(dev)); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, string(payload), c.ttl); setErr != nil {
			c.log.Debug("Failed to cache device", zap.String("device_id", uniqueID), zap.Error(setErr))
		}
	}
	return dev, nil
}

// Invalidate drops the cached entry for a device.
func (c *RegistryCache) Invalidate(ctx context.Context, uniqueID string) error {
	return c.client.Delete(ctx, registryKeyPrefix+uniqueID)
}

func fromDevice(d *device.Device) cachedDevice {
	return cachedDevice{
		ID:        d.ID,
		UniqueID:  d.UniqueID,
		TenantID:  d.TenantID,
		Name:      d.Name,
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
	}
}

func (c cachedDevice) toDevice() *device.Device {
	return &device.Device{
		ID:        c.ID,
		UniqueID:  c.UniqueID,
		TenantID:  c.TenantID,
		Name:      c.Name,
		Latitude:  c.Latitude,
		Longitude: c.Longitude,
	}
}
