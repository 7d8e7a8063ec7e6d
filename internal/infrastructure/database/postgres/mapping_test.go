package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainDevice "waste-bin-monitor/internal/domain/device"
	"waste-bin-monitor/internal/domain/notification"
	"waste-bin-monitor/internal/infrastructure/database/postgres/models"
)

func TestToDeviceEntity(t *testing.T) {
	seen := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	lat, lng := 40.99, 29.02
	client := uint(7)

	d := toDeviceEntity(&models.DeviceModel{
		ID:        12,
		UniqueID:  "K7-0003",
		Name:      "Moda Sahil",
		ClientID:  &client,
		Status:    "out_of_service",
		LastSeen:  &seen,
		Latitude:  &lat,
		Longitude: &lng,
	})

	assert.Equal(t, "12", d.ID)
	assert.Equal(t, "K7-0003", d.UniqueID)
	assert.Equal(t, "7", d.TenantID)
	assert.Equal(t, domainDevice.StatusOutOfService, d.Status)
	assert.Equal(t, &seen, d.LastSeenAt)
	assert.Equal(t, "Moda Sahil", d.DisplayName())
}

func TestToDeviceEntityWithoutTenant(t *testing.T) {
	d := toDeviceEntity(&models.DeviceModel{ID: 1, UniqueID: "X-1", Status: "offline"})
	assert.Empty(t, d.TenantID)
	assert.Nil(t, d.LastSeenAt)
}

func TestToNotificationModel(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	m, err := toNotificationModel(&notification.Notification{
		UserID:    "42",
		Message:   "Çöp kutusu dolu",
		DeviceID:  "K7-0003",
		CreatedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, uint(42), m.UserID)
	assert.Equal(t, "K7-0003", m.DeviceID)
	assert.False(t, m.IsRead)
	assert.Equal(t, at, m.CreatedAt)

	_, err = toNotificationModel(&notification.Notification{UserID: "u-1"})
	assert.Error(t, err)
}

func TestFormatIDs(t *testing.T) {
	assert.Equal(t, []string{"1", "20", "300"}, formatIDs([]uint{1, 20, 300}))
	assert.Empty(t, formatIDs(nil))
}
