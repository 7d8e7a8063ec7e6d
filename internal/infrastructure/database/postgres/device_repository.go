package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	domainDevice "waste-bin-monitor/internal/domain/device"
	"waste-bin-monitor/internal/infrastructure/database/postgres/models"
)

// DeviceRepository implements domain.Device.Repository interface
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

var _ domainDevice.Repository = (*DeviceRepository)(nil)

func (r *DeviceRepository) FindByIdentity(ctx context.Context, uniqueID string) (*domainDevice.Device, error) {
	var dbModel models.DeviceModel
	err := r.db.DB.WithContext(ctx).
		Where("unique_id = ?", uniqueID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return toDeviceEntity(&dbModel), nil
}

// SetStatus writes status and last_seen. A write older than the stored
// last_seen is ignored.
func (r *DeviceRepository) SetStatus(ctx context.Context, uniqueID string, status domainDevice.Status, seenAt time.Time) error {
	if !status.IsValid() {
		return domainDevice.ErrInvalidStatus
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("unique_id = ? AND (last_seen IS NULL OR last_seen <= ?)", uniqueID, seenAt).
		Updates(map[string]interface{}{
			"status":     string(status),
			"last_seen":  seenAt,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}

	return nil
}

func (r *DeviceRepository) ListStale(ctx context.Context, cutoff time.Time) ([]*domainDevice.Device, error) {
	var dbModels []models.DeviceModel
	err := r.db.DB.WithContext(ctx).
		Where("status <> ?", string(domainDevice.StatusOffline)).
		Where("last_seen IS NULL OR last_seen < ?", cutoff).
		Order("id").
		Find(&dbModels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stale devices: %w", err)
	}

	devices := make([]*domainDevice.Device, len(dbModels))
	for i := range dbModels {
		devices[i] = toDeviceEntity(&dbModels[i])
	}
	return devices, nil
}

func (r *DeviceRepository) MarkOffline(ctx context.Context, uniqueID string, cutoff time.Time) (bool, error) {
	result := r.db.DB.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("unique_id = ? AND status <> ?", uniqueID, string(domainDevice.StatusOffline)).
		Where("last_seen IS NULL OR last_seen < ?", cutoff).
		Updates(map[string]interface{}{
			"status":     string(domainDevice.StatusOffline),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, fmt.Errorf("failed to mark device offline: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func toDeviceEntity(m *models.DeviceModel) *domainDevice.Device {
	d := &domainDevice.Device{
		ID:         strconv.FormatUint(uint64(m.ID), 10),
		UniqueID:   m.UniqueID,
		Name:       m.Name,
		Status:     domainDevice.Status(m.Status),
		LastSeenAt: m.LastSeen,
		Latitude:   m.Latitude,
		Longitude:  m.Longitude,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.ClientID != nil {
		d.TenantID = strconv.FormatUint(uint64(*m.ClientID), 10)
	}
	return d
}
