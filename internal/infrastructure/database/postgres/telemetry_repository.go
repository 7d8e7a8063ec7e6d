package postgres

import (
	"context"
	"fmt"

	domainDevice "waste-bin-monitor/internal/domain/device"
	"waste-bin-monitor/internal/domain/telemetry"
)

// TelemetryRepository appends sensor readings to sensor_logs.
type TelemetryRepository struct {
	db *DB
}

func NewTelemetryRepository(db *DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

var _ telemetry.Store = (*TelemetryRepository)(nil)

// Append resolves the reading's device identity to its row id in the same
// statement as the insert.
func (r *TelemetryRepository) Append(ctx context.Context, reading *telemetry.Reading) error {
	result := r.db.DB.WithContext(ctx).Exec(`
        INSERT INTO sensor_logs (device_id, distance, gas, temperature, current, timestamp)
        SELECT id, ?, ?, ?, ?, ? FROM devices WHERE unique_id = ?
    `, reading.Distance, reading.Gas, reading.Temperature, reading.Current, reading.Timestamp, reading.DeviceID)

	if result.Error != nil {
		return fmt.Errorf("failed to insert sensor reading: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDevice.ErrDeviceNotFound
	}
	return nil
}
