package postgres

import (
	"fmt"

	"waste-bin-monitor/internal/infrastructure/database/postgres/models"
	"waste-bin-monitor/internal/logger"
)

// AutoMigrate creates or updates the tables the pipeline reads and writes.
func (d *DB) AutoMigrate() error {
	err := d.DB.AutoMigrate(
		&models.TenantModel{},
		&models.UserModel{},
		&models.DeviceModel{},
		&models.SensorLogModel{},
		&models.NotificationModel{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	logger.Info("Database schema migrated")
	return nil
}
