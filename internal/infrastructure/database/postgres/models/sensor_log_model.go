package models

import (
	"time"
)

type SensorLogModel struct {
	ID          uint      `gorm:"primaryKey"`
	DeviceID    uint      `gorm:"not null;index:idx_sensor_logs_device_time,priority:1"`
	Distance    int       `gorm:"not null"`
	Gas         int       `gorm:"not null"`
	Temperature float64   `gorm:"type:double precision;not null"`
	Current     int       `gorm:"not null"`
	Timestamp   time.Time `gorm:"type:timestamptz;not null;index:idx_sensor_logs_device_time,priority:2"`

	Device *DeviceModel `gorm:"foreignKey:DeviceID"`
}

func (SensorLogModel) TableName() string {
	return "sensor_logs"
}
