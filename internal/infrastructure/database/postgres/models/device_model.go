package models

import (
	"time"
)

// DeviceModel represents the database model for Devices.
type DeviceModel struct {
	ID        uint       `gorm:"primaryKey"`
	UniqueID  string     `gorm:"column:unique_id;type:varchar(64);not null;uniqueIndex"`
	BoardMAC  *string    `gorm:"column:board_mac;type:varchar(64);uniqueIndex"`
	Name      string     `gorm:"type:varchar(255)"`
	ClientID  *uint      `gorm:"index"`
	Status    string     `gorm:"type:varchar(32);not null;default:'offline';index"`
	LastSeen  *time.Time `gorm:"column:last_seen;type:timestamptz"`
	Latitude  *float64   `gorm:"type:double precision"`
	Longitude *float64   `gorm:"type:double precision"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`

	Client *TenantModel `gorm:"foreignKey:ClientID"`
}

func (DeviceModel) TableName() string {
	return "devices"
}

// TenantModel is a customer organisation owning devices and users.
type TenantModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	CompanyID *string   `gorm:"type:varchar(64)"`
	CreatedAt time.Time `gorm:"not null"`
}

func (TenantModel) TableName() string {
	return "clients"
}
