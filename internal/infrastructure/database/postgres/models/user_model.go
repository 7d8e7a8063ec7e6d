package models

import (
	"time"
)

// UserModel represents the database model for User. Credentials are managed
// by the account service and are not mapped here.
type UserModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Role      string    `gorm:"type:varchar(32);not null;default:'client_user';index"`
	ClientID  *uint     `gorm:"index"`
	CreatedAt time.Time `gorm:"not null"`

	Client *TenantModel `gorm:"foreignKey:ClientID"`
}

func (UserModel) TableName() string {
	return "users"
}
