package models

import (
	"time"
)

type NotificationModel struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	Message   string    `gorm:"type:text;not null"`
	DeviceID  string    `gorm:"type:varchar(64);index"`
	IsRead    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null"`

	User *UserModel `gorm:"foreignKey:UserID"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}
