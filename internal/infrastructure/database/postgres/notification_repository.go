package postgres

import (
	"context"
	"fmt"
	"strconv"

	"waste-bin-monitor/internal/domain/notification"
	"waste-bin-monitor/internal/infrastructure/database/postgres/models"
)

type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

var _ notification.Store = (*NotificationRepository)(nil)

func (r *NotificationRepository) Insert(ctx context.Context, n *notification.Notification) error {
	dbModel, err := toNotificationModel(n)
	if err != nil {
		return err
	}

	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	n.ID = strconv.FormatUint(uint64(dbModel.ID), 10)
	return nil
}

func toNotificationModel(n *notification.Notification) (*models.NotificationModel, error) {
	userID, err := strconv.ParseUint(n.UserID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", n.UserID, err)
	}
	return &models.NotificationModel{
		UserID:    uint(userID),
		Message:   n.Message,
		DeviceID:  n.DeviceID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}, nil
}
