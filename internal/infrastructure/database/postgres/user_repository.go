package postgres

import (
	"context"
	"fmt"
	"strconv"

	"waste-bin-monitor/internal/domain/user"
	"waste-bin-monitor/internal/infrastructure/database/postgres/models"
)

// UserRepository answers recipient lookups against the users table.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

var _ user.Directory = (*UserRepository)(nil)

func (r *UserRepository) UsersInTenant(ctx context.Context, tenantID string) ([]string, error) {
	if tenantID == "" {
		return nil, nil
	}
	clientID, err := strconv.ParseUint(tenantID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant id %q: %w", tenantID, err)
	}

	var ids []uint
	err = r.db.DB.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("client_id = ?", clientID).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant users: %w", err)
	}
	return formatIDs(ids), nil
}

func (r *UserRepository) Administrators(ctx context.Context) ([]string, error) {
	var ids []uint
	err := r.db.DB.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("role = ?", user.RoleAdmin).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list administrators: %w", err)
	}
	return formatIDs(ids), nil
}

func formatIDs(ids []uint) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strconv.FormatUint(uint64(id), 10)
	}
	return out
}
