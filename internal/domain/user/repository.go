package user

import (
	"context"
)

const RoleAdmin = "admin"

// Directory answers who belongs to a tenant and who administers every tenant.
type Directory interface {
	UsersInTenant(ctx context.Context, tenantID string) ([]string, error)
	Administrators(ctx context.Context) ([]string, error)
}
