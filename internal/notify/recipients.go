package notify

import (
	"context"

	"waste-bin-monitor/internal/domain/user"
	appErrors "waste-bin-monitor/pkg/errors"
)

// Resolver decides who hears about a device event: every user of the
// device's tenant plus every administrator.
type Resolver struct {
	directory user.Directory
}

func NewResolver(directory user.Directory) *Resolver {
	return &Resolver{directory: directory}
}

// Resolve returns the deduplicated recipients for a tenant. Tenant users come
// first, in directory order, followed by administrators not already listed.
// An empty tenantID resolves to the administrators only.
func (r *Resolver) Resolve(ctx context.Context, tenantID string) ([]string, error) {
	var tenantUsers []string
	if tenantID != "" {
		users, err := r.directory.UsersInTenant(ctx, tenantID)
		if err != nil {
			return nil, appErrors.Storage("list tenant users", err)
		}
		tenantUsers = users
	}

	admins, err := r.directory.Administrators(ctx)
	if err != nil {
		return nil, appErrors.Storage("list administrators", err)
	}

	seen := make(map[string]struct{}, len(tenantUsers)+len(admins))
	recipients := make([]string, 0, len(tenantUsers)+len(admins))
	for _, group := range [][]string{tenantUsers, admins} {
		for _, id := range group {
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			recipients = append(recipients, id)
		}
	}

	return recipients, nil
}
