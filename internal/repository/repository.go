// Package repository declares the storage contract the service and churn
// layers depend on. Implementations live in sub-packages (see sqlite/).
package repository

import (
	"context"

	"github.com/sakif/user-service/internal/model"
)

// Fallback page sizes, used when no configured limits are supplied.
// Implementations apply DefaultLimit to an unset Limit but never cap it;
// capping is the caller's job (see ListOptions.Clamp).
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

type ListOptions struct {
	Limit  int
	Offset int
}

// Clamp returns opts with Limit in [1, maxLimit] (defaultLimit when unset)
// and a non-negative Offset.
func (o ListOptions) Clamp(defaultLimit, maxLimit int) ListOptions {
	if o.Limit <= 0 {
		o.Limit = defaultLimit
	}
	if o.Limit > maxLimit {
		o.Limit = maxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// UserRepository stores users together with their address and card.
// Every method runs in a single store transaction.
type UserRepository interface {
	Create(ctx context.Context, user *model.UserDetails) error
	GetByID(ctx context.Context, id string) (*model.UserDetails, error)
	List(ctx context.Context) ([]model.UserDetails, error)
	Search(ctx context.Context, filter model.UserFilter, opts ListOptions) ([]model.UserDetails, error)
	Update(ctx context.Context, id string, patch model.UserPatch) (*model.UserDetails, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountByGender(ctx context.Context, gender string) (int, error)
	OldestIDs(ctx context.Context, n int) ([]string, error)
}
