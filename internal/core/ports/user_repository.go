package ports

import (
	"context"

	"github.com/redeclipse/mastersession/internal/core/domain"
)

// UserRepository defines persistence for registered accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdateLevel(ctx context.Context, username string, level domain.Level) (*domain.User, error)
}

// KeyRepository stores session keys. Find returns domain.ErrTokenInvalid for
// unknown keys.
type KeyRepository interface {
	Save(ctx context.Context, key *domain.UserKey) error
	Find(ctx context.Context, id string) (*domain.UserKey, error)
	Delete(ctx context.Context, id string) error
}
