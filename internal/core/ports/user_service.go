package ports

import (
	"context"

	"github.com/redeclipse/mastersession/internal/core/domain"
)

type UserService interface {
	Register(ctx context.Context, username, password, email string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	Lookup(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	SetLevel(ctx context.Context, actor *domain.User, username string, level domain.Level) (*domain.User, error)
}
