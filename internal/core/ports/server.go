package ports

import (
	"context"

	"github.com/redeclipse/mastersession/internal/core/domain"
)

// ServerRepository stores announced game servers by key. Find and Delete
// return domain.ErrNoSuchServer for unknown keys.
type ServerRepository interface {
	Save(ctx context.Context, server *domain.GameServer) error
	Find(ctx context.Context, key string) (*domain.GameServer, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]domain.GameServer, error)
}

type ServerService interface {
	Register(ctx context.Context, name, address string, port int) (*domain.GameServer, error)
	Heartbeat(ctx context.Context, key string) error
	List(ctx context.Context) ([]domain.GameServer, error)
}
