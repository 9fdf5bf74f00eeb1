package memory

import (
	"context"
	"sync"

	"github.com/redeclipse/mastersession/internal/core/domain"
)

type ServerRepository struct {
	mu      sync.RWMutex
	servers map[string]domain.GameServer
}

func NewServerRepository() *ServerRepository {
	return &ServerRepository{servers: make(map[string]domain.GameServer)}
}

func (r *ServerRepository) Save(_ context.Context, server *domain.GameServer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[server.Key] = *server
	return nil
}

func (r *ServerRepository) Find(_ context.Context, key string) (*domain.GameServer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.servers[key]
	if !ok {
		return nil, domain.ErrNoSuchServer
	}
	return &s, nil
}

func (r *ServerRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.servers[key]; !ok {
		return domain.ErrNoSuchServer
	}
	delete(r.servers, key)
	return nil
}

func (r *ServerRepository) List(_ context.Context) ([]domain.GameServer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.GameServer, 0, len(r.servers))
	for _, s := range r.servers {
		out = append(out, s)
	}
	return out, nil
}
