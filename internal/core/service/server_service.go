package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/redeclipse/mastersession/internal/core/domain"
	"github.com/redeclipse/mastersession/internal/core/ports"
)

// DefaultServerLifetime is how long a game server stays listed without a
// heartbeat.
const DefaultServerLifetime = time.Minute

// ServerService keeps the list of live game servers. Each server holds a key
// whose expiry slides forward on every heartbeat.
type ServerService struct {
	servers  ports.ServerRepository
	lifetime time.Duration
	clock    clockwork.Clock
	log      zerolog.Logger
}

func NewServerService(servers ports.ServerRepository, lifetime time.Duration, clock clockwork.Clock, log zerolog.Logger) *ServerService {
	if lifetime <= 0 {
		lifetime = DefaultServerLifetime
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ServerService{servers: servers, lifetime: lifetime, clock: clock, log: log}
}

// Register lists a new server and returns it with its heartbeat key.
func (s *ServerService) Register(ctx context.Context, name, address string, port int) (*domain.GameServer, error) {
	if name == "" || address == "" {
		return nil, domain.ErrMissingFields
	}
	if port <= 0 || port > 65535 {
		return nil, domain.ErrInvalidPort
	}

	server := &domain.GameServer{
		Key:       uuid.NewString(),
		Name:      name,
		Address:   address,
		Port:      port,
		ExpiresAt: s.clock.Now().Add(s.lifetime),
	}
	if err := s.servers.Save(ctx, server); err != nil {
		return nil, fmt.Errorf("save server: %w", err)
	}

	s.log.Info().
		Str("name", name).
		Str("address", address).
		Int("port", port).
		Msg("game server registered")
	return server, nil
}

// Heartbeat keeps a server listed for another lifetime. A server whose key
// already lapsed is removed and must register again.
func (s *ServerService) Heartbeat(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrMissingFields
	}
	server, err := s.servers.Find(ctx, key)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	if server.Expired(now) {
		s.forget(ctx, server)
		return domain.ErrNoSuchServer
	}

	server.ExpiresAt = now.Add(s.lifetime)
	if err := s.servers.Save(ctx, server); err != nil {
		return fmt.Errorf("refresh server: %w", err)
	}
	return nil
}

// List returns the live servers ordered by name, dropping expired ones.
func (s *ServerService) List(ctx context.Context) ([]domain.GameServer, error) {
	all, err := s.servers.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	live := make([]domain.GameServer, 0, len(all))
	for i := range all {
		if all[i].Expired(now) {
			s.forget(ctx, &all[i])
			continue
		}
		live = append(live, all[i])
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].Name != live[j].Name {
			return live[i].Name < live[j].Name
		}
		return live[i].Address < live[j].Address
	})
	return live, nil
}

func (s *ServerService) forget(ctx context.Context, server *domain.GameServer) {
	err := s.servers.Delete(ctx, server.Key)
	if err != nil && !errors.Is(err, domain.ErrNoSuchServer) {
		s.log.Warn().Err(err).Str("name", server.Name).Msg("failed to drop expired server")
		return
	}
	s.log.Info().Str("name", server.Name).Msg("game server expired")
}
