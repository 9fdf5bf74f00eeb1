package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/redeclipse/mastersession/internal/core/domain"
)

// serverGrace keeps a lapsed server hash around so the next heartbeat or
// listing can report and drop it explicitly.
const serverGrace = 10 * time.Minute

// serverIndex is the set of announced server keys.
const serverIndex = "servers"

// ServerRepository stores game servers as hashes plus an index set.
// Key format: server:<key> with fields name, address, port and expires_at
// (unix seconds).
type ServerRepository struct {
	client *redis.Client
}

func NewServerRepository(client *redis.Client) *ServerRepository {
	return &ServerRepository{client: client}
}

func (r *ServerRepository) Save(ctx context.Context, server *domain.GameServer) error {
	k := serverName(server.Key)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k,
			"name", server.Name,
			"address", server.Address,
			"port", strconv.Itoa(server.Port),
			"expires_at", strconv.FormatInt(server.ExpiresAt.Unix(), 10),
		)
		pipe.ExpireAt(ctx, k, server.ExpiresAt.Add(serverGrace))
		pipe.SAdd(ctx, serverIndex, server.Key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save server: %w", err)
	}
	return nil
}

func (r *ServerRepository) Find(ctx context.Context, key string) (*domain.GameServer, error) {
	fields, err := r.client.HGetAll(ctx, serverName(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("find server: %w", err)
	}
	return decodeServer(key, fields)
}

func (r *ServerRepository) Delete(ctx context.Context, key string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, serverName(key))
		pipe.SRem(ctx, serverIndex, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete server: %w", err)
	}
	if del.Val() == 0 {
		return domain.ErrNoSuchServer
	}
	return nil
}

// List reads every indexed server. Index entries whose hash was already
// collected by its TTL are pruned.
func (r *ServerRepository) List(ctx context.Context) ([]domain.GameServer, error) {
	keys, err := r.client.SMembers(ctx, serverIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.HGetAll(ctx, serverName(key))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}

	out := make([]domain.GameServer, 0, len(keys))
	var gone []any
	for i, cmd := range cmds {
		server, err := decodeServer(keys[i], cmd.Val())
		if err != nil {
			gone = append(gone, keys[i])
			continue
		}
		out = append(out, *server)
	}
	if len(gone) > 0 {
		if err := r.client.SRem(ctx, serverIndex, gone...).Err(); err != nil {
			return nil, fmt.Errorf("prune server index: %w", err)
		}
	}
	return out, nil
}

func serverName(key string) string {
	return "server:" + key
}

// decodeServer rebuilds a server from its hash fields. An empty hash means
// the key is unknown or already collected.
func decodeServer(key string, fields map[string]string) (*domain.GameServer, error) {
	if len(fields) == 0 {
		return nil, domain.ErrNoSuchServer
	}
	port, err := strconv.Atoi(fields["port"])
	if err != nil {
		return nil, fmt.Errorf("find server: bad port: %w", err)
	}
	exp, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("find server: bad expires_at: %w", err)
	}
	return &domain.GameServer{
		Key:       key,
		Name:      fields["name"],
		Address:   fields["address"],
		Port:      port,
		ExpiresAt: time.Unix(exp, 0).UTC(),
	}, nil
}
