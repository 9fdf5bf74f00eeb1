package memory

import (
	"context"
	"sync"

	"github.com/redeclipse/mastersession/internal/core/domain"
)

type KeyRepository struct {
	mu   sync.RWMutex
	keys map[string]domain.UserKey
}

func NewKeyRepository() *KeyRepository {
	return &KeyRepository{keys: make(map[string]domain.UserKey)}
}

func (r *KeyRepository) Save(_ context.Context, key *domain.UserKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key.ID] = *key
	return nil
}

func (r *KeyRepository) Find(_ context.Context, id string) (*domain.UserKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.keys[id]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	return &k, nil
}

func (r *KeyRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.keys[id]; !ok {
		return domain.ErrTokenInvalid
	}
	delete(r.keys, id)
	return nil
}

// Len reports the number of live keys.
func (r *KeyRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.keys)
}
