package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	pkgerrors "github.com/sgalleguillos/brokerpulse-backend/pkg/errors"
	"github.com/sgalleguillos/brokerpulse-backend/pkg/redis"
)

// Persistence is the durable key/value record backing a user's cart. Saves
// are full-state overwrites; concurrent sessions resolve by last write wins.
type Persistence interface {
	Load(ctx context.Context, userID string) (State, error)
	Save(ctx context.Context, userID string, state State) error
}

type redisPersistence struct {
	client *redis.Client
}

// NewRedisPersistence stores cart records in Redis, one key per user.
func NewRedisPersistence(client *redis.Client) (Persistence, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &redisPersistence{client: client}, nil
}

func (p *redisPersistence) Load(ctx context.Context, userID string) (State, error) {
	raw, err := p.client.Get(ctx, p.client.CartKey(userID))
	if errors.Is(err, redis.ErrNotFound) {
		return Empty(), nil
	}
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cart record")
	}
	if state.Items == nil {
		state.Items = []LineItem{}
	}
	return state, nil
}

func (p *redisPersistence) Save(ctx context.Context, userID string, state State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart record")
	}
	if err := p.client.Set(ctx, p.client.CartKey(userID), payload, 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

type memoryPersistence struct {
	mu    sync.Mutex
	carts map[string]State
}

// NewMemoryPersistence keeps cart records in process memory. Used by tests
// and local development without a Redis.
func NewMemoryPersistence() Persistence {
	return &memoryPersistence{carts: map[string]State{}}
}

func (p *memoryPersistence) Load(_ context.Context, userID string) (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.carts[userID]
	if !ok {
		return Empty(), nil
	}
	return state.clone(), nil
}

func (p *memoryPersistence) Save(_ context.Context, userID string, state State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.carts[userID] = state.clone()
	return nil
}
