package cart

import (
	"context"
	"fmt"

	pkgerrors "github.com/sgalleguillos/brokerpulse-backend/pkg/errors"
)

// Store exposes cart operations for one owning user. Every mutating call
// loads the durable record, applies a pure transition, and synchronously
// persists the result; the persisted record is the source of truth across
// client reloads.
type Store interface {
	Add(ctx context.Context, userID string, item LineItem) (State, error)
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int, metadata map[string]string) (State, bool, error)
	Remove(ctx context.Context, userID, productID string, metadata map[string]string) (State, bool, error)
	Clear(ctx context.Context, userID string) error
	Snapshot(ctx context.Context, userID string) (State, error)
}

type store struct {
	persistence Persistence
}

// NewStore builds a cart store over the provided persistence adapter.
func NewStore(persistence Persistence) (Store, error) {
	if persistence == nil {
		return nil, fmt.Errorf("cart persistence required")
	}
	return &store{persistence: persistence}, nil
}

func (s *store) Add(ctx context.Context, userID string, item LineItem) (State, error) {
	if item.ProductID == "" {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if item.Quantity <= 0 {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if item.UnitPriceNet < 0 || item.UnitPriceGross < 0 {
		return State{}, pkgerrors.New(pkgerrors.CodeValidation, "prices must be non-negative")
	}

	state, err := s.persistence.Load(ctx, userID)
	if err != nil {
		return State{}, err
	}
	next := Add(state, item)
	if err := s.persistence.Save(ctx, userID, next); err != nil {
		return State{}, err
	}
	return next, nil
}

func (s *store) UpdateQuantity(ctx context.Context, userID, productID string, quantity int, metadata map[string]string) (State, bool, error) {
	state, err := s.persistence.Load(ctx, userID)
	if err != nil {
		return State{}, false, err
	}
	next, changed := UpdateQuantity(state, productID, quantity, metadata)
	if !changed {
		return state, false, nil
	}
	if err := s.persistence.Save(ctx, userID, next); err != nil {
		return State{}, false, err
	}
	return next, true, nil
}

func (s *store) Remove(ctx context.Context, userID, productID string, metadata map[string]string) (State, bool, error) {
	state, err := s.persistence.Load(ctx, userID)
	if err != nil {
		return State{}, false, err
	}
	next, removed := Remove(state, productID, metadata)
	if !removed {
		return state, false, nil
	}
	if err := s.persistence.Save(ctx, userID, next); err != nil {
		return State{}, false, err
	}
	return next, true, nil
}

func (s *store) Clear(ctx context.Context, userID string) error {
	return s.persistence.Save(ctx, userID, Clear(State{}))
}

// Snapshot returns a copy of the current state; callers never see the stored
// item slice.
func (s *store) Snapshot(ctx context.Context, userID string) (State, error) {
	state, err := s.persistence.Load(ctx, userID)
	if err != nil {
		return State{}, err
	}
	return recomputeTotals(state.clone()), nil
}
