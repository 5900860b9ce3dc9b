package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/jsdelfino/watsonwork-weather/internal/domain"
)

// ErrStore wraps every backing store failure.
var ErrStore = errors.New("conversation state store")

// Key identifies the conversation of one user in one space.
type Key struct {
	SpaceID string
	UserID  string
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.SpaceID, k.UserID)
}

// Store persists conversation state. Get returns an empty state, not an error,
// for a key that was never written (or was evicted).
type Store interface {
	Get(ctx context.Context, key Key) (*domain.ConversationState, error)
	Put(ctx context.Context, key Key, st *domain.ConversationState) error
}

// Handler runs one dialog step against the loaded state. Returning save=false
// leaves the stored state untouched.
type Handler func(ctx context.Context, st *domain.ConversationState) (save bool, err error)

// WithState loads the state for (spaceID, userID), runs fn and writes the state
// back when fn asks to. Read-modify-write is not atomic; callers that need
// ordering per key must sequence calls themselves.
func WithState(ctx context.Context, store Store, spaceID, userID string, fn Handler) error {
	key := Key{SpaceID: spaceID, UserID: userID}

	st, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("loading state %s: %w", key, err)
	}
	if st == nil {
		st = &domain.ConversationState{}
	}

	save, err := fn(ctx, st)
	if err != nil {
		return err
	}
	if !save {
		return nil
	}

	if err := store.Put(ctx, key, st); err != nil {
		return fmt.Errorf("saving state %s: %w", key, err)
	}
	return nil
}
