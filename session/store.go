// Package session keeps conversation states keyed by session id and
// serializes turns per session.
package session

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/tbxark/mediaplan/types"
)

var ErrSessionNotFound = errors.New("session not found")

// Store persists one ConversationState per session id.
type Store interface {
	// Get returns ErrSessionNotFound for unknown ids.
	Get(ctx context.Context, id string) (*types.ConversationState, error)
	Put(ctx context.Context, id string, state *types.ConversationState) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

// MemoryStore keeps deep copies of states in process.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*types.ConversationState
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: map[string]*types.ConversationState{}}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*types.ConversationState, error) {
	m.mu.RLock()
	state, ok := m.states[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return state.Clone(), nil
}

func (m *MemoryStore) Put(ctx context.Context, id string, state *types.ConversationState) error {
	c := state.Clone()
	c.Normalize()
	m.mu.Lock()
	m.states[id] = c
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.states, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	slices.Sort(ids)
	return ids, nil
}

type sessionKeyContext struct{}

// WithSessionID routes later store access through ctx to id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKeyContext{}, id)
}

// SessionIDFromContext returns the id set by WithSessionID.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionKeyContext{}).(string)
	return id, ok && id != ""
}
