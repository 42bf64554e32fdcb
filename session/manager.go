package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tbxark/mediaplan/internal/logging"
	"github.com/tbxark/mediaplan/types"
)

const defaultLockTTL = 30 * time.Second

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to each session. In-process locks are
// reference counted and dropped when unused; an optional Locker extends the
// guarantee across processes.
type Manager struct {
	store Store

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  Locker
	lockTTL time.Duration
	logger  *slog.Logger
}

type Option func(*Manager)

func WithLocker(locker Locker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   map[string]*lockEntry{},
		lockTTL: defaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.locks[id]
	if !ok {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock runs fn while holding the session lock.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire distributed lock failed: %w", err)
		}
		defer func() {
			// the turn context may already be done; the lock still has to go
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("release distributed lock failed, it will expire", "session_id", id, "err", err)
			}
		}()
	}

	return fn(WithSessionID(ctx, id))
}

// Create stores state under a new id.
func (m *Manager) Create(ctx context.Context, state *types.ConversationState) (string, error) {
	id := types.NewID()
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		return m.store.Put(ctx, id, state)
	})
	if err != nil {
		return "", fmt.Errorf("create session failed: %w", err)
	}
	m.logger.Info("session created", "session_id", id)
	return id, nil
}

func (m *Manager) Load(ctx context.Context, id string) (*types.ConversationState, error) {
	var state *types.ConversationState
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		state, err = m.store.Get(ctx, id)
		return err
	})
	return state, err
}

// LoadOrCreate loads id or stores init() under it when it does not exist.
func (m *Manager) LoadOrCreate(ctx context.Context, id string, init func() *types.ConversationState) (*types.ConversationState, error) {
	var state *types.ConversationState
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		state, err = m.store.Get(ctx, id)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return fmt.Errorf("check session failed: %w", err)
		}
		state = init()
		if err := m.store.Put(ctx, id, state); err != nil {
			return fmt.Errorf("initialize session failed: %w", err)
		}
		return nil
	})
	return state, err
}

// Update loads the session, applies fn and stores the result, all under
// the session lock. Nothing is stored when fn fails.
func (m *Manager) Update(ctx context.Context, id string, fn func(context.Context, *types.ConversationState) (*types.ConversationState, error)) (*types.ConversationState, error) {
	var next *types.ConversationState
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		state, err := m.store.Get(ctx, id)
		if err != nil {
			return err
		}
		next, err = fn(ctx, state)
		if err != nil {
			return err
		}
		return m.store.Put(ctx, id, next)
	})
	return next, err
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		if _, err := m.store.Get(ctx, id); err != nil {
			return err
		}
		return m.store.Delete(ctx, id)
	})
}

func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

func (m *Manager) Store() Store {
	return m.store
}
