package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/mediaplan/types"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleState() *types.ConversationState {
	s := types.NewConversationState()
	s.Stage = types.StageAnalysis
	s.BusinessProfile.Industry = "Coffee"
	s.BudgetAllocation["Instagram Ads"] = 50
	s.AppendUser("m1", "https://brew.example")
	return s
}

func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Put(ctx, "b", sampleState()))
	require.NoError(t, store.Put(ctx, "a", types.NewConversationState()))

	got, err := store.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, types.StageAnalysis, got.Stage)
	assert.Equal(t, "Coffee", got.BusinessProfile.Industry)
	assert.Equal(t, 50.0, got.BudgetAllocation["Instagram Ads"])
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "m1", got.Messages[0].ID)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	require.NoError(t, store.Delete(ctx, "b"))
	_, err = store.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestRedisStoreContract(t *testing.T) {
	_, client := newRedis(t)
	runStoreContract(t, NewRedisStore(client, WithPrefix("test:")))
}

func TestMemoryStoreIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	s := sampleState()
	require.NoError(t, store.Put(ctx, "x", s))
	s.BusinessProfile.Industry = "Tea"

	got, err := store.Get(ctx, "x")
	require.NoError(t, err)
	got.Stage = types.StageFinal

	again, err := store.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "Coffee", again.BusinessProfile.Industry)
	assert.Equal(t, types.StageAnalysis, again.Stage)
}

func TestRedisStoreTTL(t *testing.T) {
	mr, client := newRedis(t)
	store := NewRedisStore(client, WithTTL(time.Minute))
	require.NoError(t, store.Put(context.Background(), "x", sampleState()))
	assert.Equal(t, time.Minute, mr.TTL(defaultRedisPrefix+"x"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisLocker(t *testing.T) {
	_, client := newRedis(t)
	locker := NewRedisLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 120*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(waitCtx, "s1", time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, unlock(ctx))
	unlock2, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestManagerSerializesTurns(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())
	id, err := m.Create(ctx, types.NewConversationState())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Update(ctx, id, func(ctx context.Context, s *types.ConversationState) (*types.ConversationState, error) {
				s.AppendUser(types.NewID(), "hi")
				return s, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := m.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, s.Messages, 20)
	assert.Empty(t, m.locks)
}

func TestManagerUpdateFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStore())
	id, err := m.Create(ctx, types.NewConversationState())
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = m.Update(ctx, id, func(ctx context.Context, s *types.ConversationState) (*types.ConversationState, error) {
		s.Stage = types.StageFinal
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	s, err := m.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, types.StageInitial, s.Stage)

	_, err = m.Update(ctx, "nope", func(ctx context.Context, s *types.ConversationState) (*types.ConversationState, error) {
		return s, nil
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManagerLoadOrCreateAndDelete(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	m := NewManager(NewRedisStore(client), WithLocker(NewRedisLocker(client, "")), WithLockTTL(time.Second))

	calls := 0
	init := func() *types.ConversationState {
		calls++
		return sampleState()
	}
	s, err := m.LoadOrCreate(ctx, "fixed", init)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", s.BusinessProfile.Industry)
	_, err = m.LoadOrCreate(ctx, "fixed", init)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fixed"}, ids)

	require.NoError(t, m.Delete(ctx, "fixed"))
	assert.ErrorIs(t, m.Delete(ctx, "fixed"), ErrSessionNotFound)
}

func TestSessionIDRouting(t *testing.T) {
	m := NewManager(NewMemoryStore())
	err := m.WithLock(context.Background(), "abc", func(ctx context.Context) error {
		id, ok := SessionIDFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, "abc", id)
		return nil
	})
	require.NoError(t, err)

	_, ok := SessionIDFromContext(context.Background())
	assert.False(t, ok)
}
