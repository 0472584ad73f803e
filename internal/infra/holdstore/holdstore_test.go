package holdstore

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type store interface {
	Save(ctx context.Context, hold *domain.Hold) (domain.HoldToken, error)
	Get(ctx context.Context, token domain.HoldToken) (*domain.Hold, error)
	GetBySession(ctx context.Context, sessionID string, formID int64) (*domain.Hold, error)
	Delete(ctx context.Context, hold *domain.Hold) (bool, error)
	List(ctx context.Context) ([]*domain.Hold, error)
}

func newRedisStore(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, "test"), mr
}

func mustSave(t *testing.T, s store, h *domain.Hold) domain.HoldToken {
	t.Helper()
	displaced, err := s.Save(context.Background(), h)
	require.NoError(t, err)
	return displaced
}

func stores(t *testing.T) map[string]store {
	r, _ := newRedisStore(t)
	return map[string]store{
		"memory": NewMemory(),
		"redis":  r,
	}
}

func testHold(token, session string) *domain.Hold {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Hold{
		Token:     domain.HoldToken(token),
		SessionID: session,
		FormID:    7,
		Claims:    []domain.SeatClaim{{SlotID: 1, Seats: 2}, {SlotID: 2, Seats: 2}},
		CreatedAt: now,
		ExpiresAt: now.Add(10 * time.Minute),
	}
}

func TestStore_SaveGet(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h := testHold("t1", "s1")
			mustSave(t, s, h)

			got, err := s.Get(ctx, "t1")
			require.NoError(t, err)
			assert.Equal(t, h.Claims, got.Claims)
			assert.Equal(t, h.SessionID, got.SessionID)
			assert.True(t, h.ExpiresAt.Equal(got.ExpiresAt))

			bySession, err := s.GetBySession(ctx, "s1", 7)
			require.NoError(t, err)
			assert.Equal(t, h.Token, bySession.Token)

			_, err = s.Get(ctx, "missing")
			assert.ErrorIs(t, err, domain.ErrHoldNotFound)
			_, err = s.GetBySession(ctx, "s1", 8)
			assert.ErrorIs(t, err, domain.ErrHoldNotFound)
		})
	}
}

func TestStore_DeleteOnce(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			h := testHold("t1", "s1")
			mustSave(t, s, h)

			var deleted atomic.Int32
			var wg sync.WaitGroup
			for range 10 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := s.Delete(ctx, h)
					if assert.NoError(t, err) && ok {
						deleted.Add(1)
					}
				}()
			}
			wg.Wait()

			assert.Equal(t, int32(1), deleted.Load())
			_, err := s.Get(ctx, "t1")
			assert.ErrorIs(t, err, domain.ErrHoldNotFound)
			_, err = s.GetBySession(ctx, "s1", 7)
			assert.ErrorIs(t, err, domain.ErrHoldNotFound)
		})
	}
}

func TestStore_DeleteKeepsNewerSessionHold(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			old := testHold("old", "s1")
			newer := testHold("new", "s1")
			assert.Empty(t, mustSave(t, s, old))
			assert.Equal(t, domain.HoldToken("old"), mustSave(t, s, newer))
			assert.Empty(t, mustSave(t, s, newer))

			ok, err := s.Delete(ctx, old)
			require.NoError(t, err)
			assert.True(t, ok)

			got, err := s.GetBySession(ctx, "s1", 7)
			require.NoError(t, err)
			assert.Equal(t, domain.HoldToken("new"), got.Token)
		})
	}
}

func TestStore_List(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			mustSave(t, s, testHold("a", "s1"))
			mustSave(t, s, testHold("b", "s2"))

			holds, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, holds, 2)
		})
	}
}

func TestRedis_ExpiredHoldStaysListed(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	h := testHold("a", "s1")
	h.ExpiresAt = time.Now().Add(-time.Minute)
	mustSave(t, s, h)
	mr.FastForward(24 * time.Hour)

	holds, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.Equal(t, h.Claims, holds[0].Claims)

	got, err := s.GetBySession(ctx, "s1", 7)
	require.NoError(t, err)
	assert.Equal(t, h.Token, got.Token)

	ok, err := s.Delete(ctx, h)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mr.Exists(s.holdsKey()))
	assert.False(t, mr.Exists(s.sessionKey("s1", 7)))
}
