package holds

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/holdstore"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reservation"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	manager     *Manager
	coordinator *reservation.Coordinator
	slots       *memory.SlotRepository
	clock       *fakeClock
	slotID      int64
}

func newEnv(t *testing.T, capacity int) *env {
	t.Helper()
	return newEnvWithStore(t, capacity, holdstore.NewMemory())
}

func newEnvWithStore(t *testing.T, capacity int, store HoldStore) *env {
	t.Helper()
	var m *metrics.Metrics
	slots := memory.NewSlotRepository()
	coordinator := reservation.NewCoordinator(slots, txmanager.NewNoop(), m, logger.NewNop())

	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	slot, err := coordinator.MaterializeIfNeeded(context.Background(),
		domain.NewVirtualSlot(1, start, start.Add(30*time.Minute), capacity, true))
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	manager := NewManager(store, coordinator, m, logger.NewNop(),
		WithBaseTTL(10*time.Minute), WithPerSeatTTL(2*time.Minute), WithTimeProvider(clock))

	return &env{manager: manager, coordinator: coordinator, slots: slots, clock: clock, slotID: slot.ID}
}

func (e *env) potential(t *testing.T) int {
	t.Helper()
	s, err := e.slots.GetByID(context.Background(), e.slotID)
	require.NoError(t, err)
	return s.NbPotentialRemainingPlaces
}

func form(maxPeople int) *domain.FormRules {
	return &domain.FormRules{ID: 1, IsActive: true, MaxPeoplePerAppointment: maxPeople}
}

func TestManager_TTL(t *testing.T) {
	e := newEnv(t, 1)

	assert.Equal(t, 10*time.Minute, e.manager.TTL(form(1)))
	assert.Equal(t, 16*time.Minute, e.manager.TTL(form(4)))
}

func TestManager_CreateReplacesSessionHold(t *testing.T) {
	e := newEnv(t, 3)
	ctx := context.Background()
	claims := []domain.SeatClaim{{SlotID: e.slotID, Seats: 2}}

	first, err := e.manager.Create(ctx, "session", form(2), claims)
	require.NoError(t, err)
	assert.Equal(t, 1, e.potential(t))
	assert.Equal(t, e.clock.Now().Add(12*time.Minute), first.ExpiresAt)

	second, err := e.manager.Create(ctx, "session", form(2), claims)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, 1, e.potential(t))

	_, err = e.manager.Get(ctx, first.Token)
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)
}

func TestManager_CreateRequiresSession(t *testing.T) {
	e := newEnv(t, 1)

	_, err := e.manager.Create(context.Background(), "", form(1), []domain.SeatClaim{{SlotID: e.slotID, Seats: 1}})
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestManager_CreateSlotFull(t *testing.T) {
	e := newEnv(t, 1)
	ctx := context.Background()
	claims := []domain.SeatClaim{{SlotID: e.slotID, Seats: 1}}

	_, err := e.manager.Create(ctx, "a", form(1), claims)
	require.NoError(t, err)

	_, err = e.manager.Create(ctx, "b", form(1), claims)
	assert.ErrorIs(t, err, domain.ErrSlotFull)
}

func TestManager_LazyExpiryReleasesOnce(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()

	hold, err := e.manager.Create(ctx, "session", form(1), []domain.SeatClaim{{SlotID: e.slotID, Seats: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, e.potential(t))

	e.clock.Advance(10 * time.Minute)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.manager.Get(ctx, hold.Token)
			assert.Error(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, e.potential(t))

	_, err = e.manager.Get(ctx, hold.Token)
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)
}

func TestManager_GetExpired(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()

	hold, err := e.manager.Create(ctx, "session", form(1), []domain.SeatClaim{{SlotID: e.slotID, Seats: 1}})
	require.NoError(t, err)

	e.clock.Advance(9 * time.Minute)
	_, err = e.manager.Get(ctx, hold.Token)
	require.NoError(t, err)

	e.clock.Advance(time.Minute)
	_, err = e.manager.Get(ctx, hold.Token)
	assert.ErrorIs(t, err, domain.ErrHoldExpired)
}

func TestManager_ClaimOnce(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()

	hold, err := e.manager.Create(ctx, "session", form(1), []domain.SeatClaim{{SlotID: e.slotID, Seats: 1}})
	require.NoError(t, err)

	require.NoError(t, e.manager.Claim(ctx, hold))
	assert.ErrorIs(t, e.manager.Claim(ctx, hold), domain.ErrHoldNotFound)

	// Поглощенное удержание не освобождается сборщиком
	e.clock.Advance(time.Hour)
	swept, err := e.manager.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, swept)
	assert.Equal(t, 1, e.potential(t))

	require.NoError(t, e.manager.ReleaseClaimed(ctx, hold))
	assert.Equal(t, 2, e.potential(t))
}

func TestManager_Cancel(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()

	hold, err := e.manager.Create(ctx, "owner", form(1), []domain.SeatClaim{{SlotID: e.slotID, Seats: 2}})
	require.NoError(t, err)

	assert.ErrorIs(t, e.manager.Cancel(ctx, hold.Token, "intruder"), domain.ErrHoldNotOwned)
	assert.Equal(t, 0, e.potential(t))

	require.NoError(t, e.manager.Cancel(ctx, hold.Token, "owner"))
	assert.Equal(t, 2, e.potential(t))
}

func TestManager_SweepExpired(t *testing.T) {
	e := newEnv(t, 3)
	ctx := context.Background()
	claims := []domain.SeatClaim{{SlotID: e.slotID, Seats: 1}}

	_, err := e.manager.Create(ctx, "a", form(1), claims)
	require.NoError(t, err)
	_, err = e.manager.Create(ctx, "b", form(1), claims)
	require.NoError(t, err)

	e.clock.Advance(5 * time.Minute)
	_, err = e.manager.Create(ctx, "c", form(1), claims)
	require.NoError(t, err)
	assert.Equal(t, 0, e.potential(t))

	e.clock.Advance(5 * time.Minute)
	swept, err := e.manager.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, swept)
	assert.Equal(t, 2, e.potential(t))
}

func TestManager_SweepReleasesAbandonedRedisHold(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	e := newEnvWithStore(t, 2, holdstore.NewRedis(client, "test"))
	ctx := context.Background()

	hold, err := e.manager.Create(ctx, "abandoned", form(1), []domain.SeatClaim{{SlotID: e.slotID, Seats: 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, e.potential(t))

	mr.FastForward(24 * time.Hour)
	e.clock.Advance(24 * time.Hour)

	swept, err := e.manager.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	assert.Equal(t, 2, e.potential(t))

	_, err = e.manager.Get(ctx, hold.Token)
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)
}

func TestManager_ConcurrentCreateKeepsOneHold(t *testing.T) {
	e := newEnv(t, 10)
	ctx := context.Background()
	claims := []domain.SeatClaim{{SlotID: e.slotID, Seats: 1}}

	const workers = 8
	tokens := make([]domain.HoldToken, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := e.manager.Create(ctx, "session", form(1), claims)
			if assert.NoError(t, err) {
				tokens[i] = h.Token
			}
		}()
	}
	wg.Wait()

	live := 0
	for _, token := range tokens {
		if _, err := e.manager.Get(ctx, token); err == nil {
			live++
		}
	}
	assert.Equal(t, 1, live)
	assert.Equal(t, 9, e.potential(t))
}

// racingStore сохраняет чужое удержание той же сессии прямо перед Save,
// как это сделал бы другой экземпляр сервиса
type racingStore struct {
	HoldStore
	beforeSave func()
}

func (s *racingStore) Save(ctx context.Context, hold *domain.Hold) (domain.HoldToken, error) {
	if s.beforeSave != nil {
		s.beforeSave()
		s.beforeSave = nil
	}
	return s.HoldStore.Save(ctx, hold)
}

func TestManager_CreateReleasesDisplacedHold(t *testing.T) {
	inner := holdstore.NewMemory()
	store := &racingStore{HoldStore: inner}
	e := newEnvWithStore(t, 3, store)
	ctx := context.Background()
	claims := []domain.SeatClaim{{SlotID: e.slotID, Seats: 1}}

	var foreign domain.HoldToken
	store.beforeSave = func() {
		token, err := e.coordinator.TryHold(ctx, claims)
		require.NoError(t, err)
		_, err = inner.Save(ctx, &domain.Hold{
			Token:     token,
			SessionID: "session",
			FormID:    1,
			Claims:    claims,
			CreatedAt: e.clock.Now(),
			ExpiresAt: e.clock.Now().Add(10 * time.Minute),
		})
		require.NoError(t, err)
		foreign = token
	}

	hold, err := e.manager.Create(ctx, "session", form(1), claims)
	require.NoError(t, err)
	assert.Equal(t, 2, e.potential(t))

	_, err = e.manager.Get(ctx, foreign)
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)
	current, err := e.manager.Get(ctx, hold.Token)
	require.NoError(t, err)
	assert.Equal(t, hold.Token, current.Token)
}
