package holds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/keylock"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

const (
	defaultBaseTTL    = 10 * time.Minute
	defaultPerSeatTTL = 0
)

// Manager ведет удержания мест: одно активное на пару (сессия, форма),
// срок жизни зависит от числа людей в записи, истекшие удержания
// освобождаются лениво при обращении ровно один раз.
type Manager struct {
	store        HoldStore
	coordinator  SeatCoordinator
	metrics      Metrics
	logger       Logger
	timeProvider TimeProvider
	sessions     *keylock.KeyLock[string]
	baseTTL      time.Duration
	perSeatTTL   time.Duration
}

// Option настройка менеджера
type Option func(*Manager)

// WithBaseTTL задает базовый срок жизни удержания
func WithBaseTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.baseTTL = d
		}
	}
}

// WithPerSeatTTL задает добавку к сроку за каждого человека сверх первого
func WithPerSeatTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.perSeatTTL = d
		}
	}
}

// WithTimeProvider подменяет источник времени
func WithTimeProvider(tp TimeProvider) Option {
	return func(m *Manager) {
		if tp != nil {
			m.timeProvider = tp
		}
	}
}

// NewManager создает менеджер удержаний
func NewManager(store HoldStore, coordinator SeatCoordinator, m Metrics, logger Logger, opts ...Option) *Manager {
	mgr := &Manager{
		store:        store,
		coordinator:  coordinator,
		metrics:      m,
		logger:       logger,
		timeProvider: &RealTimeProvider{},
		sessions:     keylock.New[string](),
		baseTTL:      defaultBaseTTL,
		perSeatTTL:   defaultPerSeatTTL,
	}
	for _, opt := range opts {
		opt(mgr)
	}
	return mgr
}

// TTL срок жизни удержания для формы
func (m *Manager) TTL(form *domain.FormRules) time.Duration {
	extra := form.MaxSeats() - 1
	if extra < 0 {
		extra = 0
	}
	return m.baseTTL + time.Duration(extra)*m.perSeatTTL
}

// Create удерживает места на слотах. Предыдущее удержание этой сессии на форме освобождается.
func (m *Manager) Create(ctx context.Context, sessionID string, form *domain.FormRules, claims []domain.SeatClaim) (*domain.Hold, error) {
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	// создания в одной паре (сессия, форма) идут по очереди
	unlock := m.sessions.Lock(fmt.Sprintf("%s:%d", sessionID, form.ID))
	defer unlock()

	// 1. Освобождаем предыдущее удержание сессии
	if err := m.ReleaseSession(ctx, sessionID, form.ID); err != nil {
		return nil, err
	}

	// 2. Удерживаем места
	token, err := m.coordinator.TryHold(ctx, claims)
	if err != nil {
		return nil, err
	}

	// 3. Сохраняем удержание
	now := m.timeProvider.Now()
	hold := &domain.Hold{
		Token:     token,
		SessionID: sessionID,
		FormID:    form.ID,
		Claims:    claims,
		CreatedAt: now,
		ExpiresAt: now.Add(m.TTL(form)),
	}

	displaced, err := m.store.Save(ctx, hold)
	if err != nil {
		m.logger.Error("Create: failed to save hold %s: %v", token, err)
		if relErr := m.coordinator.Release(ctx, claims); relErr != nil {
			m.logger.Error("Create: failed to release seats of unsaved hold %s: %v", token, relErr)
		}
		return nil, fmt.Errorf("%w: Create - store error: %v", ErrInternal, err)
	}

	// 4. Удержание, созданное параллельно другим экземпляром, освобождается
	if displaced != "" {
		m.releaseDisplaced(ctx, displaced)
	}

	m.metrics.HoldEvent(metrics.HoldCreated)
	m.logger.Info("Create: hold %s session=%s form=%d slots=%v expires=%s",
		token, sessionID, form.ID, hold.SlotIDs(), hold.ExpiresAt.Format(time.RFC3339))

	return hold, nil
}

// ReleaseSession освобождает текущее удержание сессии на форме, если оно есть
func (m *Manager) ReleaseSession(ctx context.Context, sessionID string, formID int64) error {
	previous, err := m.store.GetBySession(ctx, sessionID, formID)
	if err != nil {
		if errors.Is(err, domain.ErrHoldNotFound) {
			return nil
		}
		m.logger.Error("ReleaseSession: failed to get hold session=%s form=%d: %v", sessionID, formID, err)
		return fmt.Errorf("%w: ReleaseSession - store error: %v", ErrInternal, err)
	}
	return m.drop(ctx, previous, metrics.HoldReleased)
}

func (m *Manager) releaseDisplaced(ctx context.Context, token domain.HoldToken) {
	previous, err := m.store.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, domain.ErrHoldNotFound) {
			m.logger.Warn("Create: failed to get displaced hold %s: %v", token, err)
		}
		return
	}
	if err := m.drop(ctx, previous, metrics.HoldReleased); err != nil {
		m.logger.Warn("Create: failed to release displaced hold %s: %v", token, err)
	}
}

// Get возвращает активное удержание. Истекшее удержание освобождается
// и возвращается domain.ErrHoldExpired.
func (m *Manager) Get(ctx context.Context, token domain.HoldToken) (*domain.Hold, error) {
	hold, err := m.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrHoldNotFound) {
			return nil, domain.ErrHoldNotFound
		}
		m.logger.Error("Get: failed to get hold %s: %v", token, err)
		return nil, fmt.Errorf("%w: Get - store error: %v", ErrInternal, err)
	}

	if hold.IsExpired(m.timeProvider.Now()) {
		if err := m.drop(ctx, hold, metrics.HoldExpired); err != nil {
			return nil, err
		}
		return nil, domain.ErrHoldExpired
	}

	return hold, nil
}

// GetOwned то же, что Get, но удержание должно принадлежать сессии
func (m *Manager) GetOwned(ctx context.Context, token domain.HoldToken, sessionID string) (*domain.Hold, error) {
	hold, err := m.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if sessionID != "" && hold.SessionID != sessionID {
		return nil, domain.ErrHoldNotOwned
	}
	return hold, nil
}

// Claim поглощает удержание перед фиксацией записи. Места остаются списанными из potential,
// дальше ими распоряжается вызывающий. Повторный Claim того же удержания вернет domain.ErrHoldNotFound.
func (m *Manager) Claim(ctx context.Context, hold *domain.Hold) error {
	deleted, err := m.store.Delete(ctx, hold)
	if err != nil {
		m.logger.Error("Claim: failed to delete hold %s: %v", hold.Token, err)
		return fmt.Errorf("%w: Claim - store error: %v", ErrInternal, err)
	}
	if !deleted {
		return domain.ErrHoldNotFound
	}

	m.metrics.HoldEvent(metrics.HoldClaimed)
	return nil
}

// ReleaseClaimed возвращает места поглощенного удержания, если запись не состоялась
func (m *Manager) ReleaseClaimed(ctx context.Context, hold *domain.Hold) error {
	if err := m.coordinator.Release(ctx, hold.Claims); err != nil {
		m.logger.Error("ReleaseClaimed: hold %s: %v", hold.Token, err)
		return err
	}
	m.metrics.HoldEvent(metrics.HoldReleased)
	return nil
}

// Cancel освобождает удержание по запросу пользователя
func (m *Manager) Cancel(ctx context.Context, token domain.HoldToken, sessionID string) error {
	hold, err := m.GetOwned(ctx, token, sessionID)
	if err != nil {
		return err
	}
	return m.drop(ctx, hold, metrics.HoldReleased)
}

// SweepExpired освобождает все истекшие удержания и возвращает их количество
func (m *Manager) SweepExpired(ctx context.Context) (int, error) {
	all, err := m.store.List(ctx)
	if err != nil {
		m.logger.Error("SweepExpired: failed to list holds: %v", err)
		return 0, fmt.Errorf("%w: SweepExpired - store error: %v", ErrInternal, err)
	}

	now := m.timeProvider.Now()
	swept := 0
	for _, hold := range all {
		if !hold.IsExpired(now) {
			continue
		}
		if err := m.drop(ctx, hold, metrics.HoldExpired); err != nil {
			m.logger.Warn("SweepExpired: hold %s: %v", hold.Token, err)
			continue
		}
		swept++
	}

	return swept, nil
}

// drop удаляет удержание и возвращает места. Места возвращает только тот,
// кто действительно удалил удержание.
func (m *Manager) drop(ctx context.Context, hold *domain.Hold, event string) error {
	deleted, err := m.store.Delete(ctx, hold)
	if err != nil {
		m.logger.Error("drop: failed to delete hold %s: %v", hold.Token, err)
		return fmt.Errorf("%w: drop - store error: %v", ErrInternal, err)
	}
	if !deleted {
		return nil
	}

	if err := m.coordinator.Release(ctx, hold.Claims); err != nil {
		m.logger.Error("drop: failed to release seats of hold %s: %v", hold.Token, err)
		return fmt.Errorf("%w: drop - release error: %v", ErrInternal, err)
	}

	m.metrics.HoldEvent(event)
	m.logger.Info("drop: hold %s %s, slots=%v", hold.Token, event, hold.SlotIDs())
	return nil
}
