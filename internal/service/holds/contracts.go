package holds

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// HoldStore хранилище удержаний
type HoldStore interface {
	Save(ctx context.Context, hold *domain.Hold) (displaced domain.HoldToken, err error)
	Get(ctx context.Context, token domain.HoldToken) (*domain.Hold, error)
	GetBySession(ctx context.Context, sessionID string, formID int64) (*domain.Hold, error)
	Delete(ctx context.Context, hold *domain.Hold) (bool, error)
	List(ctx context.Context) ([]*domain.Hold, error)
}

// SeatCoordinator операции над счетчиками мест
type SeatCoordinator interface {
	TryHold(ctx context.Context, claims []domain.SeatClaim) (domain.HoldToken, error)
	Release(ctx context.Context, claims []domain.SeatClaim) error
}

// Metrics доменные метрики
type Metrics interface {
	HoldEvent(event string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
