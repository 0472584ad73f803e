package commit_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// HoldManager интерфейс менеджера удержаний
type HoldManager interface {
	GetOwned(ctx context.Context, token domain.HoldToken, sessionID string) (*domain.Hold, error)
	Claim(ctx context.Context, hold *domain.Hold) error
	ReleaseClaimed(ctx context.Context, hold *domain.Hold) error
}

// SeatCommitter фиксирует места удержания вместе с записью
type SeatCommitter interface {
	Commit(ctx context.Context, claims []domain.SeatClaim, bookedSeats int, write func(ctx context.Context) error) error
}

// FormRepository интерфейс репозитория форм
type FormRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.FormRules, error)
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error)
	FindActiveByIdentity(ctx context.Context, formID int64, identity domain.Identity) ([]*domain.Appointment, error)
	LockIdentity(ctx context.Context, formID int64, identity domain.Identity) error
}

// Notifier уведомляет движок процессов о новой записи
type Notifier interface {
	AppointmentCommitted(ctx context.Context, a *domain.Appointment) error
}

// Metrics доменные метрики
type Metrics interface {
	AppointmentEvent(event string)
	ValidationRejection(rule string)
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
