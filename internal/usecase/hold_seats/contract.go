package hold_seats

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedule"
	"github.com/m04kA/SMC-AppointmentService/internal/service/slots"
)

// FormRepository интерфейс репозитория форм
type FormRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.FormRules, error)
}

// ScheduleResolver интерфейс сервиса недельных расписаний
type ScheduleResolver interface {
	Resolve(ctx context.Context, formID int64, startDate, endDate time.Time) (*schedule.Resolution, error)
}

// SlotBuilder интерфейс сервиса слотов
type SlotBuilder interface {
	Build(ctx context.Context, form *domain.FormRules, resolution slots.WeekResolution, from, to time.Time, seatsRequested int) ([]*domain.Slot, error)
}

// Materializer сохраняет виртуальные слоты
type Materializer interface {
	MaterializeIfNeeded(ctx context.Context, slot *domain.Slot) (*domain.Slot, error)
}

// HoldManager интерфейс менеджера удержаний
type HoldManager interface {
	ReleaseSession(ctx context.Context, sessionID string, formID int64) error
	Create(ctx context.Context, sessionID string, form *domain.FormRules, claims []domain.SeatClaim) (*domain.Hold, error)
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
