package cancel_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByReference(ctx context.Context, reference string) (*domain.Appointment, error)
	MarkCancelled(ctx context.Context, id int64, cancelledAt time.Time) error
}

// SeatRestorer возвращает места отмененной записи
type SeatRestorer interface {
	CancelCommitted(ctx context.Context, claims []domain.SeatClaim, write func(ctx context.Context) error) error
}

// Notifier уведомляет движок процессов об отмене
type Notifier interface {
	AppointmentCancelled(ctx context.Context, a *domain.Appointment, idAction int) error
}

// Metrics доменные метрики
type Metrics interface {
	AppointmentEvent(event string)
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
