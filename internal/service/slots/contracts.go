package slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// SlotRepository источник сохраненных слотов с живыми счетчиками
type SlotRepository interface {
	GetByFormAndRange(ctx context.Context, formID int64, from, to time.Time) ([]*domain.Slot, error)
}

// WeekResolution расписания, действующие в окне отображения
type WeekResolution interface {
	DefinitionFor(day time.Time) *domain.WeekDefinition
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
