package schedule

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// WeekDefinitionRepository источник недельных расписаний формы
type WeekDefinitionRepository interface {
	GetWeekDefinitions(ctx context.Context, formID int64) ([]*domain.WeekDefinition, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
