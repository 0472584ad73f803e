package release_hold

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type HoldService interface {
	Cancel(ctx context.Context, token domain.HoldToken, sessionID string) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
