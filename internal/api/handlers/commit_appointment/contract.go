package commit_appointment

import (
	"context"

	commitAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/commit_appointment"
)

type CommitAppointmentUseCase interface {
	Execute(ctx context.Context, req *commitAppointment.Request) (*commitAppointment.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
