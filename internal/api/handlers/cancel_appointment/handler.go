package cancel_appointment

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	cancelAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/cancel_appointment"
)

const (
	msgInvalidReference   = "некорректный код записи"
	msgNotFound           = "запись не найдена"
	msgForbidden          = "доступ запрещен"
	msgAlreadyCancelled   = "запись уже отменена"
	msgAppointmentStarted = "запись уже началась, отмена невозможна"
)

type Handler struct {
	useCase CancelAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase CancelAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/appointments/{reference}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reference := mux.Vars(r)["reference"]

	result, err := h.useCase.Execute(r.Context(), &cancelAppointment.Request{
		Reference: reference,
		UserGUID:  middleware.GetUserGUID(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, cancelAppointment.ErrInvalidInput):
			h.logger.Warn("PATCH /appointments/{reference}/cancel - Invalid reference: %v", err)
			handlers.RespondBadRequest(w, msgInvalidReference)

		case errors.Is(err, cancelAppointment.ErrAppointmentNotFound):
			h.logger.Warn("PATCH /appointments/{reference}/cancel - Appointment not found: reference=%s", reference)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, cancelAppointment.ErrAccessDenied):
			h.logger.Warn("PATCH /appointments/{reference}/cancel - Access denied: reference=%s", reference)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, domain.ErrAlreadyCancelled):
			h.logger.Warn("PATCH /appointments/{reference}/cancel - Already cancelled: reference=%s", reference)
			handlers.RespondConflict(w, msgAlreadyCancelled)

		case errors.Is(err, domain.ErrAppointmentPassed):
			h.logger.Warn("PATCH /appointments/{reference}/cancel - Appointment started: reference=%s", reference)
			handlers.RespondConflict(w, msgAppointmentStarted)

		default:
			h.logger.Error("PATCH /appointments/{reference}/cancel - Failed to cancel appointment: reference=%s, error=%v",
				reference, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /appointments/{reference}/cancel - Appointment cancelled successfully: reference=%s", reference)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
