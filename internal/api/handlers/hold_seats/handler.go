package hold_seats

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	holdSeats "github.com/m04kA/SMC-AppointmentService/internal/usecase/hold_seats"
)

const (
	msgInvalidFormID      = "некорректный ID формы"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateTime    = "некорректный формат начала слота, ожидается YYYY-MM-DDTHH:MM"
	msgMissingSessionID   = "отсутствует идентификатор сессии"
	msgInvalidInput       = "некорректные параметры удержания"
	msgFormNotFound       = "форма не найдена"
	msgFormNotConfigured  = "форма не настроена"
	msgFormInactive       = "форма недоступна для записи"
	msgOutsideWindow      = "слот вне периода записи"
	msgTooLate            = "слишком поздно для записи на этот слот"
	msgTooManySeats       = "превышено количество мест на одну запись"
	msgSlotFull           = "выбранный слот больше недоступен"
)

type Handler struct {
	useCase HoldSeatsUseCase
	logger  Logger
}

func NewHandler(useCase HoldSeatsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/forms/{formId}/holds
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	formID, err := strconv.ParseInt(mux.Vars(r)["formId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /forms/{id}/holds - Invalid form ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFormID)
		return
	}

	// Получаем сессию из контекста (через middleware Identity)
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		h.logger.Warn("POST /forms/{id}/holds - Missing session ID")
		handlers.RespondUnauthorized(w, msgMissingSessionID)
		return
	}

	var req HoldRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /forms/{id}/holds - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(formID, sessionID)
	if err != nil {
		h.logger.Warn("POST /forms/{id}/holds - Invalid starting date time: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSlotFull):
			h.logger.Warn("POST /forms/{id}/holds - Slot full: form_id=%d, start=%s", formID, req.StartingDateTime)
			handlers.RespondSlotsRedirect(w, msgSlotFull)

		case errors.Is(err, holdSeats.ErrInvalidInput):
			h.logger.Warn("POST /forms/{id}/holds - Invalid input: form_id=%d, error=%v", formID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, holdSeats.ErrFormNotFound):
			h.logger.Warn("POST /forms/{id}/holds - Form not found: form_id=%d", formID)
			handlers.RespondNotFound(w, msgFormNotFound)

		case errors.Is(err, holdSeats.ErrNoSchedule):
			h.logger.Warn("POST /forms/{id}/holds - Form not configured: form_id=%d", formID)
			handlers.RespondNotFound(w, msgFormNotConfigured)

		case errors.Is(err, holdSeats.ErrFormInactive):
			h.logger.Warn("POST /forms/{id}/holds - Form inactive: form_id=%d", formID)
			handlers.RespondForbidden(w, msgFormInactive)

		case errors.Is(err, holdSeats.ErrOutsideWindow):
			h.logger.Warn("POST /forms/{id}/holds - Outside window: form_id=%d, start=%s", formID, req.StartingDateTime)
			handlers.RespondBadRequest(w, msgOutsideWindow)

		case errors.Is(err, holdSeats.ErrTooLate):
			h.logger.Warn("POST /forms/{id}/holds - Too late: form_id=%d, start=%s", formID, req.StartingDateTime)
			handlers.RespondBadRequest(w, msgTooLate)

		case errors.Is(err, holdSeats.ErrTooManySeats):
			h.logger.Warn("POST /forms/{id}/holds - Too many seats: form_id=%d, seats=%d", formID, req.Seats)
			handlers.RespondBadRequest(w, msgTooManySeats)

		default:
			h.logger.Error("POST /forms/{id}/holds - Failed to hold seats: form_id=%d, error=%v", formID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /forms/{id}/holds - Seats held successfully: form_id=%d, slots_count=%d",
		formID, len(result.Slots))
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
