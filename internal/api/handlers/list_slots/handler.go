package list_slots

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	listSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/list_slots"
)

const (
	msgInvalidFormID         = "некорректный ID формы"
	msgInvalidNbPlacesToTake = "некорректное количество слотов"
	msgInvalidSeats          = "некорректное количество мест"
	msgInvalidDate           = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidRange          = "некорректный диапазон дат"
	msgFormNotFound          = "форма не найдена"
	msgFormNotConfigured     = "форма не настроена"
	msgFormInactive          = "форма недоступна для записи"
	msgFormNoLongerValid     = "срок действия формы истек"
)

type Handler struct {
	useCase ListSlotsUseCase
	logger  Logger
}

func NewHandler(useCase ListSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/forms/{formId}/slots
// Query params: from, to (YYYY-MM-DD, optional), nbPlacesToTake, seats (optional)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	formID, err := strconv.ParseInt(mux.Vars(r)["formId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /forms/{id}/slots - Invalid form ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidFormID)
		return
	}

	nbPlacesToTake, err := handlers.QueryInt(r, "nbPlacesToTake", 0)
	if err != nil {
		h.logger.Warn("GET /forms/{id}/slots - Invalid nbPlacesToTake: %v", err)
		handlers.RespondBadRequest(w, msgInvalidNbPlacesToTake)
		return
	}

	seats, err := handlers.QueryInt(r, "seats", 0)
	if err != nil {
		h.logger.Warn("GET /forms/{id}/slots - Invalid seats: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSeats)
		return
	}

	query := r.URL.Query()
	useCaseReq, err := ToUseCaseRequest(formID, query.Get("from"), query.Get("to"), nbPlacesToTake, seats)
	if err != nil {
		h.logger.Warn("GET /forms/{id}/slots - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, listSlots.ErrInvalidInput):
			h.logger.Warn("GET /forms/{id}/slots - Invalid input: form_id=%d, error=%v", formID, err)
			handlers.RespondBadRequest(w, msgInvalidRange)

		case errors.Is(err, listSlots.ErrFormNotFound):
			h.logger.Warn("GET /forms/{id}/slots - Form not found: form_id=%d", formID)
			handlers.RespondNotFound(w, msgFormNotFound)

		case errors.Is(err, listSlots.ErrNoSchedule):
			h.logger.Warn("GET /forms/{id}/slots - Form not configured: form_id=%d", formID)
			handlers.RespondNotFound(w, msgFormNotConfigured)

		case errors.Is(err, listSlots.ErrFormInactive):
			h.logger.Warn("GET /forms/{id}/slots - Form inactive: form_id=%d", formID)
			handlers.RespondForbidden(w, msgFormInactive)

		case errors.Is(err, listSlots.ErrFormNoLongerValid):
			h.logger.Warn("GET /forms/{id}/slots - Form no longer valid: form_id=%d", formID)
			handlers.RespondGone(w, msgFormNoLongerValid)

		default:
			h.logger.Error("GET /forms/{id}/slots - Failed to list slots: form_id=%d, error=%v", formID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /forms/{id}/slots - Slots retrieved successfully: form_id=%d, slots_count=%d",
		formID, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
