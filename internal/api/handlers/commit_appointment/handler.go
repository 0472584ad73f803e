package commit_appointment

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	commitAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/commit_appointment"
)

const (
	msgMissingToken       = "отсутствует токен удержания"
	msgMissingSessionID   = "отсутствует идентификатор сессии"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "некорректные данные записи"
	msgEmailRequired      = "для этой формы email обязателен"
	msgHoldNotFound       = "удержание не найдено"
	msgHoldExpired        = "срок удержания истек, выберите слот заново"
	msgForbidden          = "доступ запрещен"
	msgFormNotFound       = "форма не найдена"
	msgSlotFull           = "выбранный слот больше недоступен"
	msgRulesViolated      = "запись нарушает правила формы"
)

type Handler struct {
	useCase CommitAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase CommitAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/holds/{token}/appointment
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(mux.Vars(r)["token"])
	if token == "" {
		h.logger.Warn("POST /holds/{token}/appointment - Missing token")
		handlers.RespondBadRequest(w, msgMissingToken)
		return
	}

	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		h.logger.Warn("POST /holds/{token}/appointment - Missing session ID")
		handlers.RespondUnauthorized(w, msgMissingSessionID)
		return
	}

	var req CommitRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /holds/{token}/appointment - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	userGUID := middleware.GetUserGUID(r.Context())
	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(token, sessionID, userGUID))
	if err != nil {
		var validationErrs domain.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			h.logger.Warn("POST /holds/{token}/appointment - Rules violated: token=%s, rules=%v", token, validationErrs.Rules())
			handlers.RespondValidation(w, msgRulesViolated, validationErrs)

		case errors.Is(err, domain.ErrSlotFull):
			h.logger.Warn("POST /holds/{token}/appointment - Slot full: token=%s", token)
			handlers.RespondSlotsRedirect(w, msgSlotFull)

		case errors.Is(err, domain.ErrHoldExpired):
			h.logger.Warn("POST /holds/{token}/appointment - Hold expired: token=%s", token)
			handlers.RespondSlotsRedirect(w, msgHoldExpired)

		case errors.Is(err, domain.ErrHoldNotFound):
			h.logger.Warn("POST /holds/{token}/appointment - Hold not found: token=%s", token)
			handlers.RespondNotFound(w, msgHoldNotFound)

		case errors.Is(err, domain.ErrHoldNotOwned):
			h.logger.Warn("POST /holds/{token}/appointment - Access denied: token=%s, session=%s", token, sessionID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, commitAppointment.ErrInvalidInput):
			h.logger.Warn("POST /holds/{token}/appointment - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, commitAppointment.ErrEmailRequired):
			h.logger.Warn("POST /holds/{token}/appointment - Email required: token=%s", token)
			handlers.RespondBadRequest(w, msgEmailRequired)

		case errors.Is(err, commitAppointment.ErrFormNotFound):
			h.logger.Warn("POST /holds/{token}/appointment - Form not found: token=%s", token)
			handlers.RespondNotFound(w, msgFormNotFound)

		default:
			h.logger.Error("POST /holds/{token}/appointment - Failed to commit appointment: token=%s, error=%v", token, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /holds/{token}/appointment - Appointment created successfully: reference=%s, form_id=%d",
		result.Reference, result.FormID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
