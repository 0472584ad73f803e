package release_hold

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const (
	msgMissingToken     = "отсутствует токен удержания"
	msgMissingSessionID = "отсутствует идентификатор сессии"
	msgHoldNotFound     = "удержание не найдено"
	msgHoldExpired      = "срок удержания истек"
	msgForbidden        = "доступ запрещен"
)

type Handler struct {
	service HoldService
	logger  Logger
}

func NewHandler(service HoldService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle DELETE /api/v1/holds/{token}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(mux.Vars(r)["token"])
	if token == "" {
		h.logger.Warn("DELETE /holds/{token} - Missing token")
		handlers.RespondBadRequest(w, msgMissingToken)
		return
	}

	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		h.logger.Warn("DELETE /holds/{token} - Missing session ID")
		handlers.RespondUnauthorized(w, msgMissingSessionID)
		return
	}

	if err := h.service.Cancel(r.Context(), domain.HoldToken(token), sessionID); err != nil {
		switch {
		case errors.Is(err, domain.ErrHoldNotFound):
			h.logger.Warn("DELETE /holds/{token} - Hold not found: token=%s", token)
			handlers.RespondNotFound(w, msgHoldNotFound)

		case errors.Is(err, domain.ErrHoldExpired):
			h.logger.Warn("DELETE /holds/{token} - Hold expired: token=%s", token)
			handlers.RespondGone(w, msgHoldExpired)

		case errors.Is(err, domain.ErrHoldNotOwned):
			h.logger.Warn("DELETE /holds/{token} - Access denied: token=%s, session=%s", token, sessionID)
			handlers.RespondForbidden(w, msgForbidden)

		default:
			h.logger.Error("DELETE /holds/{token} - Failed to release hold: token=%s, error=%v", token, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /holds/{token} - Hold released successfully: token=%s", token)
	w.WriteHeader(http.StatusNoContent)
}
