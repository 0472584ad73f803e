package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const (
	msgInternalError = "внутренняя ошибка сервера"

	// RedirectSlots клиент должен вернуться к выбору слота
	RedirectSlots = "slots"
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Code     int         `json:"code"`
	Message  string      `json:"message"`
	Redirect string      `json:"redirect,omitempty"`
	Errors   []RuleError `json:"errors,omitempty"`
}

// RuleError нарушенное правило записи
type RuleError struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// RespondJSON пишет JSON ответ
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// RespondError пишет ошибку
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Code: status, Message: message})
}

// RespondBadRequest 400
func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

// RespondUnauthorized 401
func RespondUnauthorized(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusUnauthorized, message)
}

// RespondForbidden 403
func RespondForbidden(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusForbidden, message)
}

// RespondNotFound 404
func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

// RespondConflict 409
func RespondConflict(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusConflict, message)
}

// RespondGone 410
func RespondGone(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusGone, message)
}

// RespondSlotsRedirect 409 с возвратом к выбору слота
func RespondSlotsRedirect(w http.ResponseWriter, message string) {
	RespondJSON(w, http.StatusConflict, ErrorResponse{
		Code:     http.StatusConflict,
		Message:  message,
		Redirect: RedirectSlots,
	})
}

// RespondValidation 422 со всеми нарушенными правилами
func RespondValidation(w http.ResponseWriter, message string, errs domain.ValidationErrors) {
	resp := ErrorResponse{Code: http.StatusUnprocessableEntity, Message: message}
	for _, err := range errs {
		var ruleErr *domain.RuleError
		if errors.As(err, &ruleErr) {
			resp.Errors = append(resp.Errors, RuleError{Rule: ruleErr.Rule, Message: ruleErr.Err.Error()})
			continue
		}
		resp.Errors = append(resp.Errors, RuleError{Message: err.Error()})
	}
	RespondJSON(w, http.StatusUnprocessableEntity, resp)
}

// RespondInternalError 500
func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, msgInternalError)
}

// DecodeJSON читает тело запроса, неизвестные поля запрещены
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// QueryInt читает целый query параметр, пустой параметр дает def
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
