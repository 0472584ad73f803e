package commit_appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	commitAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/commit_appointment"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type fakeUseCase struct {
	got  *commitAppointment.Request
	resp *commitAppointment.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *commitAppointment.Request) (*commitAppointment.Response, error) {
	f.got = req
	return f.resp, f.err
}

const validBody = `{"firstName":"Jeanne","lastName":"Martin","email":"jeanne@example.org"}`

func serve(h *Handler, session, guid, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/holds/tok/appointment", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"token": "tok"})
	ctx := req.Context()
	if session != "" {
		ctx = middleware.WithSessionID(ctx, session)
	}
	if guid != "" {
		ctx = middleware.WithUserGUID(ctx, guid)
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req.WithContext(ctx))
	return rec
}

func TestHandler_Created(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	uc := &fakeUseCase{resp: &commitAppointment.Response{
		ID:               1,
		Reference:        "APT-0123456789AB",
		FormID:           1,
		NbBookedSeats:    1,
		StartingDateTime: start,
		EndingDateTime:   start.Add(time.Hour),
		SlotIDs:          []int64{4},
	}}
	h := NewHandler(uc, logger.NewNop())

	rec := serve(h, "s1", "user-1", validBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, "tok", uc.got.Token)
	assert.Equal(t, "s1", uc.got.SessionID)
	require.NotNil(t, uc.got.UserGUID)
	assert.Equal(t, "user-1", *uc.got.UserGUID)

	var body AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "APT-0123456789AB", body.Reference)
	assert.Equal(t, "2026-03-10T10:00", body.EndingDateTime)
}

func TestHandler_AnonymousHasNoGUID(t *testing.T) {
	uc := &fakeUseCase{resp: &commitAppointment.Response{}}
	h := NewHandler(uc, logger.NewNop())

	require.Equal(t, http.StatusCreated, serve(h, "s1", "", validBody).Code)
	assert.Nil(t, uc.got.UserGUID)
}

func TestHandler_ValidationReportsEveryRule(t *testing.T) {
	errs := domain.ValidationErrors{
		&domain.RuleError{Rule: domain.RuleLeadTime, Err: domain.ErrLeadTime},
		&domain.RuleError{Rule: domain.RuleCooldown, Err: domain.ErrCooldown},
	}
	h := NewHandler(&fakeUseCase{err: errs}, logger.NewNop())

	rec := serve(h, "s1", "", validBody)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Errors, 2)
	assert.Equal(t, domain.RuleLeadTime, body.Errors[0].Rule)
	assert.Equal(t, domain.RuleCooldown, body.Errors[1].Rule)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		err      error
		status   int
		redirect bool
	}{
		{err: fmt.Errorf("%w: slot 4", domain.ErrSlotFull), status: http.StatusConflict, redirect: true},
		{err: domain.ErrHoldExpired, status: http.StatusConflict, redirect: true},
		{err: domain.ErrHoldNotFound, status: http.StatusNotFound},
		{err: domain.ErrHoldNotOwned, status: http.StatusForbidden},
		{err: commitAppointment.ErrInvalidInput, status: http.StatusBadRequest},
		{err: commitAppointment.ErrEmailRequired, status: http.StatusBadRequest},
		{err: commitAppointment.ErrFormNotFound, status: http.StatusNotFound},
		{err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewHandler(&fakeUseCase{err: tt.err}, logger.NewNop())
			rec := serve(h, "s1", "", validBody)
			require.Equal(t, tt.status, rec.Code)

			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.redirect {
				assert.Equal(t, handlers.RedirectSlots, body.Redirect)
			} else {
				assert.Empty(t, body.Redirect)
			}
		})
	}
}

func TestHandler_BadRequests(t *testing.T) {
	h := NewHandler(&fakeUseCase{}, logger.NewNop())

	assert.Equal(t, http.StatusUnauthorized, serve(h, "", "", validBody).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "s1", "", `not json`).Code)
}
