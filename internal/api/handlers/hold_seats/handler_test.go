package hold_seats

import (
	"context"
	"encoding/json"
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
	holdSeats "github.com/m04kA/SMC-AppointmentService/internal/usecase/hold_seats"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type fakeUseCase struct {
	got  *holdSeats.Request
	resp *holdSeats.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *holdSeats.Request) (*holdSeats.Response, error) {
	f.got = req
	return f.resp, f.err
}

func serve(h *Handler, session, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/forms/1/holds", strings.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"formId": "1"})
	if session != "" {
		req = req.WithContext(middleware.WithSessionID(req.Context(), session))
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandler_Created(t *testing.T) {
	start := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	uc := &fakeUseCase{resp: &holdSeats.Response{
		Token:     "tok",
		FormID:    1,
		Seats:     2,
		ExpiresAt: time.Date(2026, 3, 4, 10, 10, 0, 0, time.UTC),
		Slots:     []holdSeats.Slot{{ID: 3, StartingDateTime: start, EndingDateTime: start.Add(30 * time.Minute)}},
	}}
	h := NewHandler(uc, logger.NewNop())

	rec := serve(h, "s1", `{"startingDateTime":"2026-03-05T09:00","seats":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, "s1", uc.got.SessionID)
	assert.Equal(t, start, uc.got.StartingDateTime)
	assert.Equal(t, 2, uc.got.Seats)

	var body HoldResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "tok", body.Token)
	assert.Equal(t, "2026-03-04T10:10:00Z", body.ExpiresAt)
	require.Len(t, body.Slots, 1)
	assert.Equal(t, "2026-03-05T09:30", body.Slots[0].EndingDateTime)
}

func TestHandler_BadRequests(t *testing.T) {
	h := NewHandler(&fakeUseCase{}, logger.NewNop())

	assert.Equal(t, http.StatusUnauthorized, serve(h, "", `{"startingDateTime":"2026-03-05T09:00"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "s1", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "s1", `{"startingDateTime":"2026-03-05 09:00"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "s1", `{"startingDateTime":"2026-03-05T09:00","unknown":1}`).Code)
}

func TestHandler_SlotFullRedirects(t *testing.T) {
	h := NewHandler(&fakeUseCase{err: domain.ErrNotConsecutive}, logger.NewNop())

	rec := serve(h, "s1", `{"startingDateTime":"2026-03-05T09:00","nbPlacesToTake":3}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, handlers.RedirectSlots, body.Redirect)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: holdSeats.ErrInvalidInput, status: http.StatusBadRequest},
		{err: holdSeats.ErrFormNotFound, status: http.StatusNotFound},
		{err: holdSeats.ErrNoSchedule, status: http.StatusNotFound},
		{err: holdSeats.ErrFormInactive, status: http.StatusForbidden},
		{err: holdSeats.ErrOutsideWindow, status: http.StatusBadRequest},
		{err: holdSeats.ErrTooLate, status: http.StatusBadRequest},
		{err: holdSeats.ErrTooManySeats, status: http.StatusBadRequest},
		{err: fmt.Errorf("%w: boom", holdSeats.ErrInternal), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewHandler(&fakeUseCase{err: tt.err}, logger.NewNop())
			assert.Equal(t, tt.status, serve(h, "s1", `{"startingDateTime":"2026-03-05T09:00"}`).Code)
		})
	}
}
