package list_slots

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	listSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/list_slots"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type fakeUseCase struct {
	got  *listSlots.Request
	resp *listSlots.Response
	err  error
}

func (f *fakeUseCase) Execute(_ context.Context, req *listSlots.Request) (*listSlots.Response, error) {
	f.got = req
	return f.resp, f.err
}

func serve(h *Handler, formID, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/forms/"+formID+"/slots"+query, nil)
	req = mux.SetURLVars(req, map[string]string{"formId": formID})
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandler_OK(t *testing.T) {
	start := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	first := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	uc := &fakeUseCase{resp: &listSlots.Response{
		FormID:             1,
		From:               time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		To:                 time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		MinStartingTime:    types.TimeString("09:00"),
		MaxEndingTime:      types.TimeString("11:00"),
		OpenWeekdays:       []time.Weekday{time.Monday, time.Thursday},
		FirstAvailableDate: &first,
		Slots: []listSlots.Slot{
			{StartingDateTime: start, EndingDateTime: start.Add(30 * time.Minute), MaxCapacity: 2, NbRemainingPlaces: 2, NbPotentialRemainingPlaces: 2, IsOpen: true},
			{ID: 5, StartingDateTime: start.Add(30 * time.Minute), EndingDateTime: start.Add(time.Hour), MaxCapacity: 2, IsOpen: true, IsFull: true},
		},
	}}
	h := NewHandler(uc, logger.NewNop())

	rec := serve(h, "1", "?from=2026-03-04&nbPlacesToTake=2&seats=1")
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, uc.got.From)
	assert.Nil(t, uc.got.To)
	assert.Equal(t, 2, uc.got.NbPlacesToTake)
	assert.Equal(t, 1, uc.got.Seats)

	var body SlotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2026-03-04", body.From)
	assert.Equal(t, "09:00", body.MinStartingTime)
	assert.Equal(t, []int{1, 4}, body.OpenWeekdays)
	require.NotNil(t, body.FirstAvailableDate)
	assert.Equal(t, "2026-03-05", *body.FirstAvailableDate)
	require.Len(t, body.Slots, 2)
	assert.Nil(t, body.Slots[0].ID)
	assert.Equal(t, "2026-03-05T09:00", body.Slots[0].StartingDateTime)
	require.NotNil(t, body.Slots[1].ID)
	assert.True(t, body.Slots[1].IsFull)
}

func TestHandler_BadRequest(t *testing.T) {
	h := NewHandler(&fakeUseCase{}, logger.NewNop())

	assert.Equal(t, http.StatusBadRequest, serve(h, "abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "1", "?from=04/03/2026").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "1", "?nbPlacesToTake=two").Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, "1", "?seats=x").Code)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: listSlots.ErrInvalidInput, status: http.StatusBadRequest},
		{err: listSlots.ErrFormNotFound, status: http.StatusNotFound},
		{err: listSlots.ErrNoSchedule, status: http.StatusNotFound},
		{err: listSlots.ErrFormInactive, status: http.StatusForbidden},
		{err: listSlots.ErrFormNoLongerValid, status: http.StatusGone},
		{err: fmt.Errorf("%w: db down", listSlots.ErrInternal), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewHandler(&fakeUseCase{err: tt.err}, logger.NewNop())
			assert.Equal(t, tt.status, serve(h, "1", "").Code)
		})
	}
}
