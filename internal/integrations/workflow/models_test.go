package workflow

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

func TestNewEvent_Cancelled(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)
	a := &domain.Appointment{
		ID:                5,
		Reference:         "APT-0123456789ab",
		FormID:            2,
		Email:             "user@example.com",
		UserGUID:          ptr.Ptr("guid-1"),
		NbBookedSeats:     2,
		StartingDateTime:  time.Date(2026, 3, 2, 9, 0, 0, 0, moscow),
		EndingDateTime:    time.Date(2026, 3, 2, 10, 0, 0, 0, moscow),
		IDActionCancelled: 17,
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, moscow)

	event := NewEvent(EventAppointmentCancelled, a, a.IDActionCancelled, now)

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "appointment.cancelled", decoded["type"])
	assert.Equal(t, "APT-0123456789ab", decoded["reference"])
	assert.EqualValues(t, 17, decoded["idAction"])
	assert.Equal(t, "guid-1", decoded["userGuid"])
	assert.Equal(t, "2026-03-01T09:00:00Z", decoded["occurredAt"])
}

func TestNewEvent_CommittedOmitsAction(t *testing.T) {
	event := NewEvent(EventAppointmentCommitted, &domain.Appointment{Reference: "APT-x"}, 0, time.Now())

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "idAction")
	assert.NotContains(t, string(data), "userGuid")
}

func TestNoop(t *testing.T) {
	n := NewNoop()
	assert.NoError(t, n.AppointmentCommitted(context.Background(), &domain.Appointment{}))
	assert.NoError(t, n.AppointmentCancelled(context.Background(), &domain.Appointment{}, 3))
}
