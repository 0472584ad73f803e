package form

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

func TestDecodeDays(t *testing.T) {
	raw := []byte(`[
		{"weekday":1,"isOpen":true,"workingHours":[{"start":"09:00","end":"12:00"},{"start":"14:00","end":"17:30"}],"slotDurationMinutes":30,"maxCapacity":2},
		{"weekday":0,"isOpen":false,"workingHours":[],"slotDurationMinutes":30,"maxCapacity":0}
	]`)

	days, err := decodeDays(raw)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, time.Monday, days[0].Weekday)
	assert.True(t, days[0].IsOpen)
	assert.Equal(t, types.TimeString("14:00"), days[0].WorkingHours[1].Start)
	assert.Equal(t, 2, days[0].MaxCapacity)
	assert.Equal(t, time.Sunday, days[1].Weekday)
}

func TestDecodeDays_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad json":      `{`,
		"bad weekday":   `[{"weekday":9}]`,
		"bad hour text": `[{"weekday":1,"workingHours":[{"start":"9h","end":"10:00"}]}]`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := decodeDays([]byte(raw))
			assert.Error(t, err)
		})
	}
}
