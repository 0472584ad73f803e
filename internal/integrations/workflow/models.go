package workflow

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Типы событий
const (
	EventAppointmentCommitted = "appointment.committed"
	EventAppointmentCancelled = "appointment.cancelled"
)

// Event событие для движка процессов
type Event struct {
	Type             string    `json:"type"`
	Reference        string    `json:"reference"`
	AppointmentID    int64     `json:"appointmentId"`
	FormID           int64     `json:"formId"`
	IDAction         int       `json:"idAction,omitempty"` // Действие процесса при отмене
	Email            string    `json:"email,omitempty"`
	UserGUID         *string   `json:"userGuid,omitempty"`
	NbBookedSeats    int       `json:"nbBookedSeats"`
	StartingDateTime time.Time `json:"startingDateTime"`
	EndingDateTime   time.Time `json:"endingDateTime"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// NewEvent создает событие по записи
func NewEvent(eventType string, a *domain.Appointment, idAction int, now time.Time) Event {
	return Event{
		Type:             eventType,
		Reference:        a.Reference,
		AppointmentID:    a.ID,
		FormID:           a.FormID,
		IDAction:         idAction,
		Email:            a.Email,
		UserGUID:         a.UserGUID,
		NbBookedSeats:    a.NbBookedSeats,
		StartingDateTime: a.StartingDateTime,
		EndingDateTime:   a.EndingDateTime,
		OccurredAt:       now.UTC(),
	}
}
