package models

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// AppointmentResponse ответ с данными записи
type AppointmentResponse struct {
	Reference        string            `json:"reference"`
	FormID           int64             `json:"formId"`
	FirstName        string            `json:"firstName"`
	LastName         string            `json:"lastName"`
	Email            string            `json:"email,omitempty"`
	NbBookedSeats    int               `json:"nbBookedSeats"`
	StartingDateTime string            `json:"startingDateTime"` // "2026-03-02T09:00"
	EndingDateTime   string            `json:"endingDateTime"`
	Slots            []AppointmentSlot `json:"slots"`
	IsCancelled      bool              `json:"isCancelled"`
	CancelledAt      *string           `json:"cancelledAt,omitempty"`
	CreatedAt        string            `json:"createdAt"`
}

// AppointmentSlot места записи на одном слоте
type AppointmentSlot struct {
	SlotID int64 `json:"slotId"`
	Seats  int   `json:"seats"`
}

// FromDomainAppointment конвертирует domain модель в ответ
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	slots := make([]AppointmentSlot, 0, len(a.Slots))
	for _, s := range a.Slots {
		slots = append(slots, AppointmentSlot{SlotID: s.SlotID, Seats: s.Seats})
	}

	resp := &AppointmentResponse{
		Reference:        a.Reference,
		FormID:           a.FormID,
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		Email:            a.Email,
		NbBookedSeats:    a.NbBookedSeats,
		StartingDateTime: a.StartingDateTime.Format(domain.DateTimeFormat),
		EndingDateTime:   a.EndingDateTime.Format(domain.DateTimeFormat),
		Slots:            slots,
		IsCancelled:      a.IsCancelled,
		CreatedAt:        a.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	if a.CancelledAt != nil {
		cancelledAt := a.CancelledAt.Format("2006-01-02T15:04:05Z07:00")
		resp.CancelledAt = &cancelledAt
	}

	return resp
}
