package commit_appointment

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	commitAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/commit_appointment"
)

// CommitRequest HTTP request model
type CommitRequest struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email,omitempty"`
	NbBookedSeats int    `json:"nbBookedSeats,omitempty"`
}

// AppointmentResponse HTTP response model
type AppointmentResponse struct {
	ID               int64   `json:"id"`
	Reference        string  `json:"reference"`
	FormID           int64   `json:"formId"`
	NbBookedSeats    int     `json:"nbBookedSeats"`
	StartingDateTime string  `json:"startingDateTime"` // "2026-03-02T09:00"
	EndingDateTime   string  `json:"endingDateTime"`
	SlotIDs          []int64 `json:"slotIds"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CommitRequest) ToUseCaseRequest(token, sessionID string, userGUID *string) *commitAppointment.Request {
	return &commitAppointment.Request{
		Token:         token,
		SessionID:     sessionID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		UserGUID:      userGUID,
		NbBookedSeats: r.NbBookedSeats,
	}
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *commitAppointment.Response) *AppointmentResponse {
	return &AppointmentResponse{
		ID:               resp.ID,
		Reference:        resp.Reference,
		FormID:           resp.FormID,
		NbBookedSeats:    resp.NbBookedSeats,
		StartingDateTime: resp.StartingDateTime.Format(domain.DateTimeFormat),
		EndingDateTime:   resp.EndingDateTime.Format(domain.DateTimeFormat),
		SlotIDs:          resp.SlotIDs,
	}
}
