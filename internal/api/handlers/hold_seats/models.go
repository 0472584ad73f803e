package hold_seats

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	holdSeats "github.com/m04kA/SMC-AppointmentService/internal/usecase/hold_seats"
)

// HoldRequest HTTP request model
type HoldRequest struct {
	StartingDateTime string `json:"startingDateTime"` // "2026-03-02T09:00"
	NbPlacesToTake   int    `json:"nbPlacesToTake,omitempty"`
	Seats            int    `json:"seats,omitempty"`
}

// HoldResponse HTTP response model
type HoldResponse struct {
	Token     string             `json:"token"`
	FormID    int64              `json:"formId"`
	Seats     int                `json:"seats"`
	ExpiresAt string             `json:"expiresAt"`
	Slots     []HeldSlotResponse `json:"slots"`
}

// HeldSlotResponse удержанный слот
type HeldSlotResponse struct {
	ID               int64  `json:"id"`
	StartingDateTime string `json:"startingDateTime"`
	EndingDateTime   string `json:"endingDateTime"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *HoldRequest) ToUseCaseRequest(formID int64, sessionID string) (*holdSeats.Request, error) {
	start, err := time.Parse(domain.DateTimeFormat, r.StartingDateTime)
	if err != nil {
		return nil, err
	}

	return &holdSeats.Request{
		FormID:           formID,
		SessionID:        sessionID,
		StartingDateTime: start,
		NbPlacesToTake:   r.NbPlacesToTake,
		Seats:            r.Seats,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *holdSeats.Response) *HoldResponse {
	out := &HoldResponse{
		Token:     resp.Token,
		FormID:    resp.FormID,
		Seats:     resp.Seats,
		ExpiresAt: resp.ExpiresAt.Format(time.RFC3339),
		Slots:     make([]HeldSlotResponse, 0, len(resp.Slots)),
	}
	for _, s := range resp.Slots {
		out.Slots = append(out.Slots, HeldSlotResponse{
			ID:               s.ID,
			StartingDateTime: s.StartingDateTime.Format(domain.DateTimeFormat),
			EndingDateTime:   s.EndingDateTime.Format(domain.DateTimeFormat),
		})
	}
	return out
}
