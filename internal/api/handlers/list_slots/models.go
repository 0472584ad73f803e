package list_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	listSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/list_slots"
)

// SlotsResponse HTTP response model
type SlotsResponse struct {
	FormID             int64          `json:"formId"`
	From               string         `json:"from"` // "2026-03-02"
	To                 string         `json:"to"`
	MinStartingTime    string         `json:"minStartingTime,omitempty"` // "09:00"
	MaxEndingTime      string         `json:"maxEndingTime,omitempty"`
	OpenWeekdays       []int          `json:"openWeekdays"` // 0 = воскресенье
	FirstAvailableDate *string        `json:"firstAvailableDate,omitempty"`
	Slots              []SlotResponse `json:"slots"`
}

// SlotResponse HTTP slot model
type SlotResponse struct {
	ID                         *int64 `json:"id,omitempty"`
	StartingDateTime           string `json:"startingDateTime"` // "2026-03-02T09:00"
	EndingDateTime             string `json:"endingDateTime"`
	MaxCapacity                int    `json:"maxCapacity"`
	NbRemainingPlaces          int    `json:"nbRemainingPlaces"`
	NbPotentialRemainingPlaces int    `json:"nbPotentialRemainingPlaces"`
	IsOpen                     bool   `json:"isOpen"`
	IsFull                     bool   `json:"isFull"`
}

// ToUseCaseRequest конвертирует параметры запроса в модель use case
func ToUseCaseRequest(formID int64, from, to string, nbPlacesToTake, seats int) (*listSlots.Request, error) {
	req := &listSlots.Request{
		FormID:         formID,
		NbPlacesToTake: nbPlacesToTake,
		Seats:          seats,
	}

	if from != "" {
		d, err := time.Parse(domain.DateFormat, from)
		if err != nil {
			return nil, err
		}
		req.From = &d
	}
	if to != "" {
		d, err := time.Parse(domain.DateFormat, to)
		if err != nil {
			return nil, err
		}
		req.To = &d
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *listSlots.Response) *SlotsResponse {
	out := &SlotsResponse{
		FormID:       resp.FormID,
		OpenWeekdays: make([]int, 0, len(resp.OpenWeekdays)),
		Slots:        make([]SlotResponse, 0, len(resp.Slots)),
	}
	if !resp.From.IsZero() {
		out.From = resp.From.Format(domain.DateFormat)
		out.To = resp.To.Format(domain.DateFormat)
	}
	if !resp.MinStartingTime.IsZero() {
		out.MinStartingTime = resp.MinStartingTime.String()
		out.MaxEndingTime = resp.MaxEndingTime.String()
	}
	for _, wd := range resp.OpenWeekdays {
		out.OpenWeekdays = append(out.OpenWeekdays, int(wd))
	}
	if resp.FirstAvailableDate != nil {
		d := resp.FirstAvailableDate.Format(domain.DateFormat)
		out.FirstAvailableDate = &d
	}

	for _, s := range resp.Slots {
		slot := SlotResponse{
			StartingDateTime:           s.StartingDateTime.Format(domain.DateTimeFormat),
			EndingDateTime:             s.EndingDateTime.Format(domain.DateTimeFormat),
			MaxCapacity:                s.MaxCapacity,
			NbRemainingPlaces:          s.NbRemainingPlaces,
			NbPotentialRemainingPlaces: s.NbPotentialRemainingPlaces,
			IsOpen:                     s.IsOpen,
			IsFull:                     s.IsFull,
		}
		if s.ID != 0 {
			id := s.ID
			slot.ID = &id
		}
		out.Slots = append(out.Slots, slot)
	}

	return out
}
