package domain

import "time"

// HoldToken opaque identifier of a hold
type HoldToken string

// SeatClaim seats taken on one slot
type SeatClaim struct {
	SlotID int64
	Seats  int
}

// Hold temporary reservation of potential places while a user fills the form.
// Never persisted in the database.
type Hold struct {
	Token     HoldToken
	SessionID string
	FormID    int64
	Claims    []SeatClaim
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired returns true if the deadline has passed
func (h *Hold) IsExpired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// SlotIDs returns ids of the held slots
func (h *Hold) SlotIDs() []int64 {
	ids := make([]int64, 0, len(h.Claims))
	for _, c := range h.Claims {
		ids = append(ids, c.SlotID)
	}
	return ids
}

// SeatsPerSlot returns the number of seats held on each slot (the same for every slot)
func (h *Hold) SeatsPerSlot() int {
	if len(h.Claims) == 0 {
		return 0
	}
	return h.Claims[0].Seats
}
