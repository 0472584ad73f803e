package domain

import "time"

// SlotKey natural identity of a slot, unique per form
type SlotKey struct {
	FormID           int64
	StartingDateTime time.Time
}

// Slot a bookable time interval of a form.
// ID == 0 means the slot is virtual (computed from the week definition, not persisted yet).
//
// Counters satisfy 0 <= NbPotentialRemainingPlaces <= NbRemainingPlaces <= MaxCapacity:
// potential places are decremented at hold time, confirmed ones only at commit,
// so potential never exceeds confirmed.
type Slot struct {
	ID                         int64
	FormID                     int64
	StartingDateTime           time.Time
	EndingDateTime             time.Time
	MaxCapacity                int
	NbRemainingPlaces          int // Confirmed remaining
	NbPotentialRemainingPlaces int // Not committed and not held
	IsOpen                     bool
}

// NewVirtualSlot creates a not yet persisted slot with full counters
func NewVirtualSlot(formID int64, start, end time.Time, capacity int, isOpen bool) *Slot {
	return &Slot{
		FormID:                     formID,
		StartingDateTime:           start,
		EndingDateTime:             end,
		MaxCapacity:                capacity,
		NbRemainingPlaces:          capacity,
		NbPotentialRemainingPlaces: capacity,
		IsOpen:                     isOpen,
	}
}

// Key returns the natural identity of the slot
func (s *Slot) Key() SlotKey {
	return SlotKey{FormID: s.FormID, StartingDateTime: s.StartingDateTime}
}

// IsVirtual returns true if the slot is not persisted yet
func (s *Slot) IsVirtual() bool {
	return s.ID == 0
}

// IsAvailable returns true if the slot is open and has at least seats potential places
func (s *Slot) IsAvailable(seats int) bool {
	return s.IsOpen && s.NbPotentialRemainingPlaces >= seats && s.NbPotentialRemainingPlaces > 0
}

// IsFull returns true if no seat can be held anymore
func (s *Slot) IsFull() bool {
	return s.NbPotentialRemainingPlaces <= 0
}

// Date returns the day of the slot (midnight, slot location)
func (s *Slot) Date() time.Time {
	y, m, d := s.StartingDateTime.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.StartingDateTime.Location())
}

// CountersValid checks the counter invariant
func (s *Slot) CountersValid() bool {
	return s.NbPotentialRemainingPlaces >= 0 &&
		s.NbPotentialRemainingPlaces <= s.NbRemainingPlaces &&
		s.NbRemainingPlaces <= s.MaxCapacity
}

// Clone returns a copy of the slot
func (s *Slot) Clone() *Slot {
	c := *s
	return &c
}
