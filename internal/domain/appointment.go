package domain

import (
	"fmt"
	"strings"
	"time"
)

// AppointmentSlot seats consumed on one slot
type AppointmentSlot struct {
	SlotID int64
	Seats  int
}

// Identity bookee identity used for cooldown and period cap checks
type Identity struct {
	Email    string
	UserGUID *string
}

// IsEmpty returns true if nothing identifies the bookee
func (i Identity) IsEmpty() bool {
	return strings.TrimSpace(i.Email) == "" && (i.UserGUID == nil || *i.UserGUID == "")
}

// LockKeys names the per-form locks that serialize commits of this identity.
// Lower-cased email and GUID each get a key since either one matches an appointment.
func (i Identity) LockKeys(formID int64) []string {
	keys := make([]string, 0, 2)
	if email := strings.ToLower(strings.TrimSpace(i.Email)); email != "" {
		keys = append(keys, fmt.Sprintf("form:%d:email:%s", formID, email))
	}
	if i.UserGUID != nil && *i.UserGUID != "" {
		keys = append(keys, fmt.Sprintf("form:%d:guid:%s", formID, *i.UserGUID))
	}
	return keys
}

// Appointment a committed booking
type Appointment struct {
	ID                int64
	Reference         string
	FormID            int64
	FirstName         string
	LastName          string
	Email             string
	UserGUID          *string // External user id, nil for anonymous bookings
	NbBookedSeats     int
	Slots             []AppointmentSlot
	StartingDateTime  time.Time // Start of the first slot
	EndingDateTime    time.Time // End of the last slot
	IsCancelled       bool
	CancelledAt       *time.Time
	IDActionCancelled int // Workflow action triggered on cancellation, 0 = none
	CreatedAt         time.Time
}

// IsActive returns true if the appointment is not cancelled
func (a *Appointment) IsActive() bool {
	return !a.IsCancelled
}

// Date returns the day of the appointment
func (a *Appointment) Date() time.Time {
	y, m, d := a.StartingDateTime.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.StartingDateTime.Location())
}

// HasStarted returns true if the appointment start is not in the future
func (a *Appointment) HasStarted(now time.Time) bool {
	return !a.StartingDateTime.After(now)
}

// Identity returns the bookee identity
func (a *Appointment) Identity() Identity {
	return Identity{Email: a.Email, UserGUID: a.UserGUID}
}

// BelongsTo returns true if the appointment was made by the identity (guid first, then email)
func (a *Appointment) BelongsTo(id Identity) bool {
	if id.UserGUID != nil && *id.UserGUID != "" && a.UserGUID != nil && *a.UserGUID == *id.UserGUID {
		return true
	}
	email := strings.TrimSpace(id.Email)
	return email != "" && strings.EqualFold(strings.TrimSpace(a.Email), email)
}

// Claims returns the seats consumed per slot as seat claims
func (a *Appointment) Claims() []SeatClaim {
	claims := make([]SeatClaim, 0, len(a.Slots))
	for _, s := range a.Slots {
		claims = append(claims, SeatClaim{SlotID: s.SlotID, Seats: s.Seats})
	}
	return claims
}
