package domain

import "time"

// FormRules appointment form configuration consumed by the reservation engine
type FormRules struct {
	ID                              int64
	Title                           string
	IsActive                        bool
	StartingValidityDate            *time.Time // nil = form has no validity window
	EndingValidityDate              *time.Time // nil = open-ended
	NbWeeksToDisplay                int
	MaxPeoplePerAppointment         int
	MinTimeBeforeAppointment        int  // Hours
	IsMultislotAppointment          bool // Several consecutive slots per appointment
	NbDaysBeforeNewAppointment      int  // 0 = no cooldown
	NbMaxAppointmentsPerUser        int  // 0 = no cap
	NbDaysForMaxAppointmentsPerUser int
	EnableMandatoryEmail            bool
	IDWorkflowActionCancel          int // 0 = no workflow notification on cancel
	CreatedAt                       time.Time
	UpdatedAt                       time.Time
}

// HasValidityWindow returns true if the form has a starting validity date
func (f *FormRules) HasValidityWindow() bool {
	return f.StartingValidityDate != nil
}

// HasCooldown returns true if repeat appointments are spaced
func (f *FormRules) HasCooldown() bool {
	return f.NbDaysBeforeNewAppointment > 0
}

// HasPeriodCap returns true if the number of appointments per period is capped
func (f *FormRules) HasPeriodCap() bool {
	return f.EnableMandatoryEmail && f.NbMaxAppointmentsPerUser > 0
}

// MaxSeats returns the maximum number of seats per appointment (at least 1)
func (f *FormRules) MaxSeats() int {
	if f.MaxPeoplePerAppointment < 1 {
		return DefaultMaxPeoplePerAppointment
	}
	return f.MaxPeoplePerAppointment
}

// DisplayWindow returns the days a user may browse, both ends inclusive.
// Starts at max(today, validity start) and ends on the Sunday of the
// NbWeeksToDisplay-th week, clamped to the validity end.
func (f *FormRules) DisplayWindow(now time.Time) (time.Time, time.Time, error) {
	if !f.IsActive {
		return time.Time{}, time.Time{}, ErrFormInactive
	}
	if !f.HasValidityWindow() {
		return time.Time{}, time.Time{}, ErrNoValidityWindow
	}

	start := StartOfDay(now)
	if validityStart := DateIn(*f.StartingValidityDate, now.Location()); validityStart.After(start) {
		start = validityStart
	}

	weeks := f.NbWeeksToDisplay
	if weeks < 1 {
		weeks = DefaultNbWeeksToDisplay
	}
	sunday := start.AddDate(0, 0, (7-int(start.Weekday()))%7)
	end := sunday.AddDate(0, 0, 7*(weeks-1))

	if f.EndingValidityDate != nil {
		validityEnd := DateIn(*f.EndingValidityDate, now.Location())
		if end.After(validityEnd) {
			end = validityEnd
		}
		if start.After(end) {
			return time.Time{}, time.Time{}, ErrFormNoLongerValid
		}
	}

	return start, end, nil
}

// StartOfDay truncates t to midnight in its location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateIn returns the calendar day of t as midnight in loc
func DateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// WallClockIn returns the same wall-clock date and time as t, interpreted in loc
func WallClockIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// DaysBetween returns the number of calendar days from a to b (negative if b is before a)
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
