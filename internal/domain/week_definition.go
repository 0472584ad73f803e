package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// WorkingHours an opening range within a day
type WorkingHours struct {
	Start types.TimeString
	End   types.TimeString
}

// DayDefinition opening rules of one weekday
type DayDefinition struct {
	Weekday             time.Weekday
	IsOpen              bool
	WorkingHours        []WorkingHours
	SlotDurationMinutes int
	MaxCapacity         int // Seats per slot
}

// WeekDefinition recurring weekly template, applies from DateOfApply until superseded
type WeekDefinition struct {
	ID          int64
	FormID      int64
	DateOfApply time.Time
	Days        []DayDefinition
	CreatedAt   time.Time
}

// Day returns the definition of a weekday
func (w *WeekDefinition) Day(weekday time.Weekday) (DayDefinition, bool) {
	for _, d := range w.Days {
		if d.Weekday == weekday {
			return d, true
		}
	}
	return DayDefinition{}, false
}

// OpenWeekdays returns weekdays that are open and have at least one working range
func (w *WeekDefinition) OpenWeekdays() []time.Weekday {
	days := make([]time.Weekday, 0, len(w.Days))
	for _, d := range w.Days {
		if d.IsOpen && len(d.WorkingHours) > 0 {
			days = append(days, d.Weekday)
		}
	}
	return days
}

// MinStartingTime earliest opening time of the week, zero if the week is closed
func (w *WeekDefinition) MinStartingTime() types.TimeString {
	var min types.TimeString
	for _, d := range w.Days {
		if !d.IsOpen {
			continue
		}
		for _, wh := range d.WorkingHours {
			if min.IsZero() || wh.Start.IsBefore(min) {
				min = wh.Start
			}
		}
	}
	return min
}

// MaxEndingTime latest closing time of the week, zero if the week is closed
func (w *WeekDefinition) MaxEndingTime() types.TimeString {
	var max types.TimeString
	for _, d := range w.Days {
		if !d.IsOpen {
			continue
		}
		for _, wh := range d.WorkingHours {
			if max.IsZero() || wh.End.IsAfter(max) {
				max = wh.End
			}
		}
	}
	return max
}
