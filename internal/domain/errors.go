package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSchedule form has no week definition at all
	ErrNoSchedule = errors.New("domain: form not configured")

	// ErrSlotFull not enough remaining places, at hold or commit time
	ErrSlotFull = errors.New("domain: slot is full")

	// ErrNotConsecutive multi-slot selection is not a contiguous run.
	// Matches ErrSlotFull as well: callers redirect the user back to slot selection in both cases.
	ErrNotConsecutive = fmt.Errorf("%w: selected slots are not consecutive", ErrSlotFull)

	// ErrAlreadyCancelled appointment was cancelled before
	ErrAlreadyCancelled = errors.New("domain: appointment already cancelled")

	// ErrAppointmentPassed appointment already started and can no longer be cancelled
	ErrAppointmentPassed = errors.New("domain: appointment already started")

	// ErrHoldNotFound hold token is unknown
	ErrHoldNotFound = errors.New("domain: hold not found")

	// ErrHoldExpired hold deadline passed, seats were given back
	ErrHoldExpired = errors.New("domain: hold expired")

	// ErrHoldNotOwned hold belongs to another session
	ErrHoldNotOwned = errors.New("domain: hold belongs to another session")

	// ErrFormNotFound form does not exist
	ErrFormNotFound = errors.New("domain: form not found")

	// ErrFormInactive form is disabled
	ErrFormInactive = errors.New("domain: form is not active")

	// ErrNoValidityWindow form has no starting validity date
	ErrNoValidityWindow = errors.New("domain: form has no validity window")

	// ErrFormNoLongerValid display window is empty because validity ended
	ErrFormNoLongerValid = errors.New("domain: form is no longer valid")

	// ErrSlotNotFound slot does not exist
	ErrSlotNotFound = errors.New("domain: slot not found")

	// ErrAppointmentNotFound appointment does not exist
	ErrAppointmentNotFound = errors.New("domain: appointment not found")
)

// Booking rule violations, wrapped into RuleError
var (
	ErrLeadTime    = errors.New("appointment starts too soon")
	ErrCooldown    = errors.New("another appointment is too close to this date")
	ErrPeriodCap   = errors.New("maximum number of appointments for the period reached")
	ErrBookedSeats = errors.New("invalid number of booked seats")
)

// RuleError a single failed booking rule
type RuleError struct {
	Rule string
	Err  error
}

func (e *RuleError) Error() string {
	return e.Rule + ": " + e.Err.Error()
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// ValidationErrors every booking rule that failed, reported together
type ValidationErrors []error

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, err := range v {
		msgs = append(msgs, err.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Unwrap allows errors.Is / errors.As to reach every rule error
func (v ValidationErrors) Unwrap() []error {
	return v
}

// Rules returns the names of the failed rules
func (v ValidationErrors) Rules() []string {
	rules := make([]string, 0, len(v))
	for _, err := range v {
		var ruleErr *RuleError
		if errors.As(err, &ruleErr) {
			rules = append(rules, ruleErr.Rule)
		}
	}
	return rules
}
