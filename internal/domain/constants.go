package domain

// Default configuration values
const (
	DefaultNbWeeksToDisplay        = 4
	DefaultMaxPeoplePerAppointment = 1
	DefaultSeatsPerHold            = 1
)

// Business validation constants
const (
	MinSlotDurationMinutes = 5
	MaxSlotDurationMinutes = 480 // 8 hours
	MaxSlotCapacity        = 1000
	MaxNbPlacesToTake      = 20
	MaxNameLength          = 255
	MaxEmailLength         = 255
	MaxListingDays         = 366
)

// Time format constants
const (
	TimeFormat     = "15:04"            // HH:MM
	DateFormat     = "2006-01-02"       // YYYY-MM-DD
	DateTimeFormat = "2006-01-02T15:04" // YYYY-MM-DDTHH:MM
)

// ReferencePrefix prefix of appointment reference codes
const ReferencePrefix = "APT-"

// Validation rule names, used in error payloads and metrics labels
const (
	RuleLeadTime    = "lead_time"
	RuleCooldown    = "cooldown"
	RulePeriodCap   = "period_cap"
	RuleBookedSeats = "booked_seats"
)
