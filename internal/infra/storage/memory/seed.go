package memory

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// ErrInvalidSeed возвращается при некорректном файле с формами
var ErrInvalidSeed = errors.New("memory: invalid seed")

type seedFile struct {
	Forms []seedForm `toml:"forms"`
}

type seedForm struct {
	ID                              int64      `toml:"id"`
	Title                           string     `toml:"title"`
	IsActive                        bool       `toml:"is_active"`
	StartingValidityDate            string     `toml:"starting_validity_date"` // YYYY-MM-DD
	EndingValidityDate              string     `toml:"ending_validity_date"`   // YYYY-MM-DD
	NbWeeksToDisplay                int        `toml:"nb_weeks_to_display"`
	MaxPeoplePerAppointment         int        `toml:"max_people_per_appointment"`
	MinTimeBeforeAppointment        int        `toml:"min_time_before_appointment"` // часы
	IsMultislotAppointment          bool       `toml:"is_multislot_appointment"`
	NbDaysBeforeNewAppointment      int        `toml:"nb_days_before_new_appointment"`
	NbMaxAppointmentsPerUser        int        `toml:"nb_max_appointments_per_user"`
	NbDaysForMaxAppointmentsPerUser int        `toml:"nb_days_for_max_appointments_per_user"`
	EnableMandatoryEmail            bool       `toml:"enable_mandatory_email"`
	IDWorkflowActionCancel          int        `toml:"id_workflow_action_cancel"`
	Weeks                           []seedWeek `toml:"weeks"`
}

type seedWeek struct {
	DateOfApply string    `toml:"date_of_apply"` // YYYY-MM-DD
	Days        []seedDay `toml:"days"`
}

type seedDay struct {
	Weekday             int         `toml:"weekday"` // 0 = воскресенье
	IsOpen              bool        `toml:"is_open"`
	SlotDurationMinutes int         `toml:"slot_duration_minutes"`
	MaxCapacity         int         `toml:"max_capacity"`
	Hours               []seedHours `toml:"hours"`
}

type seedHours struct {
	Start string `toml:"start"`
	End   string `toml:"end"`
}

// LoadSeed загружает формы и их недельные расписания из TOML файла
func LoadSeed(path string, repo *FormRepository, loc *time.Location) (int, error) {
	var seed seedFile
	if _, err := toml.DecodeFile(path, &seed); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidSeed, path, err)
	}

	var nextDefID int64
	for _, f := range seed.Forms {
		form, err := f.toDomain(loc)
		if err != nil {
			return 0, err
		}

		defs := make([]*domain.WeekDefinition, 0, len(f.Weeks))
		for _, w := range f.Weeks {
			nextDefID++
			def, err := w.toDomain(nextDefID, form.ID, loc)
			if err != nil {
				return 0, fmt.Errorf("%w: form %d: %v", ErrInvalidSeed, form.ID, err)
			}
			defs = append(defs, def)
		}

		repo.SaveForm(form)
		for _, def := range defs {
			repo.AddWeekDefinition(def)
		}
	}

	return len(seed.Forms), nil
}

func (f seedForm) toDomain(loc *time.Location) (*domain.FormRules, error) {
	if f.ID <= 0 {
		return nil, fmt.Errorf("%w: form id must be positive", ErrInvalidSeed)
	}

	start, err := parseSeedDate(f.StartingValidityDate, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: form %d starting_validity_date: %v", ErrInvalidSeed, f.ID, err)
	}
	end, err := parseSeedDate(f.EndingValidityDate, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: form %d ending_validity_date: %v", ErrInvalidSeed, f.ID, err)
	}

	nbWeeks := f.NbWeeksToDisplay
	if nbWeeks == 0 {
		nbWeeks = domain.DefaultNbWeeksToDisplay
	}

	return &domain.FormRules{
		ID:                              f.ID,
		Title:                           f.Title,
		IsActive:                        f.IsActive,
		StartingValidityDate:            start,
		EndingValidityDate:              end,
		NbWeeksToDisplay:                nbWeeks,
		MaxPeoplePerAppointment:         f.MaxPeoplePerAppointment,
		MinTimeBeforeAppointment:        f.MinTimeBeforeAppointment,
		IsMultislotAppointment:          f.IsMultislotAppointment,
		NbDaysBeforeNewAppointment:      f.NbDaysBeforeNewAppointment,
		NbMaxAppointmentsPerUser:        f.NbMaxAppointmentsPerUser,
		NbDaysForMaxAppointmentsPerUser: f.NbDaysForMaxAppointmentsPerUser,
		EnableMandatoryEmail:            f.EnableMandatoryEmail,
		IDWorkflowActionCancel:          f.IDWorkflowActionCancel,
	}, nil
}

func (w seedWeek) toDomain(id, formID int64, loc *time.Location) (*domain.WeekDefinition, error) {
	applyFrom, err := parseSeedDate(w.DateOfApply, loc)
	if err != nil {
		return nil, fmt.Errorf("date_of_apply: %v", err)
	}
	if applyFrom == nil {
		return nil, errors.New("date_of_apply is required")
	}

	def := &domain.WeekDefinition{ID: id, FormID: formID, DateOfApply: *applyFrom}
	for _, d := range w.Days {
		if d.Weekday < int(time.Sunday) || d.Weekday > int(time.Saturday) {
			return nil, fmt.Errorf("weekday %d out of range", d.Weekday)
		}
		if d.IsOpen && (d.SlotDurationMinutes < domain.MinSlotDurationMinutes || d.SlotDurationMinutes > domain.MaxSlotDurationMinutes) {
			return nil, fmt.Errorf("weekday %d: slot duration %d", d.Weekday, d.SlotDurationMinutes)
		}

		day := domain.DayDefinition{
			Weekday:             time.Weekday(d.Weekday),
			IsOpen:              d.IsOpen,
			SlotDurationMinutes: d.SlotDurationMinutes,
			MaxCapacity:         d.MaxCapacity,
		}
		for _, h := range d.Hours {
			start, err := types.NewTimeStringFromString(h.Start)
			if err != nil {
				return nil, err
			}
			end, err := types.NewTimeStringFromString(h.End)
			if err != nil {
				return nil, err
			}
			day.WorkingHours = append(day.WorkingHours, domain.WorkingHours{Start: start, End: end})
		}
		def.Days = append(def.Days, day)
	}

	return def, nil
}

func parseSeedDate(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(domain.DateFormat, s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
