package form

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Repository репозиторий конфигурации форм и недельных расписаний
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория форм
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает правила формы по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.FormRules, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"title",
		"is_active",
		"starting_validity_date",
		"ending_validity_date",
		"nb_weeks_to_display",
		"max_people_per_appointment",
		"min_time_before_appointment",
		"is_multislot_appointment",
		"nb_days_before_new_appointment",
		"nb_max_appointments_per_user",
		"nb_days_for_max_appointments_per_user",
		"enable_mandatory_email",
		"id_workflow_action_cancel",
		"created_at",
		"updated_at",
	).
		From("forms").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var f domain.FormRules
	var startingValidity, endingValidity sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&f.ID,
		&f.Title,
		&f.IsActive,
		&startingValidity,
		&endingValidity,
		&f.NbWeeksToDisplay,
		&f.MaxPeoplePerAppointment,
		&f.MinTimeBeforeAppointment,
		&f.IsMultislotAppointment,
		&f.NbDaysBeforeNewAppointment,
		&f.NbMaxAppointmentsPerUser,
		&f.NbDaysForMaxAppointmentsPerUser,
		&f.EnableMandatoryEmail,
		&f.IDWorkflowActionCancel,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrFormNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - execute select: %w", ErrExecQuery, err)
	}

	if startingValidity.Valid {
		f.StartingValidityDate = &startingValidity.Time
	}
	if endingValidity.Valid {
		f.EndingValidityDate = &endingValidity.Time
	}

	return &f, nil
}

// dayJSON формат хранения дня в колонке days (JSONB)
type dayJSON struct {
	Weekday             int                `json:"weekday"` // 0 = воскресенье
	IsOpen              bool               `json:"isOpen"`
	WorkingHours        []workingHoursJSON `json:"workingHours"`
	SlotDurationMinutes int                `json:"slotDurationMinutes"`
	MaxCapacity         int                `json:"maxCapacity"`
}

type workingHoursJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// GetWeekDefinitions получает все недельные расписания формы по возрастанию даты применения
func (r *Repository) GetWeekDefinitions(ctx context.Context, formID int64) ([]*domain.WeekDefinition, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "form_id", "date_of_apply", "days", "created_at").
		From("week_definitions").
		Where(squirrel.Eq{"form_id": formID}).
		OrderBy("date_of_apply ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetWeekDefinitions - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetWeekDefinitions - execute select: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	definitions := make([]*domain.WeekDefinition, 0)
	for rows.Next() {
		var w domain.WeekDefinition
		var rawDays []byte
		if err := rows.Scan(&w.ID, &w.FormID, &w.DateOfApply, &rawDays, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: GetWeekDefinitions - scan: %v", ErrScanRow, err)
		}

		days, err := decodeDays(rawDays)
		if err != nil {
			return nil, fmt.Errorf("%w: week definition id=%d: %v", ErrDecodeDays, w.ID, err)
		}
		w.Days = days

		definitions = append(definitions, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetWeekDefinitions - rows iteration: %v", ErrScanRow, err)
	}

	return definitions, nil
}

func decodeDays(raw []byte) ([]domain.DayDefinition, error) {
	var stored []dayJSON
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}

	days := make([]domain.DayDefinition, 0, len(stored))
	for _, d := range stored {
		if d.Weekday < 0 || d.Weekday > 6 {
			return nil, fmt.Errorf("weekday %d out of range", d.Weekday)
		}

		hours := make([]domain.WorkingHours, 0, len(d.WorkingHours))
		for _, wh := range d.WorkingHours {
			start, err := types.NewTimeStringFromString(wh.Start)
			if err != nil {
				return nil, err
			}
			end, err := types.NewTimeStringFromString(wh.End)
			if err != nil {
				return nil, err
			}
			hours = append(hours, domain.WorkingHours{Start: start, End: end})
		}

		days = append(days, domain.DayDefinition{
			Weekday:             time.Weekday(d.Weekday),
			IsOpen:              d.IsOpen,
			WorkingHours:        hours,
			SlotDurationMinutes: d.SlotDurationMinutes,
			MaxCapacity:         d.MaxCapacity,
		})
	}

	return days, nil
}
