package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

var appointmentColumns = []string{
	"id",
	"reference",
	"form_id",
	"first_name",
	"last_name",
	"email",
	"user_guid",
	"nb_booked_seats",
	"starting_date_time",
	"ending_date_time",
	"is_cancelled",
	"cancelled_at",
	"id_action_cancelled",
	"created_at",
}

// Repository репозиторий для работы с записями на прием
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create сохраняет запись и ее связи со слотами.
// Должен вызываться в транзакции, чтобы запись и связи появились атомарно.
func (r *Repository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("appointments").
		Columns(
			"reference",
			"form_id",
			"first_name",
			"last_name",
			"email",
			"user_guid",
			"nb_booked_seats",
			"starting_date_time",
			"ending_date_time",
			"id_action_cancelled",
		).
		Values(
			a.Reference,
			a.FormID,
			a.FirstName,
			a.LastName,
			a.Email,
			a.UserGUID,
			a.NbBookedSeats,
			a.StartingDateTime,
			a.EndingDateTime,
			a.IDActionCancelled,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	if len(a.Slots) == 0 {
		return a, nil
	}

	// Связи со слотами одной вставкой
	builder := psqlbuilder.Insert("appointment_slots").
		Columns("appointment_id", "slot_id", "nb_places")
	for _, s := range a.Slots {
		builder = builder.Values(a.ID, s.SlotID, s.Seats)
	}

	query, args, err = builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build appointment_slots insert: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("%w: Create - insert appointment_slots: %w", ErrExecQuery, err)
	}

	return a, nil
}

// GetByReference получает запись по коду
func (r *Repository) GetByReference(ctx context.Context, reference string) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"reference": reference}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByReference - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: reference=%s", ErrAppointmentNotFound, reference)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByReference - execute select: %w", ErrExecQuery, err)
	}

	if err := r.loadSlots(ctx, executor, []*domain.Appointment{a}); err != nil {
		return nil, err
	}

	return a, nil
}

// FindActiveByIdentity получает неотмененные записи формы, сделанные той же личностью (email или guid)
func (r *Repository) FindActiveByIdentity(ctx context.Context, formID int64, identity domain.Identity) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	or := squirrel.Or{}
	if email := strings.TrimSpace(identity.Email); email != "" {
		or = append(or, squirrel.Expr("lower(email) = lower(?)", email))
	}
	if identity.UserGUID != nil && *identity.UserGUID != "" {
		or = append(or, squirrel.Eq{"user_guid": *identity.UserGUID})
	}
	if len(or) == 0 {
		return []*domain.Appointment{}, nil
	}

	query, args, err := psqlbuilder.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"form_id": formID, "is_cancelled": false}).
		Where(or).
		OrderBy("starting_date_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindActiveByIdentity - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindActiveByIdentity - execute select: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: FindActiveByIdentity - scan: %v", ErrScanRow, err)
		}
		appointments = append(appointments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FindActiveByIdentity - rows iteration: %v", ErrScanRow, err)
	}

	return appointments, nil
}

// LockIdentity берет транзакционные advisory-блокировки на личность в форме.
// Вызывается внутри транзакции, блокировки снимаются при ее завершении.
func (r *Repository) LockIdentity(ctx context.Context, formID int64, identity domain.Identity) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	keys := identity.LockKeys(formID)
	sort.Strings(keys)
	for _, key := range keys {
		if _, err := executor.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", key); err != nil {
			return fmt.Errorf("%w: LockIdentity - execute advisory lock: %w", ErrExecQuery, err)
		}
	}

	return nil
}

// MarkCancelled помечает запись отмененной.
// Если запись уже отменена (в том числе конкурентно), возвращает ErrAlreadyCancelled.
func (r *Repository) MarkCancelled(ctx context.Context, id int64, cancelledAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("appointments").
		Set("is_cancelled", true).
		Set("cancelled_at", cancelledAt).
		Where(squirrel.Eq{"id": id, "is_cancelled": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkCancelled - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: MarkCancelled - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: MarkCancelled - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%d", ErrAlreadyCancelled, id)
	}

	return nil
}

// loadSlots заполняет связи записей со слотами
func (r *Repository) loadSlots(ctx context.Context, executor DBExecutor, appointments []*domain.Appointment) error {
	byID := make(map[int64]*domain.Appointment, len(appointments))
	ids := make([]int64, 0, len(appointments))
	for _, a := range appointments {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	query, args, err := psqlbuilder.Select("appointment_id", "slot_id", "nb_places").
		From("appointment_slots").
		Where(squirrel.Eq{"appointment_id": ids}).
		OrderBy("slot_id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: loadSlots - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: loadSlots - execute select: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var appointmentID int64
		var s domain.AppointmentSlot
		if err := rows.Scan(&appointmentID, &s.SlotID, &s.Seats); err != nil {
			return fmt.Errorf("%w: loadSlots - scan: %v", ErrScanRow, err)
		}
		if a, ok := byID[appointmentID]; ok {
			a.Slots = append(a.Slots, s)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: loadSlots - rows iteration: %v", ErrScanRow, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var a domain.Appointment
	var userGUID sql.NullString
	var cancelledAt sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.Reference,
		&a.FormID,
		&a.FirstName,
		&a.LastName,
		&a.Email,
		&userGUID,
		&a.NbBookedSeats,
		&a.StartingDateTime,
		&a.EndingDateTime,
		&a.IsCancelled,
		&cancelledAt,
		&a.IDActionCancelled,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userGUID.Valid {
		a.UserGUID = &userGUID.String
	}
	if cancelledAt.Valid {
		a.CancelledAt = &cancelledAt.Time
	}

	return &a, nil
}
