package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

var slotColumns = []string{
	"id",
	"form_id",
	"starting_date_time",
	"ending_date_time",
	"max_capacity",
	"nb_remaining_places",
	"nb_potential_remaining_places",
	"is_open",
}

// Repository репозиторий для работы со слотами
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// InsertOrGet сохраняет виртуальный слот или возвращает уже сохраненный с тем же (form_id, starting_date_time).
// Гонка двух вставок разрешается уникальным ключом: проигравший получает строку победителя.
func (r *Repository) InsertOrGet(ctx context.Context, slot *domain.Slot) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("slots").
		Columns(
			"form_id",
			"starting_date_time",
			"ending_date_time",
			"max_capacity",
			"nb_remaining_places",
			"nb_potential_remaining_places",
			"is_open",
		).
		Values(
			slot.FormID,
			slot.StartingDateTime,
			slot.EndingDateTime,
			slot.MaxCapacity,
			slot.NbRemainingPlaces,
			slot.NbPotentialRemainingPlaces,
			slot.IsOpen,
		).
		Suffix("ON CONFLICT (form_id, starting_date_time) DO NOTHING RETURNING " + strings.Join(slotColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: InsertOrGet - build insert query: %v", ErrBuildQuery, err)
	}

	created, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: InsertOrGet - execute insert: %w", ErrExecQuery, err)
	}

	// Слот уже сохранен конкурентным запросом
	return r.GetByKey(ctx, slot.FormID, slot.StartingDateTime)
}

// GetByKey получает слот по естественному ключу
func (r *Repository) GetByKey(ctx context.Context, formID int64, start time.Time) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"form_id": formID, "starting_date_time": start}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByKey - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: form_id=%d start=%s", ErrSlotNotFound, formID, start.Format(time.RFC3339))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByKey - execute select: %w", ErrExecQuery, err)
	}

	return slot, nil
}

// GetByID получает слот по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate получает слот по ID с блокировкой строки.
// Блокировка имеет смысл только внутри транзакции из контекста.
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Slot, error) {
	return r.getByID(ctx, id, dbmetrics.IsInTransaction(ctx))
}

func (r *Repository) getByID(ctx context.Context, id int64, forUpdate bool) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%d", ErrSlotNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - execute select: %w", ErrExecQuery, err)
	}

	return slot, nil
}

// GetByFormAndRange получает сохраненные слоты формы, начинающиеся в [from, to)
func (r *Repository) GetByFormAndRange(ctx context.Context, formID int64, from, to time.Time) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"form_id": formID}).
		Where(squirrel.GtOrEq{"starting_date_time": from}).
		Where(squirrel.Lt{"starting_date_time": to}).
		OrderBy("starting_date_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByFormAndRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByFormAndRange - execute select: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetByFormAndRange - scan: %v", ErrScanRow, err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetByFormAndRange - rows iteration: %v", ErrScanRow, err)
	}

	return slots, nil
}

// UpdateCounters сохраняет счетчики мест слота
func (r *Repository) UpdateCounters(ctx context.Context, slot *domain.Slot) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		Set("nb_remaining_places", slot.NbRemainingPlaces).
		Set("nb_potential_remaining_places", slot.NbPotentialRemainingPlaces).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": slot.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateCounters - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateCounters - execute update: %w", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateCounters - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%d", ErrSlotNotFound, slot.ID)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*domain.Slot, error) {
	var s domain.Slot
	err := row.Scan(
		&s.ID,
		&s.FormID,
		&s.StartingDateTime,
		&s.EndingDateTime,
		&s.MaxCapacity,
		&s.NbRemainingPlaces,
		&s.NbPotentialRemainingPlaces,
		&s.IsOpen,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
