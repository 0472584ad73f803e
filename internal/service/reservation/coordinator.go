package reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/keylock"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

// Coordinator единственный, кто меняет счетчики мест слотов и сохраняет виртуальные слоты.
//
// Операции над одним слотом выполняются строго последовательно: блокировка по id слота
// внутри процесса и SELECT ... FOR UPDATE в транзакции между процессами.
// Несколько слотов блокируются по возрастанию id.
type Coordinator struct {
	repo      SlotRepository
	txManager TransactionManager
	locks     *keylock.KeyLock[int64]
	metrics   Metrics
	logger    Logger
}

// NewCoordinator создает координатор
func NewCoordinator(repo SlotRepository, txManager TransactionManager, m Metrics, logger Logger) *Coordinator {
	return &Coordinator{
		repo:      repo,
		txManager: txManager,
		locks:     keylock.New[int64](),
		metrics:   m,
		logger:    logger,
	}
}

// MaterializeIfNeeded сохраняет виртуальный слот. Идемпотентна при гонке:
// все вызывающие получают одну и ту же сохраненную строку.
func (c *Coordinator) MaterializeIfNeeded(ctx context.Context, slot *domain.Slot) (*domain.Slot, error) {
	if !slot.IsVirtual() {
		return slot, nil
	}

	persisted, err := c.repo.InsertOrGet(ctx, slot)
	if err != nil {
		c.logger.Error("MaterializeIfNeeded: form=%d start=%s: %v",
			slot.FormID, slot.StartingDateTime.Format(domain.DateTimeFormat), err)
		return nil, fmt.Errorf("%w: MaterializeIfNeeded - repository error: %v", ErrInternal, err)
	}

	return persisted, nil
}

// TryHold атомарно проверяет potential >= seats и уменьшает potential на каждом слоте.
// Для нескольких слотов действует принцип "все или ничего".
func (c *Coordinator) TryHold(ctx context.Context, claims []domain.SeatClaim) (domain.HoldToken, error) {
	claims, err := normalize(claims)
	if err != nil {
		return "", err
	}

	unlock := c.locks.LockMany(slotIDs(claims))
	defer unlock()

	err = c.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		slots, err := c.load(txCtx, claims)
		if err != nil {
			return err
		}

		// 1. Проверяем все слоты до любых изменений
		for i, s := range slots {
			if !s.IsOpen || s.NbPotentialRemainingPlaces < claims[i].Seats {
				return fmt.Errorf("%w: slot id=%d has %d potential places, %d requested",
					domain.ErrSlotFull, s.ID, s.NbPotentialRemainingPlaces, claims[i].Seats)
			}
		}

		// 2. Уменьшаем potential
		for i, s := range slots {
			s.NbPotentialRemainingPlaces -= claims[i].Seats
			if err := c.repo.UpdateCounters(txCtx, s); err != nil {
				return fmt.Errorf("%w: TryHold - update slot id=%d: %w", ErrInternal, s.ID, err)
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotFull) {
			c.metrics.SlotFull(metrics.StageHold)
			c.logger.Warn("TryHold: %v", err)
			return "", err
		}
		c.logger.Error("TryHold: %v", err)
		return "", wrapInternal("TryHold", err)
	}

	return domain.HoldToken(uuid.NewString()), nil
}

// Release возвращает удержанные места в potential
func (c *Coordinator) Release(ctx context.Context, claims []domain.SeatClaim) error {
	claims, err := normalize(claims)
	if err != nil {
		return err
	}

	unlock := c.locks.LockMany(slotIDs(claims))
	defer unlock()

	err = c.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		slots, err := c.load(txCtx, claims)
		if err != nil {
			return err
		}

		for i, s := range slots {
			restored := s.NbPotentialRemainingPlaces + claims[i].Seats
			if restored > s.NbRemainingPlaces {
				c.logger.Warn("Release: slot id=%d potential %d would exceed confirmed %d, clamping",
					s.ID, restored, s.NbRemainingPlaces)
				restored = s.NbRemainingPlaces
			}
			s.NbPotentialRemainingPlaces = restored

			if err := c.repo.UpdateCounters(txCtx, s); err != nil {
				return fmt.Errorf("%w: Release - update slot id=%d: %w", ErrInternal, s.ID, err)
			}
		}

		return nil
	})
	if err != nil {
		c.logger.Error("Release: %v", err)
		return wrapInternal("Release", err)
	}

	return nil
}

// Commit перечитывает слоты под блокировкой, проверяет bookedSeats <= confirmed на каждом,
// выполняет write (сохранение записи) в той же транзакции и списывает confirmed.
// Излишек удержания (held - booked) возвращается в potential.
// При нехватке мест ничего не меняется и возвращается domain.ErrSlotFull.
func (c *Coordinator) Commit(
	ctx context.Context,
	claims []domain.SeatClaim,
	bookedSeats int,
	write func(ctx context.Context) error,
) error {
	claims, err := normalize(claims)
	if err != nil {
		return err
	}
	if bookedSeats <= 0 {
		return fmt.Errorf("%w: booked seats must be positive", ErrInvalidClaim)
	}

	unlock := c.locks.LockMany(slotIDs(claims))
	defer unlock()

	err = c.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		slots, err := c.load(txCtx, claims)
		if err != nil {
			return err
		}

		// 1. Повторная проверка по живым счетчикам
		for i, s := range slots {
			if bookedSeats > claims[i].Seats || bookedSeats > s.NbRemainingPlaces {
				return fmt.Errorf("%w: slot id=%d has %d confirmed places, %d held, %d booked",
					domain.ErrSlotFull, s.ID, s.NbRemainingPlaces, claims[i].Seats, bookedSeats)
			}
		}

		// 2. Запись в той же транзакции
		if write != nil {
			if err := write(txCtx); err != nil {
				return err
			}
		}

		// 3. Списываем места
		for i, s := range slots {
			s.NbRemainingPlaces -= bookedSeats
			s.NbPotentialRemainingPlaces += claims[i].Seats - bookedSeats
			if err := c.repo.UpdateCounters(txCtx, s); err != nil {
				return fmt.Errorf("%w: Commit - update slot id=%d: %w", ErrInternal, s.ID, err)
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotFull) {
			c.metrics.SlotFull(metrics.StageCommit)
			c.logger.Warn("Commit: %v", err)
		}
		return err
	}

	return nil
}

// CancelCommitted возвращает места отмененной записи в оба счетчика.
// write (пометка записи отмененной) выполняется в той же транзакции до изменения счетчиков.
func (c *Coordinator) CancelCommitted(
	ctx context.Context,
	claims []domain.SeatClaim,
	write func(ctx context.Context) error,
) error {
	claims, err := normalize(claims)
	if err != nil {
		return err
	}

	unlock := c.locks.LockMany(slotIDs(claims))
	defer unlock()

	return c.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		slots, err := c.load(txCtx, claims)
		if err != nil {
			return err
		}

		if write != nil {
			if err := write(txCtx); err != nil {
				return err
			}
		}

		for i, s := range slots {
			s.NbRemainingPlaces = min(s.NbRemainingPlaces+claims[i].Seats, s.MaxCapacity)
			s.NbPotentialRemainingPlaces = min(s.NbPotentialRemainingPlaces+claims[i].Seats, s.NbRemainingPlaces)
			if err := c.repo.UpdateCounters(txCtx, s); err != nil {
				return fmt.Errorf("%w: CancelCommitted - update slot id=%d: %w", ErrInternal, s.ID, err)
			}
		}

		return nil
	})
}

// load перечитывает слоты в порядке claims
func (c *Coordinator) load(ctx context.Context, claims []domain.SeatClaim) ([]*domain.Slot, error) {
	slots := make([]*domain.Slot, 0, len(claims))
	for _, claim := range claims {
		s, err := c.repo.GetByIDForUpdate(ctx, claim.SlotID)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, nil
}

// normalize объединяет повторы одного слота и сортирует по id
func normalize(claims []domain.SeatClaim) ([]domain.SeatClaim, error) {
	if len(claims) == 0 {
		return nil, fmt.Errorf("%w: no slots", ErrInvalidClaim)
	}

	bySlot := make(map[int64]int, len(claims))
	for _, claim := range claims {
		if claim.SlotID <= 0 || claim.Seats <= 0 {
			return nil, fmt.Errorf("%w: slot id=%d seats=%d", ErrInvalidClaim, claim.SlotID, claim.Seats)
		}
		bySlot[claim.SlotID] += claim.Seats
	}

	result := make([]domain.SeatClaim, 0, len(bySlot))
	for id, seats := range bySlot {
		result = append(result, domain.SeatClaim{SlotID: id, Seats: seats})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SlotID < result[j].SlotID
	})

	return result, nil
}

func slotIDs(claims []domain.SeatClaim) []int64 {
	ids := make([]int64, 0, len(claims))
	for _, claim := range claims {
		ids = append(ids, claim.SlotID)
	}
	return ids
}

func wrapInternal(op string, err error) error {
	if errors.Is(err, ErrInternal) || errors.Is(err, domain.ErrSlotNotFound) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
