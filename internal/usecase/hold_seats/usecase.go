package hold_seats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/selector"
)

// UseCase use case для удержания мест на время заполнения формы
type UseCase struct {
	formRepo     FormRepository
	resolver     ScheduleResolver
	builder      SlotBuilder
	materializer Materializer
	holds        HoldManager
	location     *time.Location
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	formRepo FormRepository,
	resolver ScheduleResolver,
	builder SlotBuilder,
	materializer Materializer,
	holds HoldManager,
	location *time.Location,
	logger Logger,
) *UseCase {
	return &UseCase{
		formRepo:     formRepo,
		resolver:     resolver,
		builder:      builder,
		materializer: materializer,
		holds:        holds,
		location:     location,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выбирает слоты, начиная с запрошенного, сохраняет их при первом использовании
// и удерживает места. Предыдущее удержание сессии на этой форме освобождается.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("HoldSeats: form=%d, session=%s, start=%s, nbPlacesToTake=%d, seats=%d",
		req.FormID, req.SessionID, req.StartingDateTime.Format(domain.DateTimeFormat), req.NbPlacesToTake, req.Seats)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("HoldSeats: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now().In(uc.location)
	start := domain.WallClockIn(req.StartingDateTime, uc.location)

	// 2. Получаем форму
	form, err := uc.formRepo.GetByID(ctx, req.FormID)
	if err != nil {
		if errors.Is(err, domain.ErrFormNotFound) {
			uc.logger.Warn("HoldSeats: form id=%d not found", req.FormID)
			return nil, ErrFormNotFound
		}
		uc.logger.Error("HoldSeats: failed to get form id=%d: %v", req.FormID, err)
		return nil, fmt.Errorf("%w: failed to get form: %v", ErrInternal, err)
	}

	// 3. Проверяем количество мест
	seats := req.Seats
	if seats == 0 {
		seats = domain.DefaultSeatsPerHold
	}
	if seats > form.MaxSeats() {
		uc.logger.Warn("HoldSeats: %d seats requested, form id=%d allows %d", seats, form.ID, form.MaxSeats())
		return nil, fmt.Errorf("%w: at most %d", ErrTooManySeats, form.MaxSeats())
	}

	// 4. Проверяем окно отображения и время до начала
	windowStart, windowEnd, err := form.DisplayWindow(now)
	if err != nil {
		uc.logger.Warn("HoldSeats: form id=%d is not open for booking: %v", form.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrFormInactive, err)
	}

	day := domain.StartOfDay(start)
	if day.Before(windowStart) || day.After(windowEnd) {
		uc.logger.Warn("HoldSeats: %s is outside window %s..%s", day.Format(domain.DateFormat),
			windowStart.Format(domain.DateFormat), windowEnd.Format(domain.DateFormat))
		return nil, ErrOutsideWindow
	}

	if start.Before(now.Add(time.Duration(form.MinTimeBeforeAppointment) * time.Hour)) {
		uc.logger.Warn("HoldSeats: slot %s starts too soon", start.Format(domain.DateTimeFormat))
		return nil, ErrTooLate
	}

	// 5. Освобождаем предыдущее удержание сессии, чтобы его места снова были видны
	if err := uc.holds.ReleaseSession(ctx, req.SessionID, form.ID); err != nil {
		uc.logger.Error("HoldSeats: failed to release previous hold of session=%s: %v", req.SessionID, err)
		return nil, fmt.Errorf("%w: failed to release previous hold: %v", ErrInternal, err)
	}

	// 6. Строим слоты дня
	resolution, err := uc.resolver.Resolve(ctx, form.ID, day, day)
	if err != nil {
		if errors.Is(err, domain.ErrNoSchedule) {
			return nil, ErrNoSchedule
		}
		uc.logger.Error("HoldSeats: failed to resolve schedule for form id=%d: %v", form.ID, err)
		return nil, fmt.Errorf("%w: failed to resolve schedule: %v", ErrInternal, err)
	}

	candidates, err := uc.builder.Build(ctx, form, resolution, day, day, 0)
	if err != nil {
		uc.logger.Error("HoldSeats: failed to build slots for form id=%d: %v", form.ID, err)
		return nil, fmt.Errorf("%w: failed to build slots: %v", ErrInternal, err)
	}

	// 7. Выбираем последовательные слоты начиная с запрошенного
	n := slotsToTake(form, req.NbPlacesToTake)
	run, err := selector.SelectConsecutive(candidates, start, n)
	if err != nil {
		uc.logger.Warn("HoldSeats: no run of %d slots from %s: %v", n, start.Format(domain.DateTimeFormat), err)
		return nil, err
	}
	if !run[0].StartingDateTime.Equal(start) {
		uc.logger.Warn("HoldSeats: slot %s is not available", start.Format(domain.DateTimeFormat))
		return nil, fmt.Errorf("%w: no available slot starts at %s", domain.ErrSlotFull, start.Format(domain.DateTimeFormat))
	}

	// 8. Сохраняем виртуальные слоты
	claims := make([]domain.SeatClaim, 0, len(run))
	held := make([]Slot, 0, len(run))
	for _, s := range run {
		persisted, err := uc.materializer.MaterializeIfNeeded(ctx, s)
		if err != nil {
			uc.logger.Error("HoldSeats: failed to materialize slot %s: %v", s.StartingDateTime.Format(domain.DateTimeFormat), err)
			return nil, fmt.Errorf("%w: failed to materialize slot: %v", ErrInternal, err)
		}
		claims = append(claims, domain.SeatClaim{SlotID: persisted.ID, Seats: seats})
		held = append(held, Slot{
			ID:               persisted.ID,
			StartingDateTime: s.StartingDateTime,
			EndingDateTime:   s.EndingDateTime,
		})
	}

	// 9. Удерживаем места
	hold, err := uc.holds.Create(ctx, req.SessionID, form, claims)
	if err != nil {
		if errors.Is(err, domain.ErrSlotFull) {
			uc.logger.Warn("HoldSeats: slots are full: %v", err)
			return nil, err
		}
		uc.logger.Error("HoldSeats: failed to create hold: %v", err)
		return nil, fmt.Errorf("%w: failed to create hold: %v", ErrInternal, err)
	}

	uc.logger.Info("HoldSeats: hold %s created for session=%s, %d slots", hold.Token, req.SessionID, len(claims))

	return &Response{
		Token:     string(hold.Token),
		FormID:    form.ID,
		Seats:     seats,
		ExpiresAt: hold.ExpiresAt,
		Slots:     held,
	}, nil
}
