package list_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/selector"
	"github.com/m04kA/SMC-AppointmentService/internal/service/slots"
)

// UseCase use case для получения слотов формы
type UseCase struct {
	formRepo     FormRepository
	resolver     ScheduleResolver
	builder      SlotBuilder
	location     *time.Location
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	formRepo FormRepository,
	resolver ScheduleResolver,
	builder SlotBuilder,
	location *time.Location,
	logger Logger,
) *UseCase {
	return &UseCase{
		formRepo:     formRepo,
		resolver:     resolver,
		builder:      builder,
		location:     location,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute возвращает слоты формы в пересечении запрошенного диапазона и окна отображения.
// Фильтрация по времени до начала записи здесь только подсказка для календаря,
// окончательная проверка выполняется при фиксации записи.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ListSlots: form=%d, nbPlacesToTake=%d, seats=%d", req.FormID, req.NbPlacesToTake, req.Seats)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("ListSlots: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now().In(uc.location)

	// 2. Получаем форму
	form, err := uc.formRepo.GetByID(ctx, req.FormID)
	if err != nil {
		if errors.Is(err, domain.ErrFormNotFound) {
			uc.logger.Warn("ListSlots: form id=%d not found", req.FormID)
			return nil, ErrFormNotFound
		}
		uc.logger.Error("ListSlots: failed to get form id=%d: %v", req.FormID, err)
		return nil, fmt.Errorf("%w: failed to get form: %v", ErrInternal, err)
	}

	// 3. Окно отображения
	windowStart, windowEnd, err := form.DisplayWindow(now)
	switch {
	case errors.Is(err, domain.ErrNoValidityWindow):
		uc.logger.Info("ListSlots: form id=%d has no validity window", req.FormID)
		return &Response{FormID: form.ID, Slots: []Slot{}}, nil
	case errors.Is(err, domain.ErrFormInactive):
		uc.logger.Warn("ListSlots: form id=%d is not active", req.FormID)
		return nil, ErrFormInactive
	case errors.Is(err, domain.ErrFormNoLongerValid):
		uc.logger.Warn("ListSlots: form id=%d is no longer valid", req.FormID)
		return nil, ErrFormNoLongerValid
	case err != nil:
		return nil, fmt.Errorf("%w: display window: %v", ErrInternal, err)
	}

	// 4. Пересекаем с запрошенным диапазоном
	from, to := windowStart, windowEnd
	if req.From != nil {
		if d := domain.DateIn(*req.From, uc.location); d.After(from) {
			from = d
		}
	}
	if req.To != nil {
		if d := domain.DateIn(*req.To, uc.location); d.Before(to) {
			to = d
		}
	}
	if domain.DaysBetween(from, to) >= domain.MaxListingDays {
		return nil, fmt.Errorf("%w: range longer than %d days", ErrInvalidInput, domain.MaxListingDays)
	}
	if from.After(to) {
		return &Response{FormID: form.ID, From: from, To: to, Slots: []Slot{}}, nil
	}

	// 5. Определяем расписания
	resolution, err := uc.resolver.Resolve(ctx, form.ID, from, to)
	if err != nil {
		if errors.Is(err, domain.ErrNoSchedule) {
			uc.logger.Warn("ListSlots: form id=%d has no schedule", req.FormID)
			return nil, ErrNoSchedule
		}
		uc.logger.Error("ListSlots: failed to resolve schedule for form id=%d: %v", req.FormID, err)
		return nil, fmt.Errorf("%w: failed to resolve schedule: %v", ErrInternal, err)
	}

	// 6. Строим слоты
	all, err := uc.builder.Build(ctx, form, resolution, from, to, 0)
	if err != nil {
		uc.logger.Error("ListSlots: failed to build slots for form id=%d: %v", req.FormID, err)
		return nil, fmt.Errorf("%w: failed to build slots: %v", ErrInternal, err)
	}

	// 7. Убираем слоты, на которые уже поздно записываться
	earliest := now.Add(time.Duration(form.MinTimeBeforeAppointment) * time.Hour)
	bookable := make([]*domain.Slot, 0, len(all))
	for _, s := range all {
		if s.StartingDateTime.Before(earliest) {
			continue
		}
		bookable = append(bookable, s)
	}

	// 8. Фильтр по местам и последовательным слотам
	visible := bookable
	switch n := req.NbPlacesToTake; {
	case form.IsMultislotAppointment && n > 1:
		visible = selector.ValidRunStarts(bookable, n, req.Seats)
	case req.Seats > 0:
		visible = selector.ValidRunStarts(bookable, 1, req.Seats)
	}

	resp := &Response{
		FormID:          form.ID,
		From:            from,
		To:              to,
		MinStartingTime: resolution.MinStartingTime,
		MaxEndingTime:   resolution.MaxEndingTime,
		OpenWeekdays:    resolution.OpenWeekdays,
		Slots:           toSlots(visible),
	}
	if date, ok := slots.FirstAvailableDate(visible); ok {
		resp.FirstAvailableDate = &date
	}

	uc.logger.Info("ListSlots: form=%d, %s..%s, %d slots",
		form.ID, from.Format(domain.DateFormat), to.Format(domain.DateFormat), len(resp.Slots))

	return resp, nil
}

func toSlots(in []*domain.Slot) []Slot {
	out := make([]Slot, 0, len(in))
	for _, s := range in {
		out = append(out, Slot{
			ID:                         s.ID,
			StartingDateTime:           s.StartingDateTime,
			EndingDateTime:             s.EndingDateTime,
			MaxCapacity:                s.MaxCapacity,
			NbRemainingPlaces:          s.NbRemainingPlaces,
			NbPotentialRemainingPlaces: s.NbPotentialRemainingPlaces,
			IsOpen:                     s.IsOpen,
			IsFull:                     s.IsFull(),
		})
	}
	return out
}
