package commit_appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/keylock"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

const referenceLength = 12

// UseCase use case для фиксации записи по удержанию
type UseCase struct {
	holds           HoldManager
	committer       SeatCommitter
	formRepo        FormRepository
	slotRepo        SlotRepository
	appointmentRepo AppointmentRepository
	notifier        Notifier
	metrics         Metrics
	location        *time.Location
	timeProvider    TimeProvider
	identities      *keylock.KeyLock[string]
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	holds HoldManager,
	committer SeatCommitter,
	formRepo FormRepository,
	slotRepo SlotRepository,
	appointmentRepo AppointmentRepository,
	notifier Notifier,
	m Metrics,
	location *time.Location,
	logger Logger,
) *UseCase {
	return &UseCase{
		holds:           holds,
		committer:       committer,
		formRepo:        formRepo,
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
		notifier:        notifier,
		metrics:         m,
		location:        location,
		timeProvider:    &RealTimeProvider{},
		identities:      keylock.New[string](),
		logger:          logger,
	}
}

// Execute проверяет правила записи и фиксирует ее на удержанных слотах.
// При нарушении правил удержание сохраняется, чтобы пользователь мог исправить данные.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CommitAppointment: token=%s, session=%s, nbBookedSeats=%d", req.Token, req.SessionID, req.NbBookedSeats)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CommitAppointment: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now().In(uc.location)

	// 2. Получаем удержание сессии
	hold, err := uc.holds.GetOwned(ctx, domain.HoldToken(req.Token), req.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrHoldNotFound) || errors.Is(err, domain.ErrHoldExpired) || errors.Is(err, domain.ErrHoldNotOwned) {
			uc.logger.Warn("CommitAppointment: hold %s unavailable: %v", req.Token, err)
			return nil, err
		}
		uc.logger.Error("CommitAppointment: failed to get hold %s: %v", req.Token, err)
		return nil, fmt.Errorf("%w: failed to get hold: %v", ErrInternal, err)
	}

	// 3. Получаем форму
	form, err := uc.formRepo.GetByID(ctx, hold.FormID)
	if err != nil {
		if errors.Is(err, domain.ErrFormNotFound) {
			uc.logger.Warn("CommitAppointment: form id=%d not found", hold.FormID)
			return nil, ErrFormNotFound
		}
		uc.logger.Error("CommitAppointment: failed to get form id=%d: %v", hold.FormID, err)
		return nil, fmt.Errorf("%w: failed to get form: %v", ErrInternal, err)
	}

	identity := domain.Identity{Email: strings.TrimSpace(req.Email), UserGUID: req.UserGUID}
	if form.EnableMandatoryEmail && identity.Email == "" {
		uc.logger.Warn("CommitAppointment: form id=%d requires email", form.ID)
		return nil, ErrEmailRequired
	}

	// 4. Перечитываем слоты удержания
	held := make([]*domain.Slot, 0, len(hold.Claims))
	for _, c := range hold.Claims {
		s, err := uc.slotRepo.GetByID(ctx, c.SlotID)
		if err != nil {
			uc.logger.Error("CommitAppointment: failed to get slot id=%d: %v", c.SlotID, err)
			return nil, fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
		}
		held = append(held, s)
	}
	first, last := held[0], held[len(held)-1]
	for _, s := range held {
		if s.StartingDateTime.Before(first.StartingDateTime) {
			first = s
		}
		if s.EndingDateTime.After(last.EndingDateTime) {
			last = s
		}
	}
	start := first.StartingDateTime.In(uc.location)

	// 5. Коммиты одной личности в форме идут по очереди
	unlock := uc.identities.LockMany(identity.LockKeys(form.ID))
	defer unlock()

	existing, err := uc.activeAppointments(ctx, form.ID, identity)
	if err != nil {
		uc.logger.Error("CommitAppointment: failed to find appointments of identity: %v", err)
		return nil, fmt.Errorf("%w: failed to find appointments: %v", ErrInternal, err)
	}

	// 6. Проверяем правила записи
	booked := req.NbBookedSeats
	if booked == 0 {
		booked = hold.SeatsPerSlot()
	}

	rules := ruleInput{
		form:      form,
		now:       now,
		start:     start,
		heldSeats: hold.SeatsPerSlot(),
		booked:    booked,
		existing:  existing,
	}
	if errs := checkRules(rules); len(errs) > 0 {
		uc.rejected(hold, errs)
		return nil, errs
	}

	// 7. Поглощаем удержание
	if err := uc.holds.Claim(ctx, hold); err != nil {
		if errors.Is(err, domain.ErrHoldNotFound) {
			uc.logger.Warn("CommitAppointment: hold %s already consumed", hold.Token)
			return nil, err
		}
		uc.logger.Error("CommitAppointment: failed to claim hold %s: %v", hold.Token, err)
		return nil, fmt.Errorf("%w: failed to claim hold: %v", ErrInternal, err)
	}

	// 8. Фиксируем места и запись в одной транзакции
	appointment := &domain.Appointment{
		Reference:         newReference(),
		FormID:            form.ID,
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		Email:             identity.Email,
		UserGUID:          req.UserGUID,
		NbBookedSeats:     booked,
		StartingDateTime:  start,
		EndingDateTime:    last.EndingDateTime.In(uc.location),
		IDActionCancelled: form.IDWorkflowActionCancel,
		CreatedAt:         now,
	}
	for _, c := range hold.Claims {
		appointment.Slots = append(appointment.Slots, domain.AppointmentSlot{SlotID: c.SlotID, Seats: booked})
	}

	err = uc.committer.Commit(ctx, hold.Claims, booked, func(txCtx context.Context) error {
		// правила личности перепроверяются под блокировкой в транзакции
		if !identity.IsEmpty() {
			if err := uc.appointmentRepo.LockIdentity(txCtx, form.ID, identity); err != nil {
				return err
			}
			existing, err := uc.activeAppointments(txCtx, form.ID, identity)
			if err != nil {
				return err
			}
			rules.existing = existing
			if errs := checkRules(rules); len(errs) > 0 {
				return errs
			}
		}

		_, err := uc.appointmentRepo.Create(txCtx, appointment)
		return err
	})
	if err != nil {
		if relErr := uc.holds.ReleaseClaimed(ctx, hold); relErr != nil {
			uc.logger.Error("CommitAppointment: failed to release seats of hold %s: %v", hold.Token, relErr)
		}
		var errs domain.ValidationErrors
		if errors.As(err, &errs) {
			uc.rejected(hold, errs)
			return nil, errs
		}
		if errors.Is(err, domain.ErrSlotFull) {
			uc.logger.Warn("CommitAppointment: hold %s lost its seats: %v", hold.Token, err)
			return nil, err
		}
		uc.logger.Error("CommitAppointment: failed to commit hold %s: %v", hold.Token, err)
		return nil, fmt.Errorf("%w: failed to commit: %v", ErrInternal, err)
	}

	uc.metrics.AppointmentEvent(metrics.AppointmentCommitted)
	uc.logger.Info("CommitAppointment: appointment %s created, form=%d, slots=%v",
		appointment.Reference, form.ID, hold.SlotIDs())

	// 9. Уведомляем движок процессов
	if err := uc.notifier.AppointmentCommitted(ctx, appointment); err != nil {
		uc.logger.Warn("CommitAppointment: failed to notify workflow about %s: %v", appointment.Reference, err)
	}

	return &Response{
		ID:               appointment.ID,
		Reference:        appointment.Reference,
		FormID:           appointment.FormID,
		NbBookedSeats:    appointment.NbBookedSeats,
		StartingDateTime: appointment.StartingDateTime,
		EndingDateTime:   appointment.EndingDateTime,
		SlotIDs:          hold.SlotIDs(),
	}, nil
}

// activeAppointments неотмененные записи личности в форме, время в часовом поясе сервиса
func (uc *UseCase) activeAppointments(ctx context.Context, formID int64, identity domain.Identity) ([]*domain.Appointment, error) {
	if identity.IsEmpty() {
		return nil, nil
	}
	existing, err := uc.appointmentRepo.FindActiveByIdentity(ctx, formID, identity)
	if err != nil {
		return nil, err
	}
	for _, a := range existing {
		a.StartingDateTime = a.StartingDateTime.In(uc.location)
	}
	return existing, nil
}

func (uc *UseCase) rejected(hold *domain.Hold, errs domain.ValidationErrors) {
	for _, rule := range errs.Rules() {
		uc.metrics.ValidationRejection(rule)
	}
	uc.logger.Warn("CommitAppointment: hold %s rejected: %v", hold.Token, errs)
}

// newReference код записи для пользователя
func newReference() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return domain.ReferencePrefix + strings.ToUpper(raw[:referenceLength])
}
