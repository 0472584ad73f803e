package cancel_appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

// UseCase use case для отмены записи
type UseCase struct {
	appointmentRepo AppointmentRepository
	restorer        SeatRestorer
	notifier        Notifier
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	restorer SeatRestorer,
	notifier Notifier,
	m Metrics,
	logger Logger,
) *UseCase {
	return &UseCase{
		appointmentRepo: appointmentRepo,
		restorer:        restorer,
		notifier:        notifier,
		metrics:         m,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute отменяет запись и возвращает ее места в обе доступности слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CancelAppointment: reference=%s", req.Reference)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CancelAppointment: validation failed: %v", err)
		return nil, err
	}
	reference := strings.TrimSpace(req.Reference)

	// 2. Получаем запись
	appointment, err := uc.appointmentRepo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrAppointmentNotFound) {
			uc.logger.Warn("CancelAppointment: appointment %s not found", reference)
			return nil, ErrAppointmentNotFound
		}
		uc.logger.Error("CancelAppointment: failed to get appointment %s: %v", reference, err)
		return nil, fmt.Errorf("%w: failed to get appointment: %v", ErrInternal, err)
	}

	// 3. Проверяем доступ
	if req.UserGUID != nil && *req.UserGUID != "" && appointment.UserGUID != nil && *appointment.UserGUID != *req.UserGUID {
		uc.logger.Warn("CancelAppointment: user=%s cannot cancel appointment %s", *req.UserGUID, reference)
		return nil, ErrAccessDenied
	}

	// 4. Проверяем статус записи
	now := uc.timeProvider.Now()
	if appointment.IsCancelled {
		uc.logger.Warn("CancelAppointment: appointment %s already cancelled", reference)
		return nil, domain.ErrAlreadyCancelled
	}
	if appointment.HasStarted(now) {
		uc.logger.Warn("CancelAppointment: appointment %s already started", reference)
		return nil, domain.ErrAppointmentPassed
	}

	// 5. Возвращаем места и помечаем запись отмененной в одной транзакции
	err = uc.restorer.CancelCommitted(ctx, appointment.Claims(), func(txCtx context.Context) error {
		return uc.appointmentRepo.MarkCancelled(txCtx, appointment.ID, now)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyCancelled) {
			uc.logger.Warn("CancelAppointment: appointment %s cancelled concurrently", reference)
			return nil, domain.ErrAlreadyCancelled
		}
		uc.logger.Error("CancelAppointment: failed to cancel appointment %s: %v", reference, err)
		return nil, fmt.Errorf("%w: failed to cancel: %v", ErrInternal, err)
	}

	uc.metrics.AppointmentEvent(metrics.AppointmentCancelled)
	uc.logger.Info("CancelAppointment: appointment %s cancelled", reference)

	// 6. Уведомляем движок процессов
	if err := uc.notifier.AppointmentCancelled(ctx, appointment, appointment.IDActionCancelled); err != nil {
		uc.logger.Warn("CancelAppointment: failed to notify workflow about %s: %v", reference, err)
	}

	return &Response{
		Reference:   appointment.Reference,
		FormID:      appointment.FormID,
		CancelledAt: now,
	}, nil
}
