package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// Service сервис для чтения записей
type Service struct {
	repo   AppointmentRepository
	logger Logger
}

// NewService создает новый экземпляр сервиса записей
func NewService(repo AppointmentRepository, logger Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetByReference получает запись по коду.
// Код сам по себе дает доступ к записи. Если запрос пришел от известного пользователя,
// а запись сделана другим известным пользователем, доступ запрещен.
func (s *Service) GetByReference(ctx context.Context, reference string, userGUID *string) (*models.AppointmentResponse, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrInvalidInput)
	}

	appointment, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, domain.ErrAppointmentNotFound) {
			s.logger.Warn("GetByReference: appointment %s not found", reference)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("GetByReference: repository error for appointment %s: %v", reference, err)
		return nil, fmt.Errorf("%w: GetByReference - repository error: %v", ErrInternal, err)
	}

	if userGUID != nil && *userGUID != "" && appointment.UserGUID != nil && *appointment.UserGUID != *userGUID {
		s.logger.Warn("GetByReference: access denied for user=%s to appointment %s", *userGUID, reference)
		return nil, ErrAccessDenied
	}

	return models.FromDomainAppointment(appointment), nil
}
