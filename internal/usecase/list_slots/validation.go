package list_slots

import (
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.FormID <= 0 {
		return fmt.Errorf("%w: formID must be positive", ErrInvalidInput)
	}

	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return fmt.Errorf("%w: 'to' is before 'from'", ErrInvalidInput)
	}

	if req.NbPlacesToTake < 0 || req.NbPlacesToTake > domain.MaxNbPlacesToTake {
		return fmt.Errorf("%w: nbPlacesToTake must be between 0 and %d", ErrInvalidInput, domain.MaxNbPlacesToTake)
	}

	if req.Seats < 0 {
		return fmt.Errorf("%w: seats must not be negative", ErrInvalidInput)
	}

	return nil
}
