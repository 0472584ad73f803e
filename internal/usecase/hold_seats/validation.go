package hold_seats

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.FormID <= 0 {
		return fmt.Errorf("%w: formID must be positive", ErrInvalidInput)
	}

	if strings.TrimSpace(req.SessionID) == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}

	if req.StartingDateTime.IsZero() {
		return fmt.Errorf("%w: startingDateTime is required", ErrInvalidInput)
	}

	if req.Seats < 0 {
		return fmt.Errorf("%w: seats must not be negative", ErrInvalidInput)
	}

	if req.NbPlacesToTake < 0 || req.NbPlacesToTake > domain.MaxNbPlacesToTake {
		return fmt.Errorf("%w: nbPlacesToTake must be between 0 and %d", ErrInvalidInput, domain.MaxNbPlacesToTake)
	}

	return nil
}

// slotsToTake количество последовательных слотов для формы
func slotsToTake(form *domain.FormRules, requested int) int {
	if !form.IsMultislotAppointment || requested < 1 {
		return 1
	}
	return requested
}
