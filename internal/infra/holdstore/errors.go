package holdstore

import (
	"errors"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrHoldNotFound удержание не найдено или уже удалено
	ErrHoldNotFound = domain.ErrHoldNotFound

	// ErrEncodeHold ошибка сериализации удержания
	ErrEncodeHold = errors.New("holdstore: failed to encode hold")

	// ErrDecodeHold ошибка десериализации удержания
	ErrDecodeHold = errors.New("holdstore: failed to decode hold")

	// ErrStore ошибка хранилища
	ErrStore = errors.New("holdstore: store error")
)
