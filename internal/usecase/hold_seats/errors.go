package hold_seats

import "errors"

var (
	// ErrFormNotFound возвращается, когда форма не найдена
	ErrFormNotFound = errors.New("hold_seats: form not found")

	// ErrFormInactive возвращается, когда форма отключена или вне срока действия
	ErrFormInactive = errors.New("hold_seats: form is not open for booking")

	// ErrNoSchedule возвращается, когда у формы нет недельного расписания
	ErrNoSchedule = errors.New("hold_seats: form not configured")

	// ErrOutsideWindow возвращается, когда слот вне окна отображения формы
	ErrOutsideWindow = errors.New("hold_seats: slot is outside the booking window")

	// ErrTooLate возвращается, когда до начала слота меньше минимального времени
	ErrTooLate = errors.New("hold_seats: too late to book this slot")

	// ErrTooManySeats возвращается, когда мест больше, чем разрешено формой
	ErrTooManySeats = errors.New("hold_seats: too many seats requested")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("hold_seats: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("hold_seats: internal error")
)
