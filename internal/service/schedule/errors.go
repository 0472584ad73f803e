package schedule

import "errors"

var (
	// ErrInvalidRange возвращается, когда конец окна раньше начала
	ErrInvalidRange = errors.New("schedule: end date before start date")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("schedule: internal error")
)
