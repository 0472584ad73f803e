package holds

import "errors"

var (
	// ErrInvalidSession возвращается при пустом идентификаторе сессии
	ErrInvalidSession = errors.New("holds: session id is required")

	// ErrInternal возвращается при внутренних ошибках
	ErrInternal = errors.New("holds: internal error")
)
