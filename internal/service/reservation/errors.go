package reservation

import "errors"

var (
	// ErrInvalidClaim возвращается при пустом списке слотов или неположительном количестве мест
	ErrInvalidClaim = errors.New("reservation: invalid seat claim")

	// ErrInternal возвращается при внутренних ошибках координатора
	ErrInternal = errors.New("reservation: internal error")
)
