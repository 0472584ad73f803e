package commit_appointment

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("commit_appointment: invalid input data")

	// ErrEmailRequired возвращается, когда форма требует email, а он не указан
	ErrEmailRequired = errors.New("commit_appointment: email is required by this form")

	// ErrFormNotFound возвращается, когда форма удержания не найдена
	ErrFormNotFound = errors.New("commit_appointment: form not found")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("commit_appointment: internal error")
)
