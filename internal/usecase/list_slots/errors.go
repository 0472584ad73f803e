package list_slots

import "errors"

var (
	// ErrFormNotFound возвращается, когда форма не найдена
	ErrFormNotFound = errors.New("list_slots: form not found")

	// ErrFormInactive возвращается, когда форма отключена
	ErrFormInactive = errors.New("list_slots: form is not active")

	// ErrFormNoLongerValid возвращается, когда срок действия формы истек
	ErrFormNoLongerValid = errors.New("list_slots: form is no longer valid")

	// ErrNoSchedule возвращается, когда у формы нет недельного расписания
	ErrNoSchedule = errors.New("list_slots: form not configured")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("list_slots: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("list_slots: internal error")
)
