package form

import (
	"errors"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrFormNotFound возвращается, когда форма не найдена
	ErrFormNotFound = domain.ErrFormNotFound

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("form.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("form.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("form.repository: failed to scan row")

	// ErrDecodeDays возвращается при некорректном JSON расписания дней
	ErrDecodeDays = errors.New("form.repository: failed to decode week days")
)
