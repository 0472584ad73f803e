package list_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на получение слотов формы
type Request struct {
	FormID         int64
	From           *time.Time // Первый день (опционально, по умолчанию начало окна отображения)
	To             *time.Time // Последний день включительно (опционально, по умолчанию конец окна)
	NbPlacesToTake int        // Количество последовательных слотов для формы с записью на несколько слотов
	Seats          int        // Количество мест на слоте, 0 = показать все слоты
}

// Response модель ответа со слотами
type Response struct {
	FormID             int64
	From               time.Time
	To                 time.Time
	MinStartingTime    types.TimeString
	MaxEndingTime      types.TimeString
	OpenWeekdays       []time.Weekday
	FirstAvailableDate *time.Time // nil, если свободных слотов нет
	Slots              []Slot
}

// Slot модель слота
type Slot struct {
	ID                         int64 // 0 для еще не сохраненного слота
	StartingDateTime           time.Time
	EndingDateTime             time.Time
	MaxCapacity                int
	NbRemainingPlaces          int
	NbPotentialRemainingPlaces int
	IsOpen                     bool
	IsFull                     bool
}
