package hold_seats

import "time"

// Request модель запроса на удержание мест
type Request struct {
	FormID           int64
	SessionID        string
	StartingDateTime time.Time // Начало первого слота, время формы
	NbPlacesToTake   int       // Количество последовательных слотов (для формы с записью на несколько слотов)
	Seats            int       // Количество мест на каждом слоте
}

// Response модель ответа с удержанием
type Response struct {
	Token     string
	FormID    int64
	Seats     int
	ExpiresAt time.Time
	Slots     []Slot
}

// Slot удержанный слот
type Slot struct {
	ID               int64
	StartingDateTime time.Time
	EndingDateTime   time.Time
}
