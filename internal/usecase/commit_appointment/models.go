package commit_appointment

import "time"

// Request модель запроса на фиксацию записи
type Request struct {
	Token         string
	SessionID     string
	FirstName     string
	LastName      string
	Email         string
	UserGUID      *string // Из заголовка X-User-GUID, nil для анонимной записи
	NbBookedSeats int     // 0 = все удержанные места
}

// Response модель ответа с созданной записью
type Response struct {
	ID               int64
	Reference        string
	FormID           int64
	NbBookedSeats    int
	StartingDateTime time.Time
	EndingDateTime   time.Time
	SlotIDs          []int64
}
