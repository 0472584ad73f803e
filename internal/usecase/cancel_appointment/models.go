package cancel_appointment

import "time"

// Request модель запроса на отмену записи
type Request struct {
	Reference string
	UserGUID  *string
}

// Response модель ответа с отмененной записью
type Response struct {
	Reference   string
	FormID      int64
	CancelledAt time.Time
}
