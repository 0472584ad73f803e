package workflow

import "errors"

var (
	// ErrConnect ошибка подключения к брокеру
	ErrConnect = errors.New("workflow: failed to connect to broker")

	// ErrPublish ошибка публикации события
	ErrPublish = errors.New("workflow: failed to publish event")
)
