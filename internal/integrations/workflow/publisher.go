package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Publisher публикует события записей в RabbitMQ
type Publisher struct {
	url      string
	exchange string
	queue    string
	timeout  time.Duration
	logger   Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher подключается к брокеру и объявляет очередь.
// Если exchange задан, он объявляется как direct и очередь привязывается к нему.
func NewPublisher(url, exchange, queue string, timeout time.Duration, logger Logger) (*Publisher, error) {
	p := &Publisher{
		url:      url,
		exchange: exchange,
		queue:    queue,
		timeout:  timeout,
		logger:   logger,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connect(); err != nil {
		return nil, err
	}

	return p, nil
}

// connect вызывается под p.mu
func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("%w: dial: %v", ErrConnect, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: channel: %v", ErrConnect, err)
	}

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("%w: queue declare: %v", ErrConnect, err)
	}

	if p.exchange != "" {
		if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return fmt.Errorf("%w: exchange declare: %v", ErrConnect, err)
		}
		if err := ch.QueueBind(p.queue, p.queue, p.exchange, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return fmt.Errorf("%w: queue bind: %v", ErrConnect, err)
		}
	}

	p.conn = conn
	p.ch = ch
	return nil
}

// Publish отправляет событие. Разорванное соединение восстанавливается один раз.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrPublish, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() || p.ch == nil || p.ch.IsClosed() {
		p.logger.Warn("workflow: connection lost, reconnecting")
		if err := p.connect(); err != nil {
			return err
		}
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         event.Type,
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, p.exchange, p.queue, false, false, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	p.logger.Info("workflow: published %s reference=%s", event.Type, event.Reference)
	return nil
}

// AppointmentCommitted сообщает о новой записи
func (p *Publisher) AppointmentCommitted(ctx context.Context, a *domain.Appointment) error {
	return p.Publish(ctx, NewEvent(EventAppointmentCommitted, a, 0, time.Now()))
}

// AppointmentCancelled сообщает об отмене записи и передает действие процесса формы
func (p *Publisher) AppointmentCancelled(ctx context.Context, a *domain.Appointment, idAction int) error {
	return p.Publish(ctx, NewEvent(EventAppointmentCancelled, a, idAction, time.Now()))
}

// Close закрывает канал и соединение
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Noop уведомитель, когда интеграция с движком процессов выключена
type Noop struct{}

// NewNoop создает пустой уведомитель
func NewNoop() *Noop {
	return &Noop{}
}

// AppointmentCommitted ничего не делает
func (Noop) AppointmentCommitted(context.Context, *domain.Appointment) error { return nil }

// AppointmentCancelled ничего не делает
func (Noop) AppointmentCancelled(context.Context, *domain.Appointment, int) error { return nil }
