package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// События жизненного цикла удержаний
const (
	HoldCreated  = "created"
	HoldReleased = "released"
	HoldExpired  = "expired"
	HoldClaimed  = "claimed"
)

// Этапы, на которых слот может оказаться заполненным
const (
	StageHold   = "hold"
	StageCommit = "commit"
)

// События записей на прием
const (
	AppointmentCommitted = "committed"
	AppointmentCancelled = "cancelled"
)

// Metrics набор метрик сервиса.
// Все методы безопасны для nil-получателя: при выключенных метриках ничего не пишется.
type Metrics struct {
	serviceName string

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// База данных
	DBQueryDuration   *prometheus.HistogramVec
	DBQueryErrors     *prometheus.CounterVec
	DBOpenConnections *prometheus.GaugeVec
	DBInUse           *prometheus.GaugeVec
	DBIdle            *prometheus.GaugeVec
	DBWaitCount       *prometheus.GaugeVec

	// Доменные
	HoldsTotal         *prometheus.CounterVec
	SlotFullTotal      *prometheus.CounterVec
	AppointmentsTotal  *prometheus.CounterVec
	ValidationRejected *prometheus.CounterVec
}

// New создает метрики и регистрирует их в глобальном реестре Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry создает метрики в указанном реестре
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		serviceName: serviceName,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"service", "operation"}),

		DBQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of failed database queries",
		}, []string{"service", "operation"}),

		DBOpenConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_open_connections",
			Help: "Number of established connections",
		}, []string{"service"}),

		DBInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_in_use_connections",
			Help: "Number of connections currently in use",
		}, []string{"service"}),

		DBIdle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_idle_connections",
			Help: "Number of idle connections",
		}, []string{"service"}),

		DBWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_wait_count",
			Help: "Total number of connections waited for",
		}, []string{"service"}),

		HoldsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seat_holds_total",
			Help: "Seat holds by lifecycle event",
		}, []string{"service", "event"}),

		SlotFullTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slot_full_rejections_total",
			Help: "Requests rejected because a slot had no remaining places",
		}, []string{"service", "stage"}),

		AppointmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointments_total",
			Help: "Appointments by event",
		}, []string{"service", "event"}),

		ValidationRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointment_validation_rejections_total",
			Help: "Appointment requests rejected by booking rules",
		}, []string{"service", "rule"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBQueryErrors,
		m.DBOpenConnections,
		m.DBInUse,
		m.DBIdle,
		m.DBWaitCount,
		m.HoldsTotal,
		m.SlotFullTotal,
		m.AppointmentsTotal,
		m.ValidationRejected,
	)

	return m
}

// ObserveHTTPRequest записывает метрики HTTP запроса
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// ObserveDBQuery записывает длительность запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(m.serviceName, operation).Observe(duration.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(m.serviceName, operation).Inc()
	}
}

// HoldEvent учитывает событие удержания мест
func (m *Metrics) HoldEvent(event string) {
	if m == nil {
		return
	}
	m.HoldsTotal.WithLabelValues(m.serviceName, event).Inc()
}

// SlotFull учитывает отказ из-за заполненного слота
func (m *Metrics) SlotFull(stage string) {
	if m == nil {
		return
	}
	m.SlotFullTotal.WithLabelValues(m.serviceName, stage).Inc()
}

// AppointmentEvent учитывает создание или отмену записи
func (m *Metrics) AppointmentEvent(event string) {
	if m == nil {
		return
	}
	m.AppointmentsTotal.WithLabelValues(m.serviceName, event).Inc()
}

// ValidationRejection учитывает нарушение правила бронирования
func (m *Metrics) ValidationRejection(rule string) {
	if m == nil {
		return
	}
	m.ValidationRejected.WithLabelValues(m.serviceName, rule).Inc()
}
