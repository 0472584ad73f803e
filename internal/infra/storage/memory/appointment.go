package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// AppointmentRepository записи на прием в памяти
type AppointmentRepository struct {
	mu          sync.RWMutex
	nextID      int64
	byID        map[int64]*domain.Appointment
	byReference map[string]int64
}

// NewAppointmentRepository создает пустой репозиторий записей
func NewAppointmentRepository() *AppointmentRepository {
	return &AppointmentRepository{
		byID:        make(map[int64]*domain.Appointment),
		byReference: make(map[string]int64),
	}
}

func cloneAppointment(a *domain.Appointment) *domain.Appointment {
	c := *a
	c.Slots = append([]domain.AppointmentSlot(nil), a.Slots...)
	if a.UserGUID != nil {
		guid := *a.UserGUID
		c.UserGUID = &guid
	}
	if a.CancelledAt != nil {
		at := *a.CancelledAt
		c.CancelledAt = &at
	}
	return &c
}

// Create сохраняет запись
func (r *AppointmentRepository) Create(_ context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byReference[a.Reference]; ok {
		return nil, fmt.Errorf("memory: duplicate appointment reference %s", a.Reference)
	}

	r.nextID++
	a.ID = r.nextID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	r.byID[a.ID] = cloneAppointment(a)
	r.byReference[a.Reference] = a.ID

	return a, nil
}

// GetByReference получает запись по коду
func (r *AppointmentRepository) GetByReference(_ context.Context, reference string) (*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byReference[reference]
	if !ok {
		return nil, fmt.Errorf("%w: reference=%s", domain.ErrAppointmentNotFound, reference)
	}
	return cloneAppointment(r.byID[id]), nil
}

// LockIdentity ничего не делает: в памяти коммиты одной личности сериализует use case
func (r *AppointmentRepository) LockIdentity(context.Context, int64, domain.Identity) error {
	return nil
}

// FindActiveByIdentity получает неотмененные записи формы той же личности
func (r *AppointmentRepository) FindActiveByIdentity(_ context.Context, formID int64, identity domain.Identity) ([]*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Appointment, 0)
	for _, a := range r.byID {
		if a.FormID != formID || a.IsCancelled || !a.BelongsTo(identity) {
			continue
		}
		result = append(result, cloneAppointment(a))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartingDateTime.Before(result[j].StartingDateTime)
	})

	return result, nil
}

// MarkCancelled помечает запись отмененной
func (r *AppointmentRepository) MarkCancelled(_ context.Context, id int64, cancelledAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: id=%d", domain.ErrAppointmentNotFound, id)
	}
	if a.IsCancelled {
		return fmt.Errorf("%w: id=%d", domain.ErrAlreadyCancelled, id)
	}

	a.IsCancelled = true
	a.CancelledAt = &cancelledAt

	return nil
}
