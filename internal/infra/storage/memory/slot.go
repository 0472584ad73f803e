// Package memory хранилища в памяти процесса.
// Используются при storage.driver = "memory" и в тестах движка бронирования.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type slotKey struct {
	formID int64
	start  int64 // UnixNano, одинаковый момент времени в разных зонах дает один ключ
}

// SlotRepository слоты в памяти
type SlotRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*domain.Slot
	byKey  map[slotKey]int64
}

// NewSlotRepository создает пустой репозиторий слотов
func NewSlotRepository() *SlotRepository {
	return &SlotRepository{
		byID:  make(map[int64]*domain.Slot),
		byKey: make(map[slotKey]int64),
	}
}

func keyOf(formID int64, start time.Time) slotKey {
	return slotKey{formID: formID, start: start.UnixNano()}
}

// InsertOrGet сохраняет слот или возвращает уже сохраненный с тем же ключом
func (r *SlotRepository) InsertOrGet(_ context.Context, slot *domain.Slot) (*domain.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := keyOf(slot.FormID, slot.StartingDateTime)
	if id, ok := r.byKey[key]; ok {
		return r.byID[id].Clone(), nil
	}

	r.nextID++
	stored := slot.Clone()
	stored.ID = r.nextID
	r.byID[stored.ID] = stored
	r.byKey[key] = stored.ID

	return stored.Clone(), nil
}

// GetByKey получает слот по естественному ключу
func (r *SlotRepository) GetByKey(_ context.Context, formID int64, start time.Time) (*domain.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[keyOf(formID, start)]
	if !ok {
		return nil, fmt.Errorf("%w: form_id=%d start=%s", domain.ErrSlotNotFound, formID, start.Format(time.RFC3339))
	}
	return r.byID[id].Clone(), nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(_ context.Context, id int64) (*domain.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", domain.ErrSlotNotFound, id)
	}
	return s.Clone(), nil
}

// GetByIDForUpdate то же, что GetByID: эксклюзивность обеспечивает блокировка слота у вызывающего
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Slot, error) {
	return r.GetByID(ctx, id)
}

// GetByFormAndRange получает слоты формы, начинающиеся в [from, to)
func (r *SlotRepository) GetByFormAndRange(_ context.Context, formID int64, from, to time.Time) ([]*domain.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	slots := make([]*domain.Slot, 0)
	for _, s := range r.byID {
		if s.FormID != formID || s.StartingDateTime.Before(from) || !s.StartingDateTime.Before(to) {
			continue
		}
		slots = append(slots, s.Clone())
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartingDateTime.Before(slots[j].StartingDateTime)
	})

	return slots, nil
}

// UpdateCounters сохраняет счетчики мест
func (r *SlotRepository) UpdateCounters(_ context.Context, slot *domain.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[slot.ID]
	if !ok {
		return fmt.Errorf("%w: id=%d", domain.ErrSlotNotFound, slot.ID)
	}
	s.NbRemainingPlaces = slot.NbRemainingPlaces
	s.NbPotentialRemainingPlaces = slot.NbPotentialRemainingPlaces

	return nil
}

// Count возвращает количество сохраненных слотов
func (r *SlotRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
