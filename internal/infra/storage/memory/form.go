package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// FormRepository правила форм и недельные расписания в памяти
type FormRepository struct {
	mu          sync.RWMutex
	forms       map[int64]*domain.FormRules
	definitions map[int64][]*domain.WeekDefinition
}

// NewFormRepository создает пустой репозиторий форм
func NewFormRepository() *FormRepository {
	return &FormRepository{
		forms:       make(map[int64]*domain.FormRules),
		definitions: make(map[int64][]*domain.WeekDefinition),
	}
}

// SaveForm добавляет или заменяет форму
func (r *FormRepository) SaveForm(form *domain.FormRules) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *form
	r.forms[form.ID] = &c
}

// AddWeekDefinition добавляет недельное расписание формы
func (r *FormRepository) AddWeekDefinition(def *domain.WeekDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *def
	c.Days = append([]domain.DayDefinition(nil), def.Days...)
	defs := append(r.definitions[def.FormID], &c)
	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].DateOfApply.Before(defs[j].DateOfApply)
	})
	r.definitions[def.FormID] = defs
}

// GetByID получает правила формы
func (r *FormRepository) GetByID(_ context.Context, id int64) (*domain.FormRules, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.forms[id]
	if !ok {
		return nil, fmt.Errorf("%w: id=%d", domain.ErrFormNotFound, id)
	}
	c := *f
	return &c, nil
}

// GetWeekDefinitions получает недельные расписания формы по возрастанию даты применения
func (r *FormRepository) GetWeekDefinitions(_ context.Context, formID int64) ([]*domain.WeekDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := r.definitions[formID]
	result := make([]*domain.WeekDefinition, 0, len(defs))
	for _, d := range defs {
		c := *d
		result = append(result, &c)
	}
	return result, nil
}
