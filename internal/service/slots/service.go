package slots

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sort"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Service строит слоты формы из недельных расписаний
type Service struct {
	repo   SlotRepository
	logger Logger
}

// NewService создает новый экземпляр сервиса слотов
func NewService(repo SlotRepository, logger Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Generate возвращает ленивую последовательность виртуальных слотов для дней [from, to].
// Последовательность конечна и может перебираться повторно с тем же результатом.
// Закрытые дни, часы вне рабочих интервалов и дни с нулевой вместимостью пропускаются.
func Generate(form *domain.FormRules, resolution WeekResolution, from, to time.Time) iter.Seq[*domain.Slot] {
	return func(yield func(*domain.Slot) bool) {
		if form == nil || !form.HasValidityWindow() || resolution == nil {
			return
		}

		loc := from.Location()
		first := domain.DateIn(from, loc)
		last := domain.DateIn(to, loc)
		validFrom := domain.DateIn(*form.StartingValidityDate, loc)

		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			if day.Before(validFrom) {
				continue
			}
			if form.EndingValidityDate != nil && day.After(domain.DateIn(*form.EndingValidityDate, loc)) {
				return
			}

			for _, s := range daySlots(form.ID, resolution, day) {
				if !yield(s) {
					return
				}
			}
		}
	}
}

// daySlots нарезает рабочие интервалы дня на слоты фиксированной длительности
func daySlots(formID int64, resolution WeekResolution, day time.Time) []*domain.Slot {
	def := resolution.DefinitionFor(day)
	if def == nil {
		return nil
	}

	dayDef, ok := def.Day(day.Weekday())
	if !ok || !dayDef.IsOpen || dayDef.MaxCapacity <= 0 || dayDef.SlotDurationMinutes <= 0 {
		return nil
	}

	ranges := slices.Clone(dayDef.WorkingHours)
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].Start.IsBefore(ranges[j].Start)
	})

	duration := dayDef.SlotDurationMinutes
	y, m, d := day.Date()
	loc := day.Location()

	result := make([]*domain.Slot, 0)
	for _, wh := range ranges {
		startMin, endMin := wh.Start.Minutes(), wh.End.Minutes()
		if startMin < 0 || endMin < 0 {
			continue
		}
		for cur := startMin; cur+duration <= endMin; cur += duration {
			start := time.Date(y, m, d, cur/60, cur%60, 0, 0, loc)
			end := time.Date(y, m, d, (cur+duration)/60, (cur+duration)%60, 0, 0, loc)
			result = append(result, domain.NewVirtualSlot(formID, start, end, dayDef.MaxCapacity, true))
		}
	}

	return result
}

// Build возвращает слоты дней [from, to]: сгенерированные, поверх которых наложены
// сохраненные слоты с живыми счетчиками. При seatsRequested > 0 остаются только
// открытые слоты, где можно удержать столько мест.
func (s *Service) Build(
	ctx context.Context,
	form *domain.FormRules,
	resolution WeekResolution,
	from, to time.Time,
	seatsRequested int,
) ([]*domain.Slot, error) {
	loc := from.Location()
	rangeStart := domain.DateIn(from, loc)
	rangeEnd := domain.DateIn(to, loc).AddDate(0, 0, 1)

	persisted, err := s.repo.GetByFormAndRange(ctx, form.ID, rangeStart, rangeEnd)
	if err != nil {
		s.logger.Error("Build: failed to load persisted slots for form=%d: %v", form.ID, err)
		return nil, fmt.Errorf("%w: Build - repository error: %v", ErrInternal, err)
	}

	byStart := make(map[int64]*domain.Slot, len(persisted))
	for _, p := range persisted {
		byStart[p.StartingDateTime.UnixNano()] = p
	}

	result := make([]*domain.Slot, 0)
	for slot := range Generate(form, resolution, from, to) {
		key := slot.StartingDateTime.UnixNano()
		if p, ok := byStart[key]; ok {
			overlay(slot, p)
			delete(byStart, key)
		}
		result = append(result, slot)
	}

	// Сохраненные слоты, которых больше нет в расписании, остаются видимыми со своими счетчиками
	for _, p := range byStart {
		orphan := p.Clone()
		orphan.StartingDateTime = orphan.StartingDateTime.In(loc)
		orphan.EndingDateTime = orphan.EndingDateTime.In(loc)
		result = append(result, orphan)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartingDateTime.Before(result[j].StartingDateTime)
	})

	if seatsRequested <= 0 {
		return result, nil
	}

	filtered := make([]*domain.Slot, 0, len(result))
	for _, slot := range result {
		if slot.IsAvailable(seatsRequested) {
			filtered = append(filtered, slot)
		}
	}
	return filtered, nil
}

// overlay переносит идентичность и живые счетчики сохраненного слота на сгенерированный
func overlay(generated, persisted *domain.Slot) {
	generated.ID = persisted.ID
	generated.EndingDateTime = persisted.EndingDateTime.In(generated.StartingDateTime.Location())
	generated.MaxCapacity = persisted.MaxCapacity
	generated.NbRemainingPlaces = persisted.NbRemainingPlaces
	generated.NbPotentialRemainingPlaces = persisted.NbPotentialRemainingPlaces
	generated.IsOpen = persisted.IsOpen
}

// FirstAvailableDate возвращает день первого открытого слота со свободными местами
func FirstAvailableDate(slots []*domain.Slot) (time.Time, bool) {
	for _, s := range slots {
		if s.IsAvailable(1) {
			return s.Date(), true
		}
	}
	return time.Time{}, false
}
