// Package selector выбирает цепочку последовательных слотов для записи на несколько слотов.
package selector

import (
	"fmt"
	"slices"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// SelectConsecutive возвращает n слотов подряд, начиная с первого доступного не раньше start.
// Кандидаты отбираются по start, открытости и наличию потенциальных мест и
// упорядочиваются по времени начала. Если их меньше n, возвращается domain.ErrSlotFull.
// Если конец одного слота не совпадает с началом следующего, возвращается domain.ErrNotConsecutive.
func SelectConsecutive(candidates []*domain.Slot, start time.Time, n int) ([]*domain.Slot, error) {
	if n <= 0 {
		n = 1
	}

	eligible := make([]*domain.Slot, 0, len(candidates))
	for _, s := range candidates {
		if s.StartingDateTime.Before(start) || !s.IsAvailable(1) {
			continue
		}
		eligible = append(eligible, s)
	}
	slices.SortStableFunc(eligible, func(a, b *domain.Slot) int {
		return a.StartingDateTime.Compare(b.StartingDateTime)
	})

	if len(eligible) < n {
		return nil, fmt.Errorf("%w: %d consecutive slots requested from %s, %d available",
			domain.ErrSlotFull, n, start.Format(domain.DateTimeFormat), len(eligible))
	}

	run := eligible[:n]
	for i := 0; i+1 < len(run); i++ {
		if !run[i].EndingDateTime.Equal(run[i+1].StartingDateTime) {
			return nil, fmt.Errorf("%w: slot ending %s is followed by slot starting %s",
				domain.ErrNotConsecutive,
				run[i].EndingDateTime.Format(domain.DateTimeFormat),
				run[i+1].StartingDateTime.Format(domain.DateTimeFormat))
		}
	}

	return run, nil
}

// ValidRunStarts оставляет слоты, с которых начинается цепочка из n последовательных
// слотов, где на каждом можно удержать seats мест. slots должны быть упорядочены по началу.
func ValidRunStarts(slots []*domain.Slot, n, seats int) []*domain.Slot {
	if n <= 1 {
		result := make([]*domain.Slot, 0, len(slots))
		for _, s := range slots {
			if s.IsAvailable(max(seats, 1)) {
				result = append(result, s)
			}
		}
		return result
	}

	// run[i] длина непрерывной цепочки доступных слотов, начинающейся с i
	run := make([]int, len(slots))
	for i := len(slots) - 1; i >= 0; i-- {
		if !slots[i].IsAvailable(max(seats, 1)) {
			continue
		}
		run[i] = 1
		if i+1 < len(slots) && slots[i].EndingDateTime.Equal(slots[i+1].StartingDateTime) {
			run[i] += run[i+1]
		}
	}

	result := make([]*domain.Slot, 0, len(slots))
	for i, s := range slots {
		if run[i] >= n {
			result = append(result, s)
		}
	}
	return result
}
