package schedule

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Resolution недельные расписания, применимые к окну отображения
type Resolution struct {
	Definitions     []*domain.WeekDefinition // По возрастанию даты применения
	MinStartingTime types.TimeString
	MaxEndingTime   types.TimeString
	OpenWeekdays    []time.Weekday
}

// DefinitionFor возвращает расписание, действующее в указанный день:
// последнее по дате применения, но не позже дня. nil, если ни одно еще не действует.
func (r *Resolution) DefinitionFor(day time.Time) *domain.WeekDefinition {
	day = domain.DateIn(day, day.Location())

	var found *domain.WeekDefinition
	for _, def := range r.Definitions {
		if domain.DateIn(def.DateOfApply, day.Location()).After(day) {
			break
		}
		found = def
	}
	return found
}

// Service определяет недельные расписания формы для окна дат
type Service struct {
	repo   WeekDefinitionRepository
	logger Logger
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(repo WeekDefinitionRepository, logger Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Resolve возвращает расписания, применимые к окну [startDate, endDate].
// Если у формы нет ни одного расписания, возвращает domain.ErrNoSchedule.
func (s *Service) Resolve(ctx context.Context, formID int64, startDate, endDate time.Time) (*Resolution, error) {
	if endDate.Before(startDate) {
		return nil, ErrInvalidRange
	}

	definitions, err := s.repo.GetWeekDefinitions(ctx, formID)
	if err != nil {
		s.logger.Error("Resolve: failed to load week definitions for form=%d: %v", formID, err)
		return nil, fmt.Errorf("%w: Resolve - repository error: %v", ErrInternal, err)
	}

	if len(definitions) == 0 {
		s.logger.Warn("Resolve: form=%d has no week definition", formID)
		return nil, domain.ErrNoSchedule
	}

	selected := Select(definitions, startDate, endDate)

	return &Resolution{
		Definitions:     selected,
		MinStartingTime: minStartingTime(selected),
		MaxEndingTime:   maxEndingTime(selected),
		OpenWeekdays:    openWeekdays(selected),
	}, nil
}

// Select оставляет расписания от ближайшего к startDate (не позже него) до endDate включительно.
// Если все расписания позже startDate, отсчет идет от самого раннего.
func Select(definitions []*domain.WeekDefinition, startDate, endDate time.Time) []*domain.WeekDefinition {
	loc := startDate.Location()
	start := domain.DateIn(startDate, loc)
	end := domain.DateIn(endDate, loc)

	sorted := slices.Clone(definitions)
	slices.SortStableFunc(sorted, func(a, b *domain.WeekDefinition) int {
		return a.DateOfApply.Compare(b.DateOfApply)
	})

	if len(sorted) <= 1 {
		return sorted
	}

	// 1. Ищем ближайшее к началу окна
	closest := domain.DateIn(sorted[0].DateOfApply, loc)
	for _, def := range sorted {
		applyDate := domain.DateIn(def.DateOfApply, loc)
		if applyDate.After(start) {
			break
		}
		closest = applyDate
	}

	// 2. Оставляем все от ближайшего до конца окна
	result := make([]*domain.WeekDefinition, 0, len(sorted))
	for _, def := range sorted {
		applyDate := domain.DateIn(def.DateOfApply, loc)
		if applyDate.Before(closest) || applyDate.After(end) {
			continue
		}
		result = append(result, def)
	}

	return result
}

func minStartingTime(definitions []*domain.WeekDefinition) types.TimeString {
	var min types.TimeString
	for _, def := range definitions {
		t := def.MinStartingTime()
		if t.IsZero() {
			continue
		}
		if min.IsZero() || t.IsBefore(min) {
			min = t
		}
	}
	return min
}

func maxEndingTime(definitions []*domain.WeekDefinition) types.TimeString {
	var max types.TimeString
	for _, def := range definitions {
		t := def.MaxEndingTime()
		if t.IsZero() {
			continue
		}
		if max.IsZero() || t.IsAfter(max) {
			max = t
		}
	}
	return max
}

func openWeekdays(definitions []*domain.WeekDefinition) []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for _, def := range definitions {
		for _, d := range def.OpenWeekdays() {
			if !slices.Contains(days, d) {
				days = append(days, d)
			}
		}
	}
	slices.Sort(days)
	return days
}
