package commit_appointment

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if strings.TrimSpace(req.Token) == "" {
		return fmt.Errorf("%w: hold token is required", ErrInvalidInput)
	}

	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return fmt.Errorf("%w: firstName and lastName are required", ErrInvalidInput)
	}

	if len(req.FirstName) > domain.MaxNameLength || len(req.LastName) > domain.MaxNameLength {
		return fmt.Errorf("%w: name is longer than %d characters", ErrInvalidInput, domain.MaxNameLength)
	}

	email := strings.TrimSpace(req.Email)
	if len(email) > domain.MaxEmailLength {
		return fmt.Errorf("%w: email is longer than %d characters", ErrInvalidInput, domain.MaxEmailLength)
	}
	if email != "" && !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email is malformed", ErrInvalidInput)
	}

	if req.NbBookedSeats < 0 {
		return fmt.Errorf("%w: nbBookedSeats must not be negative", ErrInvalidInput)
	}

	return nil
}

// ruleInput данные для проверки правил записи
type ruleInput struct {
	form      *domain.FormRules
	now       time.Time
	start     time.Time // Начало первого слота
	heldSeats int       // Удержано мест на каждом слоте
	booked    int
	existing  []*domain.Appointment // Активные записи той же личности на форме
}

// checkRules проверяет все правила записи и возвращает все нарушения сразу
func checkRules(in ruleInput) domain.ValidationErrors {
	var errs domain.ValidationErrors
	day := domain.StartOfDay(in.start)

	if in.start.Before(in.now.Add(time.Duration(in.form.MinTimeBeforeAppointment) * time.Hour)) {
		errs = append(errs, &domain.RuleError{
			Rule: domain.RuleLeadTime,
			Err:  fmt.Errorf("%w: at least %d hours in advance", domain.ErrLeadTime, in.form.MinTimeBeforeAppointment),
		})
	}

	if in.form.HasCooldown() {
		for _, a := range in.existing {
			if abs(domain.DaysBetween(a.Date(), day)) < in.form.NbDaysBeforeNewAppointment {
				errs = append(errs, &domain.RuleError{
					Rule: domain.RuleCooldown,
					Err: fmt.Errorf("%w: appointment %s on %s, %d days required", domain.ErrCooldown,
						a.Reference, a.Date().Format(domain.DateFormat), in.form.NbDaysBeforeNewAppointment),
				})
				break
			}
		}
	}

	if in.form.HasPeriodCap() {
		count := 0
		for _, a := range in.existing {
			if abs(domain.DaysBetween(a.Date(), day)) <= in.form.NbDaysForMaxAppointmentsPerUser {
				count++
			}
		}
		if count >= in.form.NbMaxAppointmentsPerUser {
			errs = append(errs, &domain.RuleError{
				Rule: domain.RulePeriodCap,
				Err: fmt.Errorf("%w: %d appointments within %d days", domain.ErrPeriodCap,
					in.form.NbMaxAppointmentsPerUser, in.form.NbDaysForMaxAppointmentsPerUser),
			})
		}
	}

	if in.booked < 1 || in.booked > in.heldSeats || in.booked > in.form.MaxSeats() {
		errs = append(errs, &domain.RuleError{
			Rule: domain.RuleBookedSeats,
			Err:  fmt.Errorf("%w: %d booked, %d held", domain.ErrBookedSeats, in.booked, in.heldSeats),
		})
	}

	return errs
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
