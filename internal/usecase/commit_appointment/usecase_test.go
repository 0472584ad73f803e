package commit_appointment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/holdstore"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/internal/service/holds"
	"github.com/m04kA/SMC-AppointmentService/internal/service/reservation"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	committed []string
	err       error
}

func (n *recordingNotifier) AppointmentCommitted(_ context.Context, a *domain.Appointment) error {
	n.committed = append(n.committed, a.Reference)
	return n.err
}

type failingAppointments struct {
	*memory.AppointmentRepository
}

func (failingAppointments) Create(context.Context, *domain.Appointment) (*domain.Appointment, error) {
	return nil, errors.New("insert failed")
}

// concurrentAppointments записывает чужую запись той же личности в момент
// блокировки личности, как если бы ее зафиксировал другой экземпляр сервиса
type concurrentAppointments struct {
	*memory.AppointmentRepository
	competing *domain.Appointment
}

func (r *concurrentAppointments) LockIdentity(ctx context.Context, _ int64, _ domain.Identity) error {
	if r.competing == nil {
		return nil
	}
	_, err := r.AppointmentRepository.Create(ctx, r.competing)
	r.competing = nil
	return err
}

// Среда 2026-03-04 10:00
var now = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

type env struct {
	uc           *UseCase
	clock        *clock
	forms        *memory.FormRepository
	slots        *memory.SlotRepository
	appointments *memory.AppointmentRepository
	coordinator  *reservation.Coordinator
	manager      *holds.Manager
	notifier     *recordingNotifier
	form         *domain.FormRules
}

func newEnv(t *testing.T, form *domain.FormRules) *env {
	t.Helper()
	log := logger.NewNop()
	var m *metrics.Metrics

	form.ID = 1
	form.IsActive = true
	forms := memory.NewFormRepository()
	forms.SaveForm(form)

	slotRepo := memory.NewSlotRepository()
	appointments := memory.NewAppointmentRepository()
	c := &clock{now: now}
	notifier := &recordingNotifier{}

	coordinator := reservation.NewCoordinator(slotRepo, txmanager.NewNoop(), m, log)
	manager := holds.NewManager(holdstore.NewMemory(), coordinator, m, log, holds.WithTimeProvider(c))

	uc := NewUseCase(manager, coordinator, forms, slotRepo, appointments, notifier, m, time.UTC, log)
	uc.timeProvider = c

	return &env{
		uc:           uc,
		clock:        c,
		forms:        forms,
		slots:        slotRepo,
		appointments: appointments,
		coordinator:  coordinator,
		manager:      manager,
		notifier:     notifier,
		form:         form,
	}
}

func at(day, hh int) time.Time {
	return time.Date(2026, 3, day, hh, 0, 0, 0, time.UTC)
}

// hold удерживает места на часовых слотах вместимостью 3, начиная со start
func (e *env) hold(t *testing.T, session string, seats int, starts ...time.Time) *domain.Hold {
	t.Helper()
	ctx := context.Background()

	claims := make([]domain.SeatClaim, 0, len(starts))
	for _, start := range starts {
		s, err := e.coordinator.MaterializeIfNeeded(ctx, domain.NewVirtualSlot(1, start, start.Add(time.Hour), 3, true))
		require.NoError(t, err)
		claims = append(claims, domain.SeatClaim{SlotID: s.ID, Seats: seats})
	}

	h, err := e.manager.Create(ctx, session, e.form, claims)
	require.NoError(t, err)
	return h
}

func (e *env) existing(t *testing.T, reference, email string, start time.Time) {
	t.Helper()
	_, err := e.appointments.Create(context.Background(), &domain.Appointment{
		Reference:        reference,
		FormID:           1,
		FirstName:        "Jeanne",
		LastName:         "Martin",
		Email:            email,
		NbBookedSeats:    1,
		StartingDateTime: start,
		EndingDateTime:   start.Add(time.Hour),
	})
	require.NoError(t, err)
}

func (e *env) slotAt(t *testing.T, start time.Time) *domain.Slot {
	t.Helper()
	s, err := e.slots.GetByKey(context.Background(), 1, start)
	require.NoError(t, err)
	return s
}

func request(h *domain.Hold, email string) *Request {
	return &Request{
		Token:     string(h.Token),
		SessionID: h.SessionID,
		FirstName: "Jeanne",
		LastName:  "Martin",
		Email:     email,
	}
}

func rulesOf(t *testing.T, err error) []string {
	t.Helper()
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	return verrs.Rules()
}

func TestUseCase_Commit(t *testing.T) {
	e := newEnv(t, &domain.FormRules{MaxPeoplePerAppointment: 3, IDWorkflowActionCancel: 7})
	ctx := context.Background()
	h := e.hold(t, "s1", 2, at(10, 9))

	req := request(h, "jeanne@example.org")
	req.NbBookedSeats = 1
	resp, err := e.uc.Execute(ctx, req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.Reference, domain.ReferencePrefix))
	assert.Len(t, resp.Reference, len(domain.ReferencePrefix)+12)
	assert.Equal(t, 1, resp.NbBookedSeats)
	assert.Equal(t, at(10, 9), resp.StartingDateTime)
	assert.Equal(t, at(10, 10), resp.EndingDateTime)
	assert.Equal(t, []string{resp.Reference}, e.notifier.committed)

	// Неиспользованное удержанное место вернулось в potential
	s := e.slotAt(t, at(10, 9))
	assert.Equal(t, 2, s.NbRemainingPlaces)
	assert.Equal(t, 2, s.NbPotentialRemainingPlaces)

	stored, err := e.appointments.GetByReference(ctx, resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.IDActionCancelled)
	assert.Equal(t, []domain.AppointmentSlot{{SlotID: s.ID, Seats: 1}}, stored.Slots)

	// Удержание поглощено
	_, err = e.uc.Execute(ctx, req)
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)
}

func TestUseCase_CommitMultiSlot(t *testing.T) {
	e := newEnv(t, &domain.FormRules{MaxPeoplePerAppointment: 2, IsMultislotAppointment: true})
	h := e.hold(t, "s1", 2, at(10, 9), at(10, 10), at(10, 11))

	resp, err := e.uc.Execute(context.Background(), request(h, ""))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.NbBookedSeats)
	assert.Equal(t, at(10, 12), resp.EndingDateTime)
	assert.Len(t, resp.SlotIDs, 3)

	for _, start := range []time.Time{at(10, 9), at(10, 10), at(10, 11)} {
		s := e.slotAt(t, start)
		assert.Equal(t, 1, s.NbRemainingPlaces)
		assert.Equal(t, 1, s.NbPotentialRemainingPlaces)
	}
}

func TestUseCase_LeadTime(t *testing.T) {
	e := newEnv(t, &domain.FormRules{MinTimeBeforeAppointment: 24})
	h := e.hold(t, "s1", 1, at(4, 12))

	_, err := e.uc.Execute(context.Background(), request(h, ""))
	require.ErrorIs(t, err, domain.ErrLeadTime)
	assert.Equal(t, []string{domain.RuleLeadTime}, rulesOf(t, err))

	// Удержание сохраняется после нарушения правил
	_, err = e.manager.Get(context.Background(), h.Token)
	require.NoError(t, err)

	e.form.MinTimeBeforeAppointment = 2
	e.forms.SaveForm(e.form)
	_, err = e.uc.Execute(context.Background(), request(h, ""))
	assert.NoError(t, err)
}

func TestUseCase_Cooldown(t *testing.T) {
	tests := []struct {
		name    string
		day     int
		wantErr bool
	}{
		{name: "same day", day: 10, wantErr: true},
		{name: "four days later", day: 14, wantErr: true},
		{name: "five days later", day: 15, wantErr: false},
		{name: "four days earlier", day: 6, wantErr: true},
		{name: "five days earlier", day: 5, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, &domain.FormRules{NbDaysBeforeNewAppointment: 5})
			e.existing(t, "APT-EXISTING", "jeanne@example.org", at(10, 14))
			h := e.hold(t, "s1", 1, at(tt.day, 9))

			_, err := e.uc.Execute(context.Background(), request(h, "Jeanne@Example.org"))
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrCooldown)
				assert.Equal(t, []string{domain.RuleCooldown}, rulesOf(t, err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUseCase_CooldownIgnoresOtherIdentities(t *testing.T) {
	e := newEnv(t, &domain.FormRules{NbDaysBeforeNewAppointment: 5})
	e.existing(t, "APT-OTHER", "paul@example.org", at(10, 14))
	h := e.hold(t, "s1", 1, at(10, 9))

	_, err := e.uc.Execute(context.Background(), request(h, "jeanne@example.org"))
	assert.NoError(t, err)

	// Анонимная запись без email не проверяется
	h = e.hold(t, "s2", 1, at(11, 9))
	_, err = e.uc.Execute(context.Background(), request(h, ""))
	assert.NoError(t, err)
}

func TestUseCase_PeriodCap(t *testing.T) {
	form := &domain.FormRules{
		EnableMandatoryEmail:            true,
		NbMaxAppointmentsPerUser:        2,
		NbDaysForMaxAppointmentsPerUser: 5,
	}
	e := newEnv(t, form)
	e.existing(t, "APT-ONE", "jeanne@example.org", at(10, 9))
	e.existing(t, "APT-TWO", "jeanne@example.org", at(20, 9))

	// 15 марта: обе записи на границе окна [10, 20]
	h := e.hold(t, "s1", 1, at(15, 9))
	_, err := e.uc.Execute(context.Background(), request(h, "jeanne@example.org"))
	require.ErrorIs(t, err, domain.ErrPeriodCap)
	assert.Equal(t, []string{domain.RulePeriodCap}, rulesOf(t, err))

	// 16 марта: в окне [11, 21] только одна запись
	h = e.hold(t, "s1", 1, at(16, 9))
	_, err = e.uc.Execute(context.Background(), request(h, "jeanne@example.org"))
	assert.NoError(t, err)
}

func TestUseCase_AllRuleErrorsTogether(t *testing.T) {
	e := newEnv(t, &domain.FormRules{
		MinTimeBeforeAppointment:   24,
		NbDaysBeforeNewAppointment: 5,
		MaxPeoplePerAppointment:    3,
	})
	e.existing(t, "APT-EXISTING", "jeanne@example.org", at(5, 9))
	h := e.hold(t, "s1", 1, at(4, 15))

	req := request(h, "jeanne@example.org")
	req.NbBookedSeats = 2
	_, err := e.uc.Execute(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, []string{domain.RuleLeadTime, domain.RuleCooldown, domain.RuleBookedSeats}, rulesOf(t, err))
	assert.ErrorIs(t, err, domain.ErrLeadTime)
	assert.ErrorIs(t, err, domain.ErrCooldown)
	assert.ErrorIs(t, err, domain.ErrBookedSeats)
}

func TestUseCase_HoldErrors(t *testing.T) {
	e := newEnv(t, &domain.FormRules{EnableMandatoryEmail: true})
	ctx := context.Background()
	h := e.hold(t, "s1", 1, at(10, 9))

	_, err := e.uc.Execute(ctx, &Request{Token: string(h.Token), SessionID: "s1", FirstName: "Jeanne"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.uc.Execute(ctx, request(h, "not-an-email"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.uc.Execute(ctx, request(h, ""))
	assert.ErrorIs(t, err, ErrEmailRequired)

	intruder := request(h, "jeanne@example.org")
	intruder.SessionID = "s2"
	_, err = e.uc.Execute(ctx, intruder)
	assert.ErrorIs(t, err, domain.ErrHoldNotOwned)

	_, err = e.uc.Execute(ctx, &Request{Token: "unknown", SessionID: "s1", FirstName: "Jeanne", LastName: "Martin", Email: "j@example.org"})
	assert.ErrorIs(t, err, domain.ErrHoldNotFound)

	// Истекшее удержание возвращает места
	e.clock.Advance(11 * time.Minute)
	_, err = e.uc.Execute(ctx, request(h, "jeanne@example.org"))
	assert.ErrorIs(t, err, domain.ErrHoldExpired)
	assert.Equal(t, 3, e.slotAt(t, at(10, 9)).NbPotentialRemainingPlaces)
}

func TestUseCase_WriteFailureReleasesSeats(t *testing.T) {
	e := newEnv(t, &domain.FormRules{MaxPeoplePerAppointment: 2})
	e.uc.appointmentRepo = failingAppointments{e.appointments}
	h := e.hold(t, "s1", 2, at(10, 9))

	_, err := e.uc.Execute(context.Background(), request(h, ""))
	require.ErrorIs(t, err, ErrInternal)

	s := e.slotAt(t, at(10, 9))
	assert.Equal(t, 3, s.NbRemainingPlaces)
	assert.Equal(t, 3, s.NbPotentialRemainingPlaces)
	assert.Empty(t, e.notifier.committed)
}

func TestUseCase_NotifierFailureIsSwallowed(t *testing.T) {
	e := newEnv(t, &domain.FormRules{})
	e.notifier.err = errors.New("broker down")
	h := e.hold(t, "s1", 1, at(10, 9))

	resp, err := e.uc.Execute(context.Background(), request(h, ""))
	require.NoError(t, err)
	assert.Equal(t, 2, e.slotAt(t, at(10, 9)).NbRemainingPlaces)
	assert.NotEmpty(t, resp.Reference)
}

func TestUseCase_ConcurrentCommitsRespectCooldown(t *testing.T) {
	e := newEnv(t, &domain.FormRules{NbDaysBeforeNewAppointment: 5})
	first := e.hold(t, "tab-1", 1, at(10, 9))
	second := e.hold(t, "tab-2", 1, at(12, 9))

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, h := range []*domain.Hold{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = e.uc.Execute(context.Background(), request(h, "jeanne@example.org"))
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrCooldown)
	}
	assert.Equal(t, 1, succeeded)

	active, err := e.appointments.FindActiveByIdentity(context.Background(), 1, domain.Identity{Email: "jeanne@example.org"})
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestUseCase_IdentityRulesRecheckedInTransaction(t *testing.T) {
	e := newEnv(t, &domain.FormRules{NbDaysBeforeNewAppointment: 5})
	e.uc.appointmentRepo = &concurrentAppointments{
		AppointmentRepository: e.appointments,
		competing: &domain.Appointment{
			Reference:        "APT-OTHER-NODE",
			FormID:           1,
			Email:            "jeanne@example.org",
			NbBookedSeats:    1,
			StartingDateTime: at(11, 9),
			EndingDateTime:   at(11, 10),
		},
	}
	h := e.hold(t, "s1", 1, at(10, 9))

	_, err := e.uc.Execute(context.Background(), request(h, "jeanne@example.org"))
	require.ErrorIs(t, err, domain.ErrCooldown)
	assert.Equal(t, []string{domain.RuleCooldown}, rulesOf(t, err))

	s := e.slotAt(t, at(10, 9))
	assert.Equal(t, 3, s.NbRemainingPlaces)
	assert.Equal(t, 3, s.NbPotentialRemainingPlaces)
	assert.Empty(t, e.notifier.committed)
}
