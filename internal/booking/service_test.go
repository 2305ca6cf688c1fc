package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbot/clinic-scheduling/internal/catalog"
	"github.com/healthbot/clinic-scheduling/internal/summary"
)

// Fakes

type fakeCatalog struct {
	doctor  *catalog.Doctor
	clinic  *catalog.Clinic
	service *catalog.Service
	offers  bool
}

func (f *fakeCatalog) GetDoctorByID(ctx context.Context, id uuid.UUID) (*catalog.Doctor, error) {
	if f.doctor == nil || f.doctor.ID != id {
		return nil, catalog.ErrDoctorNotFound
	}
	return f.doctor, nil
}

func (f *fakeCatalog) GetClinicByID(ctx context.Context, id uuid.UUID) (*catalog.Clinic, error) {
	if f.clinic == nil || f.clinic.ID != id {
		return nil, catalog.ErrClinicNotFound
	}
	return f.clinic, nil
}

func (f *fakeCatalog) GetServiceByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	if f.service == nil || f.service.ID != id {
		return nil, catalog.ErrServiceNotFound
	}
	return f.service, nil
}

func (f *fakeCatalog) DoctorOffersService(ctx context.Context, doctorID, serviceID uuid.UUID) (bool, error) {
	return f.offers, nil
}

// fakeAllocator hands out each slot at most once, like the conditional
// UPDATE does, so it can back the concurrency test.
type fakeAllocator struct {
	mu       sync.Mutex
	taken    map[uuid.UUID]bool
	snap     SlotSnapshot
	reserves int
	releases []uuid.UUID
}

func newFakeAllocator(snap SlotSnapshot) *fakeAllocator {
	return &fakeAllocator{taken: make(map[uuid.UUID]bool), snap: snap}
}

func (f *fakeAllocator) Reserve(ctx context.Context, slotID, doctorID uuid.UUID) (SlotSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reserves++
	if f.taken[slotID] {
		return SlotSnapshot{}, fmt.Errorf("%w: slot no longer available", ErrSlotUnavailable)
	}
	f.taken[slotID] = true
	snap := f.snap
	snap.SlotID = slotID
	snap.DoctorID = doctorID
	return snap, nil
}

func (f *fakeAllocator) Release(ctx context.Context, slotID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.taken, slotID)
	f.releases = append(f.releases, slotID)
	return nil
}

type fakeLedger struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*Appointment
	history      map[uuid.UUID][]StatusChange
	patients     map[uuid.UUID]*Patient
	insertErr    error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		appointments: make(map[uuid.UUID]*Appointment),
		history:      make(map[uuid.UUID][]StatusChange),
		patients:     make(map[uuid.UUID]*Patient),
	}
}

func (f *fakeLedger) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	f.patients[p.ID] = &p
	return &p, nil
}

func (f *fakeLedger) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p, nil
}

func (f *fakeLedger) InsertAppointment(ctx context.Context, a *Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	stored := *a
	f.appointments[a.ID] = &stored
	f.history[a.ID] = append(f.history[a.ID], StatusChange{
		AppointmentID: a.ID,
		OldStatus:     nil,
		NewStatus:     a.Status,
		ChangedBy:     a.BookingSource,
		Reason:        "initial booking",
		ChangedAt:     a.CreatedAt,
	})
	return nil
}

func (f *fakeLedger) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

func (f *fakeLedger) GetAppointmentByNumber(ctx context.Context, number string) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appointments {
		if a.Number == number {
			return a, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (f *fakeLedger) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, newStatus Status, actor, reason string) (*StatusTransition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	old := a.Status
	a.Status = newStatus
	f.history[id] = append(f.history[id], StatusChange{
		AppointmentID: id,
		OldStatus:     &old,
		NewStatus:     newStatus,
		ChangedBy:     actor,
		Reason:        reason,
		ChangedAt:     time.Now(),
	})
	return &StatusTransition{AppointmentID: id, SlotID: a.SlotID, OldStatus: old, NewStatus: newStatus}, nil
}

func (f *fakeLedger) ListStatusHistory(ctx context.Context, appointmentID uuid.UUID) ([]StatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history[appointmentID], nil
}

func (f *fakeLedger) ListDoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []Appointment
	for _, a := range f.appointments {
		if a.DoctorID == doctorID && a.Date.Equal(date) {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (f *fakeLedger) InsertInteraction(ctx context.Context, sessionID, userInput, aiResponse string) error {
	return nil
}

type fakeGenerator struct {
	text        string
	err         error
	insights    summary.Insights
	insightsErr error
}

func (f *fakeGenerator) Generate(ctx context.Context, p summary.PatientPrompt) (string, error) {
	return f.text, f.err
}

func (f *fakeGenerator) GenerateInsights(ctx context.Context, p summary.PatientPrompt) (summary.Insights, error) {
	return f.insights, f.insightsErr
}

// Fixture

type fixture struct {
	svc    *Service
	cat    *fakeCatalog
	alloc  *fakeAllocator
	ledger *fakeLedger

	doctorID  uuid.UUID
	serviceID uuid.UUID
	clinicID  uuid.UUID
	slotID    uuid.UUID
}

func newFixture(t *testing.T, gen summary.Generator) *fixture {
	t.Helper()

	clinicID := uuid.New()
	doctorID := uuid.New()
	serviceID := uuid.New()
	slotID := uuid.New()

	cat := &fakeCatalog{
		doctor: &catalog.Doctor{
			ID:        doctorID,
			Name:      "Dr. Priya Sharma",
			Specialty: "Cardiology",
			Phone:     "+91-8765-432102",
			ClinicID:  clinicID,
		},
		clinic: &catalog.Clinic{
			ID:             clinicID,
			Name:           "Wellness Hospital",
			Address:        "Collectorate Road",
			Phone:          "+91-7654-321098",
			OperatingHours: "24 Hours",
		},
		service: &catalog.Service{
			ID:              serviceID,
			Name:            "Cardiology Consultation",
			Description:     "Heart health assessment",
			DurationMinutes: 45,
			Price:           200.00,
			Department:      "Cardiology",
			ClinicID:        clinicID,
		},
		offers: true,
	}

	alloc := newFakeAllocator(SlotSnapshot{DayOfWeek: 1, StartTime: "10:00:00", EndTime: "10:30:00"})
	ledger := newFakeLedger()

	svc := NewService(cat, alloc, ledger, gen, time.Second)
	svc.now = func() time.Time { return time.Date(2025, 1, 14, 10, 30, 0, 0, time.UTC) }

	return &fixture{
		svc: svc, cat: cat, alloc: alloc, ledger: ledger,
		doctorID: doctorID, serviceID: serviceID, clinicID: clinicID, slotID: slotID,
	}
}

func (fx *fixture) request() BookingRequest {
	return BookingRequest{
		PatientName:  "Ramesh Verma",
		PatientPhone: "+91-9000-000001",
		PatientAge:   52,
		DoctorID:     fx.doctorID,
		ServiceID:    fx.serviceID,
		SlotID:       fx.slotID,
		Date:         time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		Complaint:    "chest discomfort",
		Symptoms:     "tightness when climbing stairs",
		Urgency:      UrgencyUrgent,
	}
}

// Tests

func TestBookAppointment_Succeeds(t *testing.T) {
	fx := newFixture(t, &fakeGenerator{
		text:     "AI generated summary.",
		insights: summary.Insights{FocusAreas: "Cardiac workup", PreliminaryAssessment: "Possible angina.", SuggestedQuestions: "1. Any radiation of pain?"},
	})

	appt, err := fx.svc.BookAppointment(context.Background(), fx.request())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^APT-\d{14}-[0-9a-f]{6}$`), appt.Number)
	assert.Equal(t, "APT-20250114103000", appt.Number[:18])

	// Denormalized snapshot copied from the catalog at booking time.
	assert.Equal(t, "Dr. Priya Sharma", appt.DoctorName)
	assert.Equal(t, "Wellness Hospital", appt.ClinicName)
	assert.Equal(t, "Cardiology Consultation", appt.ServiceName)
	assert.Equal(t, 200.00, appt.ServicePrice)

	// End time follows the service duration, not the slot width.
	assert.Equal(t, "10:00:00", appt.StartTime)
	assert.Equal(t, "10:45:00", appt.EndTime)

	assert.Equal(t, StatusScheduled, appt.Status)
	assert.Equal(t, "AI generated summary.", appt.AISummary)
	assert.True(t, appt.AISummaryGenerated)
	assert.Equal(t, "Cardiac workup", appt.AIRecommendedFocusAreas)
	assert.Equal(t, "Possible angina.", appt.AIPreliminaryAssessment)
	assert.Equal(t, "1. Any radiation of pain?", appt.AISuggestedQuestions)

	history, err := fx.ledger.ListStatusHistory(context.Background(), appt.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].OldStatus)
	assert.Equal(t, StatusScheduled, history[0].NewStatus)
}

func TestBookAppointment_SummaryFailureFallsBack(t *testing.T) {
	fx := newFixture(t, &fakeGenerator{err: errors.New("provider down")})

	appt, err := fx.svc.BookAppointment(context.Background(), fx.request())
	require.NoError(t, err)

	assert.False(t, appt.AISummaryGenerated)
	assert.NotEmpty(t, appt.AISummary)
	assert.Contains(t, appt.AISummary, "Ramesh Verma")
	assert.Contains(t, appt.AISummary, "urgent")

	// Derived fields fall back alongside the summary.
	assert.Equal(t, summary.FallbackInsights().FocusAreas, appt.AIRecommendedFocusAreas)
	assert.NotEmpty(t, appt.AIPreliminaryAssessment)
	assert.NotEmpty(t, appt.AISuggestedQuestions)
}

func TestBookAppointment_InsightsFailureKeepsSummary(t *testing.T) {
	fx := newFixture(t, &fakeGenerator{text: "AI generated summary.", insightsErr: errors.New("quota exceeded")})

	appt, err := fx.svc.BookAppointment(context.Background(), fx.request())
	require.NoError(t, err)

	assert.True(t, appt.AISummaryGenerated)
	assert.Equal(t, "AI generated summary.", appt.AISummary)
	assert.Equal(t, summary.FallbackInsights(), summary.Insights{
		FocusAreas:            appt.AIRecommendedFocusAreas,
		PreliminaryAssessment: appt.AIPreliminaryAssessment,
		SuggestedQuestions:    appt.AISuggestedQuestions,
	})
}

func TestBookAppointment_NoGeneratorUsesFallback(t *testing.T) {
	fx := newFixture(t, nil)

	appt, err := fx.svc.BookAppointment(context.Background(), fx.request())
	require.NoError(t, err)

	assert.False(t, appt.AISummaryGenerated)
	assert.NotEmpty(t, appt.AISummary)
}

func TestBookAppointment_ValidationBeforeReservation(t *testing.T) {
	fx := newFixture(t, nil)

	req := fx.request()
	req.PatientName = ""

	_, err := fx.svc.BookAppointment(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Zero(t, fx.alloc.reserves, "invalid request must not touch the allocator")
}

func TestBookAppointment_PainLevelOutOfRange(t *testing.T) {
	fx := newFixture(t, nil)

	pain := 11
	req := fx.request()
	req.PainLevel = &pain

	_, err := fx.svc.BookAppointment(context.Background(), req)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestBookAppointment_ServiceNotOffered(t *testing.T) {
	fx := newFixture(t, nil)
	fx.cat.offers = false

	_, err := fx.svc.BookAppointment(context.Background(), fx.request())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrServiceNotOffered))
	assert.Zero(t, fx.alloc.reserves)
}

func TestBookAppointment_PersistenceFailureReleasesSlot(t *testing.T) {
	fx := newFixture(t, nil)
	fx.ledger.insertErr = errors.New("disk full")

	_, err := fx.svc.BookAppointment(context.Background(), fx.request())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPersistence))

	// Compensating release: the slot must be bookable again.
	require.Len(t, fx.alloc.releases, 1)
	assert.Equal(t, fx.slotID, fx.alloc.releases[0])
	assert.False(t, fx.alloc.taken[fx.slotID])
}

func TestBookAppointment_ConcurrentAttemptsOneWinner(t *testing.T) {
	fx := newFixture(t, nil)

	const attempts = 50
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.BookAppointment(context.Background(), fx.request())
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.True(t, errors.Is(err, ErrSlotUnavailable))
		}
	}
	assert.Equal(t, 1, successes, "exactly one booking may win the slot")
}

func TestUpdateStatus_CancelReleasesSlot(t *testing.T) {
	fx := newFixture(t, nil)

	appt, err := fx.svc.BookAppointment(context.Background(), fx.request())
	require.NoError(t, err)
	require.True(t, fx.alloc.taken[fx.slotID])

	tr, err := fx.svc.UpdateStatus(context.Background(), appt.ID, StatusCancelled, "patient", "feeling better")
	require.NoError(t, err)

	assert.Equal(t, StatusScheduled, tr.OldStatus)
	assert.Equal(t, StatusCancelled, tr.NewStatus)
	assert.False(t, fx.alloc.taken[fx.slotID], "cancellation must free the slot")
}

func TestUpdateStatus_RepeatedCancelDoesNotReleaseAgain(t *testing.T) {
	fx := newFixture(t, nil)

	first, err := fx.svc.BookAppointment(context.Background(), fx.request())
	require.NoError(t, err)
	_, err = fx.svc.UpdateStatus(context.Background(), first.ID, StatusCancelled, "patient", "")
	require.NoError(t, err)

	// The freed slot goes to another booking.
	second, err := fx.svc.BookAppointment(context.Background(), fx.request())
	require.NoError(t, err)
	require.True(t, fx.alloc.taken[fx.slotID])

	// Cancelling the first appointment again is audited but must not free
	// the new holder's slot.
	_, err = fx.svc.UpdateStatus(context.Background(), first.ID, StatusCancelled, "patient", "duplicate tap")
	require.NoError(t, err)

	assert.True(t, fx.alloc.taken[fx.slotID], "slot still belongs to the second booking")
	assert.Len(t, fx.alloc.releases, 1)

	history, err := fx.ledger.ListStatusHistory(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)

	_, err = fx.svc.GetAppointment(context.Background(), second.ID)
	require.NoError(t, err)
}

func TestUpdateStatus_RepeatedStatusStillLogged(t *testing.T) {
	fx := newFixture(t, nil)

	appt, err := fx.svc.BookAppointment(context.Background(), fx.request())
	require.NoError(t, err)

	_, err = fx.svc.UpdateStatus(context.Background(), appt.ID, StatusCompleted, "doctor", "")
	require.NoError(t, err)
	_, err = fx.svc.UpdateStatus(context.Background(), appt.ID, StatusCompleted, "admin", "double entry")
	require.NoError(t, err)

	history, err := fx.ledger.ListStatusHistory(context.Background(), appt.ID)
	require.NoError(t, err)
	// initial booking + two explicit updates, the identical repeat included
	require.Len(t, history, 3)
	assert.Equal(t, StatusCompleted, history[1].NewStatus)
	assert.Equal(t, StatusCompleted, history[2].NewStatus)
	assert.Equal(t, StatusCompleted, *history[2].OldStatus)
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	fx := newFixture(t, nil)

	_, err := fx.svc.UpdateStatus(context.Background(), uuid.New(), Status("postponed"), "", "")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestGetAppointment_IncludesHistory(t *testing.T) {
	fx := newFixture(t, nil)

	appt, err := fx.svc.BookAppointment(context.Background(), fx.request())
	require.NoError(t, err)

	detail, err := fx.svc.GetAppointment(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt.Number, detail.Number)
	require.Len(t, detail.History, 1)

	byNumber, err := fx.svc.GetAppointmentByNumber(context.Background(), appt.Number)
	require.NoError(t, err)
	assert.Equal(t, appt.ID, byNumber.ID)
}

func TestDoctorDaySummary_CountsUrgent(t *testing.T) {
	fx := newFixture(t, nil)

	_, err := fx.svc.BookAppointment(context.Background(), fx.request())
	require.NoError(t, err)

	// Second booking on another slot, routine urgency.
	req := fx.request()
	req.SlotID = uuid.New()
	req.Urgency = UrgencyRoutine
	_, err = fx.svc.BookAppointment(context.Background(), req)
	require.NoError(t, err)

	ds, err := fx.svc.DoctorDaySummary(context.Background(), fx.doctorID, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, ds.Appointments, 2)
	assert.Equal(t, 1, ds.UrgentCount)
}

func TestNewAppointmentNumber_Format(t *testing.T) {
	at := time.Date(2025, 3, 2, 9, 5, 7, 0, time.UTC)
	n := NewAppointmentNumber(at)
	assert.Regexp(t, regexp.MustCompile(`^APT-20250302090507-[0-9a-f]{6}$`), n)

	// Suffix randomness keeps same-second numbers distinct.
	assert.NotEqual(t, n, NewAppointmentNumber(at))
}
