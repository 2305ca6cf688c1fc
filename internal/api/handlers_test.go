package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthbot/clinic-scheduling/internal/booking"
	"github.com/healthbot/clinic-scheduling/internal/catalog"
)

// Fakes

type fakeCatalog struct {
	doctor  *catalog.Doctor
	clinic  *catalog.Clinic
	service *catalog.Service
	slots   []catalog.SlotDetail

	searchedWith string
}

func (f *fakeCatalog) ListClinics(ctx context.Context) ([]catalog.Clinic, error) {
	return []catalog.Clinic{*f.clinic}, nil
}

func (f *fakeCatalog) GetClinicByID(ctx context.Context, id uuid.UUID) (*catalog.Clinic, error) {
	if f.clinic.ID != id {
		return nil, catalog.ErrClinicNotFound
	}
	return f.clinic, nil
}

func (f *fakeCatalog) ListServices(ctx context.Context) ([]catalog.Service, error) {
	return []catalog.Service{*f.service}, nil
}

func (f *fakeCatalog) SearchServices(ctx context.Context, query string) ([]catalog.Service, error) {
	f.searchedWith = query
	return []catalog.Service{*f.service}, nil
}

func (f *fakeCatalog) GetServiceByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	if f.service.ID != id {
		return nil, catalog.ErrServiceNotFound
	}
	return f.service, nil
}

func (f *fakeCatalog) ListDoctors(ctx context.Context) ([]catalog.Doctor, error) {
	return []catalog.Doctor{*f.doctor}, nil
}

func (f *fakeCatalog) GetDoctorByID(ctx context.Context, id uuid.UUID) (*catalog.Doctor, error) {
	if f.doctor.ID != id {
		return nil, catalog.ErrDoctorNotFound
	}
	return f.doctor, nil
}

func (f *fakeCatalog) ListDoctorsForService(ctx context.Context, serviceID uuid.UUID) ([]catalog.Doctor, error) {
	return []catalog.Doctor{*f.doctor}, nil
}

func (f *fakeCatalog) DoctorOffersService(ctx context.Context, doctorID, serviceID uuid.UUID) (bool, error) {
	return true, nil
}

func (f *fakeCatalog) GetSlotByID(ctx context.Context, id uuid.UUID) (*catalog.Slot, error) {
	return nil, catalog.ErrSlotNotFound
}

func (f *fakeCatalog) ListAvailableSlots(ctx context.Context, filter catalog.SlotFilter) ([]catalog.SlotDetail, error) {
	return f.slots, nil
}

type fakeAllocator struct {
	taken map[uuid.UUID]bool
}

func (f *fakeAllocator) Reserve(ctx context.Context, slotID, doctorID uuid.UUID) (booking.SlotSnapshot, error) {
	if f.taken[slotID] {
		return booking.SlotSnapshot{}, fmt.Errorf("%w: slot no longer available", booking.ErrSlotUnavailable)
	}
	f.taken[slotID] = true
	return booking.SlotSnapshot{
		SlotID: slotID, DoctorID: doctorID, DayOfWeek: 1, StartTime: "10:00:00", EndTime: "10:30:00",
	}, nil
}

func (f *fakeAllocator) Release(ctx context.Context, slotID uuid.UUID) error {
	delete(f.taken, slotID)
	return nil
}

type fakeLedger struct {
	appointments map[uuid.UUID]*booking.Appointment
	history      map[uuid.UUID][]booking.StatusChange
}

func (f *fakeLedger) CreatePatient(ctx context.Context, p booking.Patient) (*booking.Patient, error) {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	return &p, nil
}

func (f *fakeLedger) GetPatientByID(ctx context.Context, id uuid.UUID) (*booking.Patient, error) {
	return nil, booking.ErrPatientNotFound
}

func (f *fakeLedger) InsertAppointment(ctx context.Context, a *booking.Appointment) error {
	stored := *a
	f.appointments[a.ID] = &stored
	f.history[a.ID] = []booking.StatusChange{{
		AppointmentID: a.ID, NewStatus: a.Status, ChangedBy: a.BookingSource,
		Reason: "initial booking", ChangedAt: a.CreatedAt,
	}}
	return nil
}

func (f *fakeLedger) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*booking.Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, booking.ErrAppointmentNotFound
	}
	return a, nil
}

func (f *fakeLedger) GetAppointmentByNumber(ctx context.Context, number string) (*booking.Appointment, error) {
	for _, a := range f.appointments {
		if a.Number == number {
			return a, nil
		}
	}
	return nil, booking.ErrAppointmentNotFound
}

func (f *fakeLedger) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, newStatus booking.Status, actor, reason string) (*booking.StatusTransition, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, booking.ErrAppointmentNotFound
	}
	old := a.Status
	a.Status = newStatus
	return &booking.StatusTransition{AppointmentID: id, SlotID: a.SlotID, OldStatus: old, NewStatus: newStatus}, nil
}

func (f *fakeLedger) ListStatusHistory(ctx context.Context, appointmentID uuid.UUID) ([]booking.StatusChange, error) {
	return f.history[appointmentID], nil
}

func (f *fakeLedger) ListDoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]booking.Appointment, error) {
	var result []booking.Appointment
	for _, a := range f.appointments {
		if a.DoctorID == doctorID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (f *fakeLedger) InsertInteraction(ctx context.Context, sessionID, userInput, aiResponse string) error {
	return nil
}

// Fixture

type apiFixture struct {
	server *httptest.Server
	cat    *fakeCatalog

	doctorID  uuid.UUID
	serviceID uuid.UUID
	slotID    uuid.UUID
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	clinicID := uuid.New()
	doctorID := uuid.New()
	serviceID := uuid.New()
	slotID := uuid.New()

	cat := &fakeCatalog{
		clinic: &catalog.Clinic{ID: clinicID, Name: "Wellness Hospital"},
		doctor: &catalog.Doctor{ID: doctorID, Name: "Dr. Priya Sharma", Specialty: "Cardiology", ClinicID: clinicID},
		service: &catalog.Service{
			ID: serviceID, Name: "Cardiology Consultation", DurationMinutes: 45, Price: 200.00, ClinicID: clinicID,
		},
		slots: []catalog.SlotDetail{{
			Slot: catalog.Slot{
				ID: slotID, DoctorID: doctorID, DayOfWeek: 1,
				StartTime: "10:00:00", EndTime: "10:30:00", IsAvailable: true, SlotType: "regular",
			},
			DoctorName: "Dr. Priya Sharma", Specialty: "Cardiology", ClinicName: "Wellness Hospital",
		}},
	}

	alloc := &fakeAllocator{taken: make(map[uuid.UUID]bool)}
	ledger := &fakeLedger{
		appointments: make(map[uuid.UUID]*booking.Appointment),
		history:      make(map[uuid.UUID][]booking.StatusChange),
	}

	svc := booking.NewService(cat, alloc, ledger, nil, time.Second)

	router := NewRouter(RouterConfig{
		Booking: svc,
		Catalog: cat,
		Env:     "test",
		Version: "test",
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &apiFixture{server: server, cat: cat, doctorID: doctorID, serviceID: serviceID, slotID: slotID}
}

func (fx *apiFixture) bookBody(slotID uuid.UUID) []byte {
	body, _ := json.Marshal(map[string]any{
		"patient_name":  "Ramesh Verma",
		"patient_phone": "+91-9000-000001",
		"doctor_id":     fx.doctorID.String(),
		"service_id":    fx.serviceID.String(),
		"slot_id":       slotID.String(),
		"date":          "2025-01-20",
		"complaint":     "chest discomfort",
		"urgency":       "urgent",
	})
	return body
}

func (fx *apiFixture) post(t *testing.T, path string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(fx.server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// Tests

func TestBookAppointment_Created(t *testing.T) {
	fx := newAPIFixture(t)

	resp := fx.post(t, "/appointments", fx.bookBody(fx.slotID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	appt := decode[AppointmentResponse](t, resp)
	assert.Regexp(t, `^APT-\d{14}-[0-9a-f]{6}$`, appt.Number)
	assert.Equal(t, "Dr. Priya Sharma", appt.DoctorName)
	assert.Equal(t, "10:00:00", appt.StartTime)
	assert.Equal(t, "10:45:00", appt.EndTime)
	assert.Equal(t, "scheduled", appt.Status)
}

func TestBookAppointment_SecondAttemptConflicts(t *testing.T) {
	fx := newAPIFixture(t)

	resp := fx.post(t, "/appointments", fx.bookBody(fx.slotID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = fx.post(t, "/appointments", fx.bookBody(fx.slotID))
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	errResp := decode[ErrorResponse](t, resp)
	assert.Equal(t, "slot_unavailable", errResp.Error)
}

func TestBookAppointment_ValidationError(t *testing.T) {
	fx := newAPIFixture(t)

	body, _ := json.Marshal(map[string]any{
		"patient_phone": "+91-9000-000001",
		"doctor_id":     fx.doctorID.String(),
		"service_id":    fx.serviceID.String(),
		"slot_id":       fx.slotID.String(),
		"date":          "2025-01-20",
	})

	resp := fx.post(t, "/appointments", body)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errResp := decode[ErrorResponse](t, resp)
	assert.Equal(t, "validation_failed", errResp.Error)
}

func TestBookAppointment_BadUUID(t *testing.T) {
	fx := newAPIFixture(t)

	body, _ := json.Marshal(map[string]any{
		"patient_name":  "X",
		"patient_phone": "1",
		"doctor_id":     "not-a-uuid",
		"service_id":    fx.serviceID.String(),
		"slot_id":       fx.slotID.String(),
		"date":          "2025-01-20",
	})

	resp := fx.post(t, "/appointments", body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBookAppointment_UnknownDoctor(t *testing.T) {
	fx := newAPIFixture(t)

	body, _ := json.Marshal(map[string]any{
		"patient_name":  "Ramesh Verma",
		"patient_phone": "+91-9000-000001",
		"doctor_id":     uuid.NewString(),
		"service_id":    fx.serviceID.String(),
		"slot_id":       fx.slotID.String(),
		"date":          "2025-01-20",
	})

	resp := fx.post(t, "/appointments", body)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	errResp := decode[ErrorResponse](t, resp)
	assert.Equal(t, "doctor_not_found", errResp.Error)
}

func TestGetAppointment_WithHistory(t *testing.T) {
	fx := newAPIFixture(t)

	resp := fx.post(t, "/appointments", fx.bookBody(fx.slotID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[AppointmentResponse](t, resp)

	resp, err := http.Get(fx.server.URL + "/appointments/" + created.ID.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	detail := decode[AppointmentResponse](t, resp)
	assert.Equal(t, created.Number, detail.Number)
	require.Len(t, detail.History, 1)
	assert.Nil(t, detail.History[0].OldStatus)
	assert.Equal(t, "scheduled", detail.History[0].NewStatus)
}

func TestGetAppointment_NotFound(t *testing.T) {
	fx := newAPIFixture(t)

	resp, err := http.Get(fx.server.URL + "/appointments/" + uuid.NewString())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateStatus_OK(t *testing.T) {
	fx := newAPIFixture(t)

	resp := fx.post(t, "/appointments", fx.bookBody(fx.slotID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[AppointmentResponse](t, resp)

	body, _ := json.Marshal(map[string]string{"status": "cancelled", "changed_by": "patient", "reason": "conflict"})
	resp = fx.post(t, "/appointments/"+created.ID.String()+"/status", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[UpdateStatusResponse](t, resp)
	assert.Equal(t, "scheduled", out.OldStatus)
	assert.Equal(t, "cancelled", out.NewStatus)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	fx := newAPIFixture(t)

	body, _ := json.Marshal(map[string]string{"status": "postponed"})
	resp := fx.post(t, "/appointments/"+uuid.NewString()+"/status", body)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListServices_QueryUsesSearch(t *testing.T) {
	fx := newAPIFixture(t)

	resp, err := http.Get(fx.server.URL + "/catalog/services?query=cardio")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cardio", fx.cat.searchedWith)
}

func TestListAvailability_ReturnsSlots(t *testing.T) {
	fx := newAPIFixture(t)

	resp, err := http.Get(fx.server.URL + "/catalog/availability?doctor_id=" + fx.doctorID.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	slots := decode[[]SlotResponse](t, resp)
	require.Len(t, slots, 1)
	assert.Equal(t, fx.slotID, slots[0].ID)
	assert.Equal(t, "Dr. Priya Sharma", slots[0].DoctorName)
}

func TestListAvailability_BadDayOfWeek(t *testing.T) {
	fx := newAPIFixture(t)

	resp, err := http.Get(fx.server.URL + "/catalog/availability?day_of_week=9")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreatePatient_Created(t *testing.T) {
	fx := newAPIFixture(t)

	body, _ := json.Marshal(map[string]any{"name": "Sita Devi", "phone": "+91-9000-000002", "age": 34})
	resp := fx.post(t, "/patients", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	p := decode[PatientResponse](t, resp)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "Sita Devi", p.Name)
}

func TestHealthLive(t *testing.T) {
	fx := newAPIFixture(t)

	resp, err := http.Get(fx.server.URL + "/health/live")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[LivenessResponse](t, resp)
	assert.Equal(t, "ok", out.Status)
}

func TestRequestIDHeaderSet(t *testing.T) {
	fx := newAPIFixture(t)

	resp, err := http.Get(fx.server.URL + "/health/live")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
