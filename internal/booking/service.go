package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthbot/clinic-scheduling/internal/catalog"
	"github.com/healthbot/clinic-scheduling/internal/summary"
)

const clockLayout = "15:04:05"

var (
	ErrValidation        = errors.New("invalid booking request")
	ErrServiceNotOffered = errors.New("doctor does not offer this service")
	ErrPersistence       = errors.New("booking could not be persisted")
)

// Catalog is the subset of catalog reads the booking flow needs. Lookups
// are always fresh at call time, never cached.
type Catalog interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*catalog.Doctor, error)
	GetClinicByID(ctx context.Context, id uuid.UUID) (*catalog.Clinic, error)
	GetServiceByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
	DoctorOffersService(ctx context.Context, doctorID, serviceID uuid.UUID) (bool, error)
}

// BookingRequest is the structured input of one booking attempt. Patient
// data arrives inline so walk-in chat sessions can book without a prior
// patient record; PatientID links one when it exists.
type BookingRequest struct {
	PatientID               *uuid.UUID
	PatientName             string
	PatientPhone            string
	PatientEmail            string
	PatientAge              int
	PatientGender           string
	PatientAddress          string
	PatientMedicalHistory   string
	PatientEmergencyContact string

	DoctorID  uuid.UUID
	ServiceID uuid.UUID
	SlotID    uuid.UUID
	Date      time.Time

	Complaint        string
	Symptoms         string
	SymptomsDuration string
	PainLevel        *int
	Urgency          Urgency

	// Recent conversation excerpt passed to the summary generator.
	Conversation []string
}

func (r *BookingRequest) validate() error {
	if strings.TrimSpace(r.PatientName) == "" {
		return fmt.Errorf("%w: patient name is required", ErrValidation)
	}
	if strings.TrimSpace(r.PatientPhone) == "" {
		return fmt.Errorf("%w: patient phone is required", ErrValidation)
	}
	if r.DoctorID == uuid.Nil {
		return fmt.Errorf("%w: doctor_id is required", ErrValidation)
	}
	if r.ServiceID == uuid.Nil {
		return fmt.Errorf("%w: service_id is required", ErrValidation)
	}
	if r.SlotID == uuid.Nil {
		return fmt.Errorf("%w: slot_id is required", ErrValidation)
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: appointment date is required", ErrValidation)
	}
	if r.Urgency == "" {
		r.Urgency = UrgencyNormal
	}
	if !r.Urgency.Valid() {
		return fmt.Errorf("%w: unknown urgency level %q", ErrValidation, r.Urgency)
	}
	if r.PainLevel != nil && (*r.PainLevel < 0 || *r.PainLevel > 10) {
		return fmt.Errorf("%w: pain level must be between 0 and 10", ErrValidation)
	}
	return nil
}

// Service implements the booking and appointment lifecycle workflow.
type Service struct {
	catalog        Catalog
	allocator      Allocator
	ledger         Ledger
	summaries      summary.Generator // nil disables AI summaries
	summaryTimeout time.Duration
	now            func() time.Time
}

func NewService(cat Catalog, alloc Allocator, ledger Ledger, summaries summary.Generator, summaryTimeout time.Duration) *Service {
	if summaryTimeout <= 0 {
		summaryTimeout = 15 * time.Second
	}
	return &Service{
		catalog:        cat,
		allocator:      alloc,
		ledger:         ledger,
		summaries:      summaries,
		summaryTimeout: summaryTimeout,
		now:            time.Now,
	}
}

// BookAppointment runs the full booking workflow: validate the request,
// resolve catalog entities fresh, reserve the slot, generate (or fall back
// on) the AI summary, and persist the denormalized snapshot with its
// initial status history entry. If persistence fails after the slot was
// reserved, the reservation is released so the slot is not stranded.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	// Input validation happens before any reservation so a request that
	// cannot complete never consumes a slot.
	if err := req.validate(); err != nil {
		return nil, err
	}

	doctor, err := s.catalog.GetDoctorByID(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	svc, err := s.catalog.GetServiceByID(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	clinic, err := s.catalog.GetClinicByID(ctx, doctor.ClinicID)
	if err != nil {
		return nil, err
	}

	offers, err := s.catalog.DoctorOffersService(ctx, req.DoctorID, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if !offers {
		return nil, ErrServiceNotOffered
	}

	snap, err := s.allocator.Reserve(ctx, req.SlotID, req.DoctorID)
	if err != nil {
		return nil, err
	}

	endTime, err := addMinutes(snap.StartTime, svc.DurationMinutes)
	if err != nil {
		s.releaseQuietly(ctx, req.SlotID)
		return nil, fmt.Errorf("compute appointment end time: %w", err)
	}

	now := s.now()
	prompt := summary.PatientPrompt{
		PatientName:      req.PatientName,
		PatientAge:       req.PatientAge,
		PatientGender:    req.PatientGender,
		PatientPhone:     req.PatientPhone,
		ServiceName:      svc.Name,
		DoctorName:       doctor.Name,
		DoctorSpecialty:  doctor.Specialty,
		Complaint:        req.Complaint,
		Symptoms:         req.Symptoms,
		SymptomsDuration: req.SymptomsDuration,
		PainLevel:        req.PainLevel,
		Urgency:          string(req.Urgency),
		MedicalHistory:   req.PatientMedicalHistory,
		Conversation:     req.Conversation,
	}
	summaryText, insights, generated := s.generateSummary(ctx, prompt)

	appt := &Appointment{
		ID:     uuid.New(),
		Number: NewAppointmentNumber(now),

		PatientID:               req.PatientID,
		PatientName:             req.PatientName,
		PatientPhone:            req.PatientPhone,
		PatientEmail:            req.PatientEmail,
		PatientAge:              req.PatientAge,
		PatientGender:           req.PatientGender,
		PatientAddress:          req.PatientAddress,
		PatientMedicalHistory:   req.PatientMedicalHistory,
		PatientEmergencyContact: req.PatientEmergencyContact,

		DoctorID:        doctor.ID,
		DoctorName:      doctor.Name,
		DoctorSpecialty: doctor.Specialty,
		DoctorPhone:     doctor.Phone,

		ClinicID:             clinic.ID,
		ClinicName:           clinic.Name,
		ClinicAddress:        clinic.Address,
		ClinicPhone:          clinic.Phone,
		ClinicOperatingHours: clinic.OperatingHours,

		ServiceID:              svc.ID,
		ServiceName:            svc.Name,
		ServiceDescription:     svc.Description,
		ServiceDepartment:      svc.Department,
		ServicePrice:           svc.Price,
		ServiceDurationMinutes: svc.DurationMinutes,

		Date:      req.Date,
		StartTime: snap.StartTime,
		EndTime:   endTime,
		SlotID:    snap.SlotID,

		Complaint:        req.Complaint,
		Symptoms:         req.Symptoms,
		SymptomsDuration: req.SymptomsDuration,
		PainLevel:        req.PainLevel,
		Urgency:          req.Urgency,

		AISummary:               summaryText,
		AIRecommendedFocusAreas: insights.FocusAreas,
		AIPreliminaryAssessment: insights.PreliminaryAssessment,
		AISuggestedQuestions:    insights.SuggestedQuestions,
		AISummaryGenerated:      generated,

		Status:        StatusScheduled,
		BookingSource: "ai_assistant",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.ledger.InsertAppointment(ctx, appt); err != nil {
		// Compensating action: without it the slot would be stranded as
		// permanently unavailable with no appointment referencing it.
		s.releaseQuietly(ctx, req.SlotID)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return appt, nil
}

// generateSummary returns the AI summary and derived insights, or their
// deterministic fallbacks. Summary failures are tolerated: a booking must
// succeed even when the provider is down.
func (s *Service) generateSummary(ctx context.Context, p summary.PatientPrompt) (string, summary.Insights, bool) {
	if s.summaries == nil {
		return summary.Fallback(p), summary.FallbackInsights(), false
	}

	sumCtx, cancel := context.WithTimeout(ctx, s.summaryTimeout)
	defer cancel()

	text, err := s.summaries.Generate(sumCtx, p)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			log.Printf("ai summary generation failed, using fallback: %v", err)
		}
		return summary.Fallback(p), summary.FallbackInsights(), false
	}

	insights, err := s.summaries.GenerateInsights(sumCtx, p)
	if err != nil {
		log.Printf("ai insights generation failed, using fallback: %v", err)
		insights = summary.FallbackInsights()
	}
	return text, insights, true
}

func (s *Service) releaseQuietly(ctx context.Context, slotID uuid.UUID) {
	if err := s.allocator.Release(ctx, slotID); err != nil {
		log.Printf("compensating release failed for slot %s: %v", slotID, err)
	}
}

// UpdateStatus applies a status change and appends the audit entry. Any
// status may move to any other, and repeating the current status is
// permitted and still logged, so the trail records every request.
// Cancellation releases the reserved slot back to the catalog, but only on
// the first cancel: once released the slot may belong to another booking,
// and a repeat cancel must not free it out from under the new holder.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus Status, actor, reason string) (*StatusTransition, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}
	if strings.TrimSpace(actor) == "" {
		actor = "system"
	}

	tr, err := s.ledger.UpdateAppointmentStatus(ctx, id, newStatus, actor, reason)
	if err != nil {
		return nil, err
	}

	if newStatus == StatusCancelled && tr.OldStatus != StatusCancelled {
		if err := s.allocator.Release(ctx, tr.SlotID); err != nil {
			return tr, fmt.Errorf("release slot after cancellation: %w", err)
		}
	}

	return tr, nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := s.ledger.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withHistory(ctx, appt)
}

func (s *Service) GetAppointmentByNumber(ctx context.Context, number string) (*AppointmentDetail, error) {
	appt, err := s.ledger.GetAppointmentByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.withHistory(ctx, appt)
}

func (s *Service) withHistory(ctx context.Context, appt *Appointment) (*AppointmentDetail, error) {
	history, err := s.ledger.ListStatusHistory(ctx, appt.ID)
	if err != nil {
		return nil, fmt.Errorf("load status history: %w", err)
	}
	return &AppointmentDetail{Appointment: *appt, History: history}, nil
}

// DoctorDaySummary lists a doctor's appointments for one date with a count
// of urgency-flagged cases.
func (s *Service) DoctorDaySummary(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DaySummary, error) {
	if _, err := s.catalog.GetDoctorByID(ctx, doctorID); err != nil {
		return nil, err
	}

	appointments, err := s.ledger.ListDoctorDay(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("list doctor day: %w", err)
	}

	ds := &DaySummary{
		DoctorID:     doctorID,
		Date:         date,
		Appointments: appointments,
	}
	for _, a := range appointments {
		if a.Urgency.Flagged() {
			ds.UrgentCount++
		}
	}
	return ds, nil
}

func (s *Service) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: patient name is required", ErrValidation)
	}
	if strings.TrimSpace(p.Phone) == "" {
		return nil, fmt.Errorf("%w: patient phone is required", ErrValidation)
	}
	return s.ledger.CreatePatient(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.ledger.GetPatientByID(ctx, id)
}

// addMinutes adds a service duration to a clock time. The appointment end
// time follows the service, not the slot width, so a 45 minute service in a
// 30 minute slot ends 45 minutes after the slot start.
func addMinutes(clock string, minutes int) (string, error) {
	t, err := time.Parse(clockLayout, clock)
	if err != nil {
		return "", fmt.Errorf("parse clock time %q: %w", clock, err)
	}
	return t.Add(time.Duration(minutes) * time.Minute).Format(clockLayout), nil
}
