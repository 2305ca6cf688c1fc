package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyRoutine   Urgency = "routine"
	UrgencyNormal    Urgency = "normal"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyRoutine, UrgencyNormal, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}

// Flagged reports whether the urgency level should be surfaced prominently
// to clinic staff. No automatic escalation happens beyond the flag.
func (u Urgency) Flagged() bool {
	return u == UrgencyUrgent || u == UrgencyEmergency
}

// SlotSnapshot is the immutable view of a catalog slot captured at the
// instant it was reserved.
type SlotSnapshot struct {
	SlotID    uuid.UUID
	DoctorID  uuid.UUID
	DayOfWeek int
	StartTime string // "HH:MM:SS"
	EndTime   string // "HH:MM:SS"
}

type Patient struct {
	ID               uuid.UUID
	Name             string
	Phone            string
	Email            string
	Age              int
	Gender           string
	Address          string
	MedicalHistory   string
	EmergencyContact string
	CreatedAt        time.Time
}

// Appointment is one ledger record per successful booking. Every doctor,
// clinic and service attribute is copied by value at booking time so later
// catalog edits never retroactively alter the record. Rows are never
// deleted; cancellation is a status change.
type Appointment struct {
	ID     uuid.UUID
	Number string

	PatientID               *uuid.UUID
	PatientName             string
	PatientPhone            string
	PatientEmail            string
	PatientAge              int
	PatientGender           string
	PatientAddress          string
	PatientMedicalHistory   string
	PatientEmergencyContact string

	DoctorID        uuid.UUID
	DoctorName      string
	DoctorSpecialty string
	DoctorPhone     string

	ClinicID             uuid.UUID
	ClinicName           string
	ClinicAddress        string
	ClinicPhone          string
	ClinicOperatingHours string

	ServiceID              uuid.UUID
	ServiceName            string
	ServiceDescription     string
	ServiceDepartment      string
	ServicePrice           float64
	ServiceDurationMinutes int

	Date      time.Time
	StartTime string // "HH:MM:SS", the reserved slot's start
	EndTime   string // start + service duration, may differ from slot width
	SlotID    uuid.UUID

	Complaint        string
	Symptoms         string
	SymptomsDuration string
	PainLevel        *int
	Urgency          Urgency

	AISummary               string
	AIRecommendedFocusAreas string
	AIPreliminaryAssessment string
	AISuggestedQuestions    string
	AISummaryGenerated      bool

	Status        Status
	BookingSource string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StatusChange is one append-only audit row. OldStatus is nil for the
// initial entry written at booking time.
type StatusChange struct {
	ID            int64
	AppointmentID uuid.UUID
	OldStatus     *Status
	NewStatus     Status
	ChangedBy     string
	Reason        string
	ChangedAt     time.Time
}

// StatusTransition is the outcome of one UpdateStatus call.
type StatusTransition struct {
	AppointmentID uuid.UUID
	SlotID        uuid.UUID
	OldStatus     Status
	NewStatus     Status
}

// AppointmentDetail is an appointment with its full audit trail.
type AppointmentDetail struct {
	Appointment
	History []StatusChange
}

// DaySummary is one doctor's schedule for a single date, for clinician
// review before the day starts.
type DaySummary struct {
	DoctorID     uuid.UUID
	Date         time.Time
	Appointments []Appointment
	UrgentCount  int
}
