package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Ledger contains all writes and reads against the appointment store. The
// store is append/update only: appointments are never deleted and status
// history rows are never modified after insert.
type Ledger interface {
	CreatePatient(ctx context.Context, p Patient) (*Patient, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// InsertAppointment persists the snapshot row together with its initial
	// nil -> scheduled history entry in one transaction.
	InsertAppointment(ctx context.Context, a *Appointment) error

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentByNumber(ctx context.Context, number string) (*Appointment, error)

	// UpdateAppointmentStatus reads the current status, applies the new one
	// and appends a history row, all in one transaction. A repeated
	// identical status is still applied and still logged.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, newStatus Status, actor, reason string) (*StatusTransition, error)

	ListStatusHistory(ctx context.Context, appointmentID uuid.UUID) ([]StatusChange, error)
	ListDoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error)

	// InsertInteraction records one chat turn for audit purposes.
	InsertInteraction(ctx context.Context, sessionID, userInput, aiResponse string) error
}
