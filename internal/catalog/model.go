package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Reference data for the clinic network. Rows are created by cmd/seed and
// treated as read-only by the booking flow; appointments copy what they need
// by value so later catalog edits never alter historical records.

type Clinic struct {
	ID             uuid.UUID
	Name           string
	Address        string
	City           string
	State          string
	Pincode        string
	Phone          string
	Email          string
	OperatingHours string
	CreatedAt      time.Time
}

type Service struct {
	ID              uuid.UUID
	Name            string
	Description     string
	DurationMinutes int
	Price           float64
	Department      string
	ClinicID        uuid.UUID
	CreatedAt       time.Time
}

type Doctor struct {
	ID                  uuid.UUID
	Name                string
	Specialty           string
	Phone               string
	Email               string
	ClinicID            uuid.UUID
	AvailableDays       []string // weekday names, e.g. "Monday"
	WorkingHoursStart   string   // "HH:MM:SS"
	WorkingHoursEnd     string   // "HH:MM:SS"
	WorkingHoursDisplay string   // e.g. "10:00 AM - 6:00 PM"
	CreatedAt           time.Time
}

// Slot is one fixed-width window in a doctor's recurring weekly grid.
// IsAvailable is the sole concurrency-control signal: true means bookable,
// false means reserved by an appointment until that appointment is cancelled.
type Slot struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	DayOfWeek   int    // 1=Monday .. 7=Sunday
	StartTime   string // "HH:MM:SS"
	EndTime     string // "HH:MM:SS"
	IsAvailable bool
	SlotType    string // regular, emergency, consultation
	CreatedAt   time.Time
}

// SlotDetail is a slot joined with the doctor and clinic it belongs to,
// used by the availability endpoints.
type SlotDetail struct {
	Slot
	DoctorName string
	Specialty  string
	ClinicName string
}

// SlotFilter narrows an availability listing. Nil fields are not applied.
type SlotFilter struct {
	DoctorID  *uuid.UUID
	ServiceID *uuid.UUID
	DayOfWeek *int
}
