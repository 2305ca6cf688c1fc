package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrClinicNotFound  = errors.New("clinic not found")
	ErrServiceNotFound = errors.New("service not found")
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrSlotNotFound    = errors.New("slot not found")
)

// Repository contains all catalog reads needed by the booking flow, the
// assistant and the HTTP API. Every query is statically defined and
// parameterized; filter clauses are never assembled from strings.
type Repository interface {
	ListClinics(ctx context.Context) ([]Clinic, error)
	GetClinicByID(ctx context.Context, id uuid.UUID) (*Clinic, error)

	ListServices(ctx context.Context) ([]Service, error)
	SearchServices(ctx context.Context, query string) ([]Service, error)
	GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error)

	ListDoctors(ctx context.Context) ([]Doctor, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	ListDoctorsForService(ctx context.Context, serviceID uuid.UUID) ([]Doctor, error)
	DoctorOffersService(ctx context.Context, doctorID, serviceID uuid.UUID) (bool, error)

	GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error)
	ListAvailableSlots(ctx context.Context, f SlotFilter) ([]SlotDetail, error)
}
