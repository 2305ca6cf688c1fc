package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrSlotUnavailable = errors.New("slot unavailable")

// DB is the subset of pgxpool.Pool used by this package. Declared as an
// interface so tests can substitute a pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Allocator mediates exclusive access to the catalog's bookable slots.
type Allocator interface {
	Reserve(ctx context.Context, slotID, doctorID uuid.UUID) (SlotSnapshot, error)
	Release(ctx context.Context, slotID uuid.UUID) error
}

// PgAllocator flips the availability flag on time_slots rows in the catalog
// store. The check-then-flip is one conditional UPDATE so that two
// concurrent reservations of the same slot can never both succeed.
type PgAllocator struct {
	db DB
}

func NewPgAllocator(db DB) *PgAllocator {
	return &PgAllocator{db: db}
}

func (a *PgAllocator) Reserve(ctx context.Context, slotID, doctorID uuid.UUID) (SlotSnapshot, error) {
	snap := SlotSnapshot{SlotID: slotID, DoctorID: doctorID}

	err := a.db.QueryRow(ctx, `
		UPDATE time_slots
		SET is_available = FALSE
		WHERE id = $1 AND doctor_id = $2 AND is_available = TRUE
		RETURNING day_of_week, start_time, end_time
	`, slotID, doctorID).Scan(&snap.DayOfWeek, &snap.StartTime, &snap.EndTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SlotSnapshot{}, a.reserveFailure(ctx, slotID, doctorID)
		}
		return SlotSnapshot{}, fmt.Errorf("reserve slot: %w", err)
	}

	return snap, nil
}

// reserveFailure distinguishes the reason strings surfaced to the caller.
// The reservation itself already failed; this read is informational only.
func (a *PgAllocator) reserveFailure(ctx context.Context, slotID, doctorID uuid.UUID) error {
	var owner uuid.UUID
	var available bool

	err := a.db.QueryRow(ctx, `
		SELECT doctor_id, is_available
		FROM time_slots
		WHERE id = $1
	`, slotID).Scan(&owner, &available)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: no such slot", ErrSlotUnavailable)
	case err != nil:
		return fmt.Errorf("%w: slot could not be reserved", ErrSlotUnavailable)
	case owner != doctorID:
		return fmt.Errorf("%w: slot belongs to a different doctor", ErrSlotUnavailable)
	case !available:
		return fmt.Errorf("%w: slot no longer available", ErrSlotUnavailable)
	default:
		return fmt.Errorf("%w: slot could not be reserved", ErrSlotUnavailable)
	}
}

// Release flips the flag back to available. Idempotent: releasing an
// already-available slot affects zero rows and is not an error.
func (a *PgAllocator) Release(ctx context.Context, slotID uuid.UUID) error {
	_, err := a.db.Exec(ctx, `
		UPDATE time_slots
		SET is_available = TRUE
		WHERE id = $1
	`, slotID)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}
