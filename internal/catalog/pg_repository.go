package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool used by the repository. Declared as an
// interface so tests can substitute a pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

// Helpers

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Address,
		&c.City,
		&c.State,
		&c.Pincode,
		&c.Phone,
		&c.Email,
		&c.OperatingHours,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClinicNotFound
		}
		return nil, err
	}

	return &c, nil
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.DurationMinutes,
		&s.Price,
		&s.Department,
		&s.ClinicID,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	return &s, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var daysJSON string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Specialty,
		&d.Phone,
		&d.Email,
		&d.ClinicID,
		&daysJSON,
		&d.WorkingHoursStart,
		&d.WorkingHoursEnd,
		&d.WorkingHoursDisplay,
		&d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	if daysJSON != "" {
		if err := json.Unmarshal([]byte(daysJSON), &d.AvailableDays); err != nil {
			return nil, fmt.Errorf("decode available_days for doctor %s: %w", d.ID, err)
		}
	}

	return &d, nil
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot

	err := row.Scan(
		&s.ID,
		&s.DoctorID,
		&s.DayOfWeek,
		&s.StartTime,
		&s.EndTime,
		&s.IsAvailable,
		&s.SlotType,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &s, nil
}

const clinicColumns = `id, name, address, city, state, pincode, phone, email, operating_hours, created_at`
const serviceColumns = `id, name, description, duration_minutes, price, department, clinic_id, created_at`
const doctorColumns = `id, name, specialty, phone, email, clinic_id, available_days, working_hours_start, working_hours_end, working_hours_display, created_at`
const slotColumns = `id, doctor_id, day_of_week, start_time, end_time, is_available, slot_type, created_at`

// Interface methods

func (r *PgRepository) ListClinics(ctx context.Context) ([]Clinic, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+clinicColumns+`
		FROM clinics
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Clinic
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetClinicByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+clinicColumns+`
		FROM clinics
		WHERE id = $1
	`, id)
	return scanClinic(row)
}

func (r *PgRepository) ListServices(ctx context.Context) ([]Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		ORDER BY department, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectServices(rows)
}

// SearchServices matches a free-text query against service name, description
// and department. The pattern is a bind parameter, never interpolated.
func (r *PgRepository) SearchServices(ctx context.Context, query string) ([]Service, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE name ILIKE $1 OR description ILIKE $1 OR department ILIKE $1
		ORDER BY department, name
	`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectServices(rows)
}

func collectServices(rows pgx.Rows) ([]Service, error) {
	var result []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		ORDER BY specialty, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDoctors(rows)
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+doctorColumns+`
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctorsForService(ctx context.Context, serviceID uuid.UUID) ([]Doctor, error) {
	rows, err := r.db.Query(ctx, `
		SELECT d.id, d.name, d.specialty, d.phone, d.email, d.clinic_id, d.available_days,
		       d.working_hours_start, d.working_hours_end, d.working_hours_display, d.created_at
		FROM doctors d
		JOIN doctor_services ds ON ds.doctor_id = d.id
		WHERE ds.service_id = $1
		ORDER BY d.name
	`, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDoctors(rows)
}

func collectDoctors(rows pgx.Rows) ([]Doctor, error) {
	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	return result, rows.Err()
}

func (r *PgRepository) DoctorOffersService(ctx context.Context, doctorID, serviceID uuid.UUID) (bool, error) {
	var offers bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM doctor_services
			WHERE doctor_id = $1 AND service_id = $2
		)
	`, doctorID, serviceID).Scan(&offers)
	if err != nil {
		return false, fmt.Errorf("check doctor service: %w", err)
	}
	return offers, nil
}

func (r *PgRepository) GetSlotByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM time_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

// ListAvailableSlots returns open slots joined with doctor and clinic data.
// Optional filters are passed as nullable bind parameters so the statement
// stays static regardless of which filters the caller sets.
func (r *PgRepository) ListAvailableSlots(ctx context.Context, f SlotFilter) ([]SlotDetail, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ts.id, ts.doctor_id, ts.day_of_week, ts.start_time, ts.end_time,
		       ts.is_available, ts.slot_type, ts.created_at,
		       d.name, d.specialty, c.name
		FROM time_slots ts
		JOIN doctors d ON ts.doctor_id = d.id
		JOIN clinics c ON d.clinic_id = c.id
		WHERE ts.is_available = TRUE
		  AND ($1::uuid IS NULL OR ts.doctor_id = $1)
		  AND ($2::uuid IS NULL OR EXISTS (
			SELECT 1 FROM doctor_services ds
			WHERE ds.doctor_id = ts.doctor_id AND ds.service_id = $2
		  ))
		  AND ($3::int IS NULL OR ts.day_of_week = $3)
		ORDER BY ts.day_of_week, ts.start_time
	`, f.DoctorID, f.ServiceID, f.DayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SlotDetail
	for rows.Next() {
		var sd SlotDetail
		err := rows.Scan(
			&sd.ID,
			&sd.DoctorID,
			&sd.DayOfWeek,
			&sd.StartTime,
			&sd.EndTime,
			&sd.IsAvailable,
			&sd.SlotType,
			&sd.CreatedAt,
			&sd.DoctorName,
			&sd.Specialty,
			&sd.ClinicName,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, sd)
	}

	return result, rows.Err()
}
