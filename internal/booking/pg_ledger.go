package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PgLedger struct {
	db DB
}

func NewPgLedger(db DB) *PgLedger {
	return &PgLedger{db: db}
}

const appointmentColumns = `
	id, appointment_number,
	patient_id, patient_name, patient_phone, patient_email, patient_age,
	patient_gender, patient_address, patient_medical_history, patient_emergency_contact,
	doctor_id, doctor_name, doctor_specialty, doctor_phone,
	clinic_id, clinic_name, clinic_address, clinic_phone, clinic_operating_hours,
	service_id, service_name, service_description, service_department,
	service_price, service_duration_minutes,
	appointment_date, appointment_time, appointment_end_time, slot_id,
	patient_complaint, symptoms_description, symptoms_duration, pain_level, urgency_level,
	ai_summary, ai_recommended_focus_areas, ai_preliminary_assessment, ai_suggested_questions,
	ai_summary_generated,
	status, booking_source, created_at, updated_at`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.Number,
		&a.PatientID,
		&a.PatientName,
		&a.PatientPhone,
		&a.PatientEmail,
		&a.PatientAge,
		&a.PatientGender,
		&a.PatientAddress,
		&a.PatientMedicalHistory,
		&a.PatientEmergencyContact,
		&a.DoctorID,
		&a.DoctorName,
		&a.DoctorSpecialty,
		&a.DoctorPhone,
		&a.ClinicID,
		&a.ClinicName,
		&a.ClinicAddress,
		&a.ClinicPhone,
		&a.ClinicOperatingHours,
		&a.ServiceID,
		&a.ServiceName,
		&a.ServiceDescription,
		&a.ServiceDepartment,
		&a.ServicePrice,
		&a.ServiceDurationMinutes,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.SlotID,
		&a.Complaint,
		&a.Symptoms,
		&a.SymptomsDuration,
		&a.PainLevel,
		&a.Urgency,
		&a.AISummary,
		&a.AIRecommendedFocusAreas,
		&a.AIPreliminaryAssessment,
		&a.AISuggestedQuestions,
		&a.AISummaryGenerated,
		&a.Status,
		&a.BookingSource,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Phone,
		&p.Email,
		&p.Age,
		&p.Gender,
		&p.Address,
		&p.MedicalHistory,
		&p.EmergencyContact,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

// Interface methods

func (l *PgLedger) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	row := l.db.QueryRow(ctx, `
		INSERT INTO patients (id, name, phone, email, age, gender, address, medical_history, emergency_contact, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		RETURNING id, name, phone, email, age, gender, address, medical_history, emergency_contact, created_at
	`, p.ID, p.Name, p.Phone, p.Email, p.Age, p.Gender, p.Address, p.MedicalHistory, p.EmergencyContact)

	return scanPatient(row)
}

func (l *PgLedger) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := l.db.QueryRow(ctx, `
		SELECT id, name, phone, email, age, gender, address, medical_history, emergency_contact, created_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (l *PgLedger) InsertAppointment(ctx context.Context, a *Appointment) error {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert appointment: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		        $21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
		        $31, $32, $33, $34, $35, $36, $37, $38, $39, $40,
		        $41, $42, $43, $44)
	`,
		a.ID, a.Number,
		a.PatientID, a.PatientName, a.PatientPhone, a.PatientEmail, a.PatientAge,
		a.PatientGender, a.PatientAddress, a.PatientMedicalHistory, a.PatientEmergencyContact,
		a.DoctorID, a.DoctorName, a.DoctorSpecialty, a.DoctorPhone,
		a.ClinicID, a.ClinicName, a.ClinicAddress, a.ClinicPhone, a.ClinicOperatingHours,
		a.ServiceID, a.ServiceName, a.ServiceDescription, a.ServiceDepartment,
		a.ServicePrice, a.ServiceDurationMinutes,
		a.Date, a.StartTime, a.EndTime, a.SlotID,
		a.Complaint, a.Symptoms, a.SymptomsDuration, a.PainLevel, a.Urgency,
		a.AISummary, a.AIRecommendedFocusAreas, a.AIPreliminaryAssessment, a.AISuggestedQuestions,
		a.AISummaryGenerated,
		a.Status, a.BookingSource, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	// Initial audit entry. OldStatus is NULL only here.
	_, err = tx.Exec(ctx, `
		INSERT INTO appointment_status_history (appointment_id, old_status, new_status, changed_by, reason, changed_at)
		VALUES ($1, NULL, $2, $3, $4, $5)
	`, a.ID, a.Status, a.BookingSource, "initial booking", a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert initial status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert appointment: %w", err)
	}

	return nil
}

func (l *PgLedger) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := l.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (l *PgLedger) GetAppointmentByNumber(ctx context.Context, number string) (*Appointment, error) {
	row := l.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE appointment_number = $1
	`, number)
	return scanAppointment(row)
}

func (l *PgLedger) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, newStatus Status, actor, reason string) (*StatusTransition, error) {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback(ctx)

	tr := StatusTransition{AppointmentID: id, NewStatus: newStatus}

	err = tx.QueryRow(ctx, `
		SELECT status, slot_id
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&tr.OldStatus, &tr.SlotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("load appointment status: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, newStatus)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO appointment_status_history (appointment_id, old_status, new_status, changed_by, reason, changed_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, id, tr.OldStatus, newStatus, actor, reason)
	if err != nil {
		return nil, fmt.Errorf("insert status history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}

	return &tr, nil
}

func (l *PgLedger) ListStatusHistory(ctx context.Context, appointmentID uuid.UUID) ([]StatusChange, error) {
	rows, err := l.db.Query(ctx, `
		SELECT id, appointment_id, old_status, new_status, changed_by, reason, changed_at
		FROM appointment_status_history
		WHERE appointment_id = $1
		ORDER BY changed_at, id
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatusChange
	for rows.Next() {
		var sc StatusChange
		err := rows.Scan(
			&sc.ID,
			&sc.AppointmentID,
			&sc.OldStatus,
			&sc.NewStatus,
			&sc.ChangedBy,
			&sc.Reason,
			&sc.ChangedAt,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, sc)
	}

	return result, rows.Err()
}

func (l *PgLedger) ListDoctorDay(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]Appointment, error) {
	rows, err := l.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2
		ORDER BY appointment_time
	`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (l *PgLedger) InsertInteraction(ctx context.Context, sessionID, userInput, aiResponse string) error {
	_, err := l.db.Exec(ctx, `
		INSERT INTO interaction_logs (session_id, user_input, ai_response, created_at)
		VALUES ($1, $2, $3, now())
	`, sessionID, userInput, aiResponse)
	if err != nil {
		return fmt.Errorf("insert interaction log: %w", err)
	}
	return nil
}
