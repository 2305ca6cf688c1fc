package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthbot/clinic-scheduling/internal/catalog"
	"github.com/healthbot/clinic-scheduling/internal/config"
	"github.com/healthbot/clinic-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	catalogPool, err := db.ConnectPostgres(ctx, cfg.CatalogDSN)
	if err != nil {
		log.Fatalf("connect catalog postgres: %v", err)
	}
	defer catalogPool.Close()

	ledgerPool, err := db.ConnectPostgres(ctx, cfg.LedgerDSN)
	if err != nil {
		log.Fatalf("connect ledger postgres: %v", err)
	}
	defer ledgerPool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := createCatalogSchema(context.Background(), catalogPool); err != nil {
		log.Fatalf("create catalog schema: %v", err)
	}
	if err := createLedgerSchema(context.Background(), ledgerPool); err != nil {
		log.Fatalf("create ledger schema: %v", err)
	}

	if err := seedCatalog(context.Background(), catalogPool); err != nil {
		log.Fatalf("seed catalog: %v", err)
	}
	if err := seedPatients(context.Background(), ledgerPool, 200); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func createCatalogSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS clinics (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			pincode TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			operating_hours TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS services (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			duration_minutes INT NOT NULL DEFAULT 30,
			price NUMERIC(10,2) NOT NULL DEFAULT 0,
			department TEXT NOT NULL DEFAULT '',
			clinic_id UUID NOT NULL REFERENCES clinics(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS doctors (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			specialty TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			clinic_id UUID NOT NULL REFERENCES clinics(id),
			available_days TEXT NOT NULL DEFAULT '[]',
			working_hours_start TEXT NOT NULL,
			working_hours_end TEXT NOT NULL,
			working_hours_display TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS doctor_services (
			doctor_id UUID NOT NULL REFERENCES doctors(id),
			service_id UUID NOT NULL REFERENCES services(id),
			PRIMARY KEY (doctor_id, service_id)
		)`,
		`CREATE TABLE IF NOT EXISTS time_slots (
			id UUID PRIMARY KEY,
			doctor_id UUID NOT NULL REFERENCES doctors(id),
			day_of_week INT NOT NULL CHECK (day_of_week BETWEEN 1 AND 7),
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			slot_type TEXT NOT NULL DEFAULT 'regular',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_time_slots_doctor_day
			ON time_slots (doctor_id, day_of_week) WHERE is_available`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func createLedgerSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS patients (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			age INT NOT NULL DEFAULT 0,
			gender TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			medical_history TEXT NOT NULL DEFAULT '',
			emergency_contact TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			id UUID PRIMARY KEY,
			appointment_number TEXT NOT NULL UNIQUE,
			patient_id UUID,
			patient_name TEXT NOT NULL,
			patient_phone TEXT NOT NULL,
			patient_email TEXT NOT NULL DEFAULT '',
			patient_age INT NOT NULL DEFAULT 0,
			patient_gender TEXT NOT NULL DEFAULT '',
			patient_address TEXT NOT NULL DEFAULT '',
			patient_medical_history TEXT NOT NULL DEFAULT '',
			patient_emergency_contact TEXT NOT NULL DEFAULT '',
			doctor_id UUID NOT NULL,
			doctor_name TEXT NOT NULL,
			doctor_specialty TEXT NOT NULL DEFAULT '',
			doctor_phone TEXT NOT NULL DEFAULT '',
			clinic_id UUID NOT NULL,
			clinic_name TEXT NOT NULL,
			clinic_address TEXT NOT NULL DEFAULT '',
			clinic_phone TEXT NOT NULL DEFAULT '',
			clinic_operating_hours TEXT NOT NULL DEFAULT '',
			service_id UUID NOT NULL,
			service_name TEXT NOT NULL,
			service_description TEXT NOT NULL DEFAULT '',
			service_department TEXT NOT NULL DEFAULT '',
			service_price NUMERIC(10,2) NOT NULL DEFAULT 0,
			service_duration_minutes INT NOT NULL DEFAULT 30,
			appointment_date DATE NOT NULL,
			appointment_time TEXT NOT NULL,
			appointment_end_time TEXT NOT NULL,
			slot_id UUID NOT NULL,
			patient_complaint TEXT NOT NULL DEFAULT '',
			symptoms_description TEXT NOT NULL DEFAULT '',
			symptoms_duration TEXT NOT NULL DEFAULT '',
			pain_level INT,
			urgency_level TEXT NOT NULL DEFAULT 'normal',
			ai_summary TEXT NOT NULL DEFAULT '',
			ai_recommended_focus_areas TEXT NOT NULL DEFAULT '',
			ai_preliminary_assessment TEXT NOT NULL DEFAULT '',
			ai_suggested_questions TEXT NOT NULL DEFAULT '',
			ai_summary_generated BOOLEAN NOT NULL DEFAULT FALSE,
			status TEXT NOT NULL DEFAULT 'scheduled',
			booking_source TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_doctor_date
			ON appointments (doctor_id, appointment_date)`,
		`CREATE TABLE IF NOT EXISTS appointment_status_history (
			id BIGSERIAL PRIMARY KEY,
			appointment_id UUID NOT NULL REFERENCES appointments(id),
			old_status TEXT,
			new_status TEXT NOT NULL,
			changed_by TEXT NOT NULL DEFAULT 'system',
			reason TEXT NOT NULL DEFAULT '',
			changed_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_status_history_appointment
			ON appointment_status_history (appointment_id, changed_at)`,
		`CREATE TABLE IF NOT EXISTS interaction_logs (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			user_input TEXT NOT NULL,
			ai_response TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

type clinicSeed struct {
	name, address, city, state, pincode, phone, email, hours string
}

type serviceSeed struct {
	name, description string
	duration          int
	price             float64
	department        string
	clinic            int // index into clinics
}

type doctorSeed struct {
	name, specialty, phone, email string
	clinic                        int // index into clinics
	days                          []string
	start, end, display           string
	services                      []int // indexes into services
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) error {
	clinics := []clinicSeed{
		{"HealthCare Plus Clinic", "Main Road, Beside SBI Bank", "Karimnagar", "Telangana", "505001", "+91-8765-432109", "info@healthcareplus.in", "9:00 AM - 8:00 PM"},
		{"City Medical Center", "Gandhi Chowk, Near Bus Stand", "Karimnagar", "Telangana", "505001", "+91-9876-543210", "contact@citymedical.in", "8:00 AM - 9:00 PM"},
		{"Wellness Hospital", "Collectorate Road, Opp. District Court", "Karimnagar", "Telangana", "505002", "+91-7654-321098", "info@wellnesshospital.in", "24 Hours"},
		{"Family Care Clinic", "Rekurthi Road, Near Railway Station", "Karimnagar", "Telangana", "505003", "+91-8912-345678", "familycare@clinic.in", "10:00 AM - 7:00 PM"},
	}

	services := []serviceSeed{
		{"General Checkup", "Complete health examination and consultation", 45, 150.00, "General Medicine", 0},
		{"Blood Test", "Comprehensive blood work and analysis", 15, 75.00, "Laboratory", 1},
		{"X-Ray", "Digital X-ray imaging service", 20, 100.00, "Radiology", 1},
		{"Dental Cleaning", "Professional teeth cleaning and oral exam", 60, 120.00, "Dentistry", 3},
		{"Eye Examination", "Complete eye health and vision checkup", 30, 90.00, "Ophthalmology", 0},
		{"Cardiology Consultation", "Heart health assessment and consultation", 45, 200.00, "Cardiology", 2},
		{"Dermatology Consultation", "Skin condition evaluation and treatment", 30, 180.00, "Dermatology", 1},
		{"Physical Therapy", "Rehabilitation and physical therapy session", 60, 85.00, "Physical Therapy", 2},
		{"Vaccination", "Immunization and vaccination services", 15, 50.00, "General Medicine", 0},
		{"Mental Health Counseling", "Psychological counseling and therapy", 60, 160.00, "Mental Health", 3},
		{"Pediatric Checkup", "Child health examination and consultation", 40, 140.00, "Pediatrics", 0},
		{"Gynecology Consultation", "Women's health examination and consultation", 45, 170.00, "Gynecology", 2},
		{"Orthopedic Consultation", "Bone and joint health assessment", 40, 190.00, "Orthopedics", 1},
		{"ENT Consultation", "Ear, Nose, Throat examination", 35, 160.00, "ENT", 3},
		{"Diabetes Consultation", "Blood sugar management and counseling", 30, 180.00, "Endocrinology", 2},
	}

	weekdays := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	doctors := []doctorSeed{
		{"Dr. Rajesh Kumar", "General Medicine", "+91-9876-543201", "rajesh.kumar@clinic.in", 0, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}, "09:00:00", "17:00:00", "9:00 AM - 5:00 PM", []int{0, 8, 1, 2}},
		{"Dr. Priya Sharma", "Cardiology", "+91-8765-432102", "priya.sharma@clinic.in", 2, weekdays, "10:00:00", "18:00:00", "10:00 AM - 6:00 PM", []int{5, 7}},
		{"Dr. Suresh Reddy", "Dermatology", "+91-7654-321903", "suresh.reddy@clinic.in", 1, []string{"Tuesday", "Thursday", "Friday", "Saturday"}, "11:00:00", "19:00:00", "11:00 AM - 7:00 PM", []int{6}},
		{"Dr. Meera Patel", "Ophthalmology", "+91-9123-456704", "meera.patel@clinic.in", 0, []string{"Monday", "Wednesday", "Thursday", "Friday", "Saturday"}, "08:30:00", "16:30:00", "8:30 AM - 4:30 PM", []int{4, 0}},
		{"Dr. Vikram Singh", "Mental Health", "+91-8234-567105", "vikram.singh@clinic.in", 3, weekdays, "10:00:00", "18:00:00", "10:00 AM - 6:00 PM", []int{9}},
		{"Dr. Anita Gupta", "Pediatrics", "+91-7345-678906", "anita.gupta@clinic.in", 0, []string{"Monday", "Tuesday", "Wednesday", "Friday", "Saturday"}, "09:00:00", "17:00:00", "9:00 AM - 5:00 PM", []int{10}},
		{"Dr. Ravi Krishnan", "Gynecology", "+91-9456-789107", "ravi.krishnan@clinic.in", 2, []string{"Monday", "Wednesday", "Thursday", "Friday"}, "14:00:00", "20:00:00", "2:00 PM - 8:00 PM", []int{11}},
		{"Dr. Sunita Rao", "Orthopedics", "+91-8567-891208", "sunita.rao@clinic.in", 1, []string{"Tuesday", "Wednesday", "Thursday", "Saturday"}, "09:30:00", "17:30:00", "9:30 AM - 5:30 PM", []int{12}},
		{"Dr. Arun Kumar", "ENT", "+91-7678-912309", "arun.kumar@clinic.in", 3, []string{"Monday", "Tuesday", "Friday", "Saturday"}, "10:30:00", "18:30:00", "10:30 AM - 6:30 PM", []int{13}},
		{"Dr. Kavitha Nair", "Endocrinology", "+91-9789-123410", "kavitha.nair@clinic.in", 2, []string{"Monday", "Wednesday", "Thursday", "Friday"}, "11:00:00", "19:00:00", "11:00 AM - 7:00 PM", []int{14}},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	clinicIDs := make([]uuid.UUID, len(clinics))
	for i, c := range clinics {
		clinicIDs[i] = uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO clinics (id, name, address, city, state, pincode, phone, email, operating_hours, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		`, clinicIDs[i], c.name, c.address, c.city, c.state, c.pincode, c.phone, c.email, c.hours)
		if err != nil {
			return err
		}
	}

	serviceIDs := make([]uuid.UUID, len(services))
	for i, s := range services {
		serviceIDs[i] = uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, name, description, duration_minutes, price, department, clinic_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		`, serviceIDs[i], s.name, s.description, s.duration, s.price, s.department, clinicIDs[s.clinic])
		if err != nil {
			return err
		}
	}

	totalSlots := 0
	for _, d := range doctors {
		doctorID := uuid.New()
		daysJSON, err := json.Marshal(d.days)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, phone, email, clinic_id, available_days,
			                     working_hours_start, working_hours_end, working_hours_display, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		`, doctorID, d.name, d.specialty, d.phone, d.email, clinicIDs[d.clinic],
			string(daysJSON), d.start, d.end, d.display)
		if err != nil {
			return err
		}

		for _, svcIdx := range d.services {
			_, err := tx.Exec(ctx, `
				INSERT INTO doctor_services (doctor_id, service_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, doctorID, serviceIDs[svcIdx])
			if err != nil {
				return err
			}
		}

		slots, err := catalog.BuildWeeklySlots(catalog.Doctor{
			ID:                doctorID,
			AvailableDays:     d.days,
			WorkingHoursStart: d.start,
			WorkingHoursEnd:   d.end,
		}, catalog.DefaultSlotWidth)
		if err != nil {
			return err
		}

		for _, slot := range slots {
			_, err := tx.Exec(ctx, `
				INSERT INTO time_slots (id, doctor_id, day_of_week, start_time, end_time, is_available, slot_type, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			`, slot.ID, slot.DoctorID, slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.IsAvailable, slot.SlotType)
			if err != nil {
				return err
			}
		}
		totalSlots += len(slots)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("catalog seeded: %d clinics, %d services, %d doctors, %d time slots",
		len(clinics), len(services), len(doctors), totalSlots)
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	genders := []string{"male", "female"}
	for i := 0; i < count; i++ {
		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, name, phone, email, age, gender, address, medical_history, emergency_contact, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		`,
			uuid.New(),
			gofakeit.Name(),
			gofakeit.Phone(),
			gofakeit.Email(),
			gofakeit.Number(18, 85),
			genders[gofakeit.Number(0, 1)],
			gofakeit.Address().Address,
			"",
			gofakeit.Phone(),
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("patients seeded")
	return nil
}
