package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/healthbot/clinic-scheduling/internal/booking"
	"github.com/healthbot/clinic-scheduling/internal/catalog"
)

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type CreatePatientRequest struct {
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Email            string `json:"email,omitempty"`
	Age              int    `json:"age,omitempty"`
	Gender           string `json:"gender,omitempty"`
	Address          string `json:"address,omitempty"`
	MedicalHistory   string `json:"medical_history,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
}

type PatientResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email,omitempty"`
	Age              int       `json:"age,omitempty"`
	Gender           string    `json:"gender,omitempty"`
	Address          string    `json:"address,omitempty"`
	MedicalHistory   string    `json:"medical_history,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type BookAppointmentRequest struct {
	PatientID               string `json:"patient_id,omitempty"`
	PatientName             string `json:"patient_name"`
	PatientPhone            string `json:"patient_phone"`
	PatientEmail            string `json:"patient_email,omitempty"`
	PatientAge              int    `json:"patient_age,omitempty"`
	PatientGender           string `json:"patient_gender,omitempty"`
	PatientAddress          string `json:"patient_address,omitempty"`
	PatientMedicalHistory   string `json:"patient_medical_history,omitempty"`
	PatientEmergencyContact string `json:"patient_emergency_contact,omitempty"`

	DoctorID  string `json:"doctor_id"`
	ServiceID string `json:"service_id"`
	SlotID    string `json:"slot_id"`
	Date      string `json:"date"` // YYYY-MM-DD

	Complaint        string   `json:"complaint,omitempty"`
	Symptoms         string   `json:"symptoms,omitempty"`
	SymptomsDuration string   `json:"symptoms_duration,omitempty"`
	PainLevel        *int     `json:"pain_level,omitempty"`
	Urgency          string   `json:"urgency,omitempty"`
	Conversation     []string `json:"conversation,omitempty"`
}

type AppointmentResponse struct {
	ID     uuid.UUID `json:"id"`
	Number string    `json:"appointment_number"`

	PatientID    *uuid.UUID `json:"patient_id,omitempty"`
	PatientName  string     `json:"patient_name"`
	PatientPhone string     `json:"patient_phone"`

	DoctorID        uuid.UUID `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	DoctorSpecialty string    `json:"doctor_specialty"`

	ClinicID      uuid.UUID `json:"clinic_id"`
	ClinicName    string    `json:"clinic_name"`
	ClinicAddress string    `json:"clinic_address"`

	ServiceID              uuid.UUID `json:"service_id"`
	ServiceName            string    `json:"service_name"`
	ServicePrice           float64   `json:"service_price"`
	ServiceDurationMinutes int       `json:"service_duration_minutes"`

	Date      string    `json:"appointment_date"` // YYYY-MM-DD
	StartTime string    `json:"appointment_time"`
	EndTime   string    `json:"appointment_end_time"`
	SlotID    uuid.UUID `json:"slot_id"`

	Complaint string `json:"patient_complaint,omitempty"`
	Urgency   string `json:"urgency_level"`

	AISummary               string `json:"ai_summary,omitempty"`
	AIRecommendedFocusAreas string `json:"ai_recommended_focus_areas,omitempty"`
	AIPreliminaryAssessment string `json:"ai_preliminary_assessment,omitempty"`
	AISuggestedQuestions    string `json:"ai_suggested_questions,omitempty"`
	AISummaryGenerated      bool   `json:"ai_summary_generated"`

	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	History []StatusChangeResponse `json:"status_history,omitempty"`
}

type StatusChangeResponse struct {
	OldStatus *string   `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedBy string    `json:"changed_by"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type UpdateStatusRequest struct {
	Status    string `json:"status"`
	ChangedBy string `json:"changed_by,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

type UpdateStatusResponse struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
}

type SlotResponse struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	DoctorName  string    `json:"doctor_name"`
	Specialty   string    `json:"specialty"`
	ClinicName  string    `json:"clinic_name"`
	DayOfWeek   int       `json:"day_of_week"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	IsAvailable bool      `json:"is_available"`
	SlotType    string    `json:"slot_type"`
}

type DaySummaryResponse struct {
	DoctorID     uuid.UUID             `json:"doctor_id"`
	Date         string                `json:"date"`
	Total        int                   `json:"total"`
	UrgentCount  int                   `json:"urgent_count"`
	Appointments []AppointmentResponse `json:"appointments"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:     a.ID,
		Number: a.Number,

		PatientID:    a.PatientID,
		PatientName:  a.PatientName,
		PatientPhone: a.PatientPhone,

		DoctorID:        a.DoctorID,
		DoctorName:      a.DoctorName,
		DoctorSpecialty: a.DoctorSpecialty,

		ClinicID:      a.ClinicID,
		ClinicName:    a.ClinicName,
		ClinicAddress: a.ClinicAddress,

		ServiceID:              a.ServiceID,
		ServiceName:            a.ServiceName,
		ServicePrice:           a.ServicePrice,
		ServiceDurationMinutes: a.ServiceDurationMinutes,

		Date:      a.Date.Format("2006-01-02"),
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		SlotID:    a.SlotID,

		Complaint: a.Complaint,
		Urgency:   string(a.Urgency),

		AISummary:               a.AISummary,
		AIRecommendedFocusAreas: a.AIRecommendedFocusAreas,
		AIPreliminaryAssessment: a.AIPreliminaryAssessment,
		AISuggestedQuestions:    a.AISuggestedQuestions,
		AISummaryGenerated:      a.AISummaryGenerated,

		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toDetailResponse(d *booking.AppointmentDetail) AppointmentResponse {
	resp := toAppointmentResponse(d.Appointment)
	resp.History = make([]StatusChangeResponse, 0, len(d.History))
	for _, h := range d.History {
		var old *string
		if h.OldStatus != nil {
			s := string(*h.OldStatus)
			old = &s
		}
		resp.History = append(resp.History, StatusChangeResponse{
			OldStatus: old,
			NewStatus: string(h.NewStatus),
			ChangedBy: h.ChangedBy,
			Reason:    h.Reason,
			ChangedAt: h.ChangedAt,
		})
	}
	return resp
}

func toPatientResponse(p *booking.Patient) PatientResponse {
	return PatientResponse{
		ID:               p.ID,
		Name:             p.Name,
		Phone:            p.Phone,
		Email:            p.Email,
		Age:              p.Age,
		Gender:           p.Gender,
		Address:          p.Address,
		MedicalHistory:   p.MedicalHistory,
		EmergencyContact: p.EmergencyContact,
		CreatedAt:        p.CreatedAt,
	}
}

func toSlotResponse(s catalog.SlotDetail) SlotResponse {
	return SlotResponse{
		ID:          s.ID,
		DoctorID:    s.DoctorID,
		DoctorName:  s.DoctorName,
		Specialty:   s.Specialty,
		ClinicName:  s.ClinicName,
		DayOfWeek:   s.DayOfWeek,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		IsAvailable: s.IsAvailable,
		SlotType:    s.SlotType,
	}
}
