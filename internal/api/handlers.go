package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/healthbot/clinic-scheduling/internal/assistant"
	"github.com/healthbot/clinic-scheduling/internal/booking"
	"github.com/healthbot/clinic-scheduling/internal/catalog"
)

const dateLayout = "2006-01-02"

func chatHandler(bot *assistant.Assistant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Message == "" {
			writeError(w, http.StatusBadRequest, "empty_message", "message is required")
			return
		}

		reply, err := bot.Respond(r.Context(), req.SessionID, req.Message)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, reply)
	}
}

func resetChatHandler(bot *assistant.Assistant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		if err := bot.Reset(r.Context(), sessionID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listClinicsHandler(cat catalog.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clinics, err := cat.ListClinics(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, clinics)
	}
}

func listServicesHandler(cat catalog.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")

		var (
			services []catalog.Service
			err      error
		)
		if query != "" {
			services, err = cat.SearchServices(r.Context(), query)
		} else {
			services, err = cat.ListServices(r.Context())
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, services)
	}
}

func listDoctorsHandler(cat catalog.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			doctors []catalog.Doctor
			err     error
		)
		if raw := r.URL.Query().Get("service_id"); raw != "" {
			serviceID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
				return
			}
			doctors, err = cat.ListDoctorsForService(r.Context(), serviceID)
		} else {
			doctors, err = cat.ListDoctors(r.Context())
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, doctors)
	}
}

func listAvailabilityHandler(cat catalog.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f catalog.SlotFilter

		if raw := r.URL.Query().Get("doctor_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			f.DoctorID = &id
		}
		if raw := r.URL.Query().Get("service_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
				return
			}
			f.ServiceID = &id
		}
		if raw := r.URL.Query().Get("day_of_week"); raw != "" {
			day, err := strconv.Atoi(raw)
			if err != nil || day < 1 || day > 7 {
				writeError(w, http.StatusBadRequest, "invalid_day_of_week", "day_of_week must be 1 (Monday) through 7 (Sunday)")
				return
			}
			f.DayOfWeek = &day
		}

		slots, err := cat.ListAvailableSlots(r.Context(), f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, toSlotResponse(s))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createPatientHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patient, err := svc.CreatePatient(r.Context(), booking.Patient{
			Name:             req.Name,
			Phone:            req.Phone,
			Email:            req.Email,
			Age:              req.Age,
			Gender:           req.Gender,
			Address:          req.Address,
			MedicalHistory:   req.MedicalHistory,
			EmergencyContact: req.EmergencyContact,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPatientResponse(patient))
	}
}

func getPatientHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		patient, err := svc.GetPatient(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPatientResponse(patient))
	}
}

func bookAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}
		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}
		slotID, err := uuid.Parse(req.SlotID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "slot_id must be a valid UUID")
			return
		}
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		var patientID *uuid.UUID
		if req.PatientID != "" {
			id, err := uuid.Parse(req.PatientID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			patientID = &id
		}

		appt, err := svc.BookAppointment(r.Context(), booking.BookingRequest{
			PatientID:               patientID,
			PatientName:             req.PatientName,
			PatientPhone:            req.PatientPhone,
			PatientEmail:            req.PatientEmail,
			PatientAge:              req.PatientAge,
			PatientGender:           req.PatientGender,
			PatientAddress:          req.PatientAddress,
			PatientMedicalHistory:   req.PatientMedicalHistory,
			PatientEmergencyContact: req.PatientEmergencyContact,
			DoctorID:                doctorID,
			ServiceID:               serviceID,
			SlotID:                  slotID,
			Date:                    date,
			Complaint:               req.Complaint,
			Symptoms:                req.Symptoms,
			SymptomsDuration:        req.SymptomsDuration,
			PainLevel:               req.PainLevel,
			Urgency:                 booking.Urgency(req.Urgency),
			Conversation:            req.Conversation,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(*appt))
	}
}

func getAppointmentHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		detail, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDetailResponse(detail))
	}
}

func getAppointmentByNumberHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		number := chi.URLParam(r, "number")

		detail, err := svc.GetAppointmentByNumber(r.Context(), number)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDetailResponse(detail))
	}
}

func updateStatusHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		tr, err := svc.UpdateStatus(r.Context(), id, booking.Status(req.Status), req.ChangedBy, req.Reason)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, UpdateStatusResponse{
			AppointmentID: tr.AppointmentID,
			OldStatus:     string(tr.OldStatus),
			NewStatus:     string(tr.NewStatus),
		})
	}
}

func doctorDaySummaryHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}
		date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		ds, err := svc.DoctorDaySummary(r.Context(), doctorID, date)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := DaySummaryResponse{
			DoctorID:     ds.DoctorID,
			Date:         ds.Date.Format(dateLayout),
			Total:        len(ds.Appointments),
			UrgentCount:  ds.UrgentCount,
			Appointments: make([]AppointmentResponse, 0, len(ds.Appointments)),
		}
		for _, a := range ds.Appointments {
			resp.Appointments = append(resp.Appointments, toAppointmentResponse(a))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, booking.ErrServiceNotOffered):
		writeError(w, http.StatusConflict, "service_not_offered", err.Error())
	case errors.Is(err, booking.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, catalog.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, catalog.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, catalog.ErrClinicNotFound):
		writeError(w, http.StatusNotFound, "clinic_not_found", err.Error())
	case errors.Is(err, catalog.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, booking.ErrPersistence):
		writeError(w, http.StatusInternalServerError, "booking_not_persisted", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
