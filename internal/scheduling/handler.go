package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// Handler provides HTTP endpoints for doctors, patients, appointments, and
// the live queue.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a scheduling HTTP handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts scheduling endpoints under a chi router.
// Expected to be mounted under /api/v1
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/doctors", func(r chi.Router) {
		r.Post("/", h.createDoctor)
		r.Get("/", h.listDoctors)
		r.Get("/{doctorID}", h.getDoctor)
		r.Get("/{doctorID}/preferences", h.getPreferences)
		r.Put("/{doctorID}/preferences", h.setPreferences)
		r.Get("/{doctorID}/schedule", h.getSchedule)
		r.Get("/{doctorID}/delay", h.getDelay)
		r.Get("/{doctorID}/slots", h.getSlots)
	})
	r.Route("/patients", func(r chi.Router) {
		r.Post("/", h.createPatient)
		r.Get("/{patientID}", h.getPatient)
	})
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", h.book)
		r.Get("/{appointmentID}", h.getAppointment)
		r.Get("/{appointmentID}/eta", h.getETA)
		r.Post("/{appointmentID}/arrive", h.markArrived)
		r.Post("/{appointmentID}/start", h.startVisit)
		r.Post("/{appointmentID}/end", h.endVisit)
		r.Post("/{appointmentID}/skip", h.skip)
	})
}

func (h *Handler) createDoctor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Specialty string `json:"specialty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	d := &Doctor{Name: req.Name, Specialty: req.Specialty}
	if err := h.svc.CreateDoctor(r.Context(), d); err != nil {
		h.writeError(w, "create doctor", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *Handler) listDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.svc.ListDoctors(r.Context())
	if err != nil {
		h.writeError(w, "list doctors", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctors": doctors, "count": len(doctors)})
}

func (h *Handler) getDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "doctorID")
	if !ok {
		return
	}
	d, err := h.svc.GetDoctor(r.Context(), id)
	if err != nil {
		h.writeError(w, "get doctor", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "doctorID")
	if !ok {
		return
	}
	p, err := h.svc.Preferences(r.Context(), id)
	if err != nil {
		h.writeError(w, "get preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) setPreferences(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "doctorID")
	if !ok {
		return
	}
	var p DoctorPreferences
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	p.DoctorID = id
	if err := h.svc.SetPreferences(r.Context(), &p); err != nil {
		h.writeError(w, "set preferences", err)
		return
	}
	writeJSON(w, http.StatusOK, &p)
}

func (h *Handler) getSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "doctorID")
	if !ok {
		return
	}
	date, ok := h.queryDate(w, r)
	if !ok {
		return
	}
	sched, err := h.svc.Schedule(r.Context(), id, date)
	if err != nil {
		h.writeError(w, "get schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

func (h *Handler) getDelay(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "doctorID")
	if !ok {
		return
	}
	date, ok := h.queryDate(w, r)
	if !ok {
		return
	}
	delay, err := h.svc.DoctorDelay(r.Context(), id, date)
	if err != nil {
		h.writeError(w, "get delay", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doctor_id":     id,
		"date":          DateOnly(date).Format("2006-01-02"),
		"delay_minutes": delay,
	})
}

func (h *Handler) getSlots(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "doctorID")
	if !ok {
		return
	}
	date, ok := h.queryDate(w, r)
	if !ok {
		return
	}
	var opts SlotOptions
	q := r.URL.Query()
	if v := q.Get("start_hour"); v != "" {
		opts.StartHour, _ = strconv.Atoi(v)
	}
	if v := q.Get("end_hour"); v != "" {
		opts.EndHour, _ = strconv.Atoi(v)
	}
	if v := q.Get("slot_minutes"); v != "" {
		opts.SlotMinutes, _ = strconv.Atoi(v)
	}
	rec, err := h.svc.Slots(r.Context(), id, date, opts)
	if err != nil {
		h.writeError(w, "get slots", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) createPatient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	p := &Patient{DisplayName: req.DisplayName}
	if err := h.svc.CreatePatient(r.Context(), p); err != nil {
		h.writeError(w, "create patient", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) getPatient(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "patientID")
	if !ok {
		return
	}
	p, err := h.svc.GetPatient(r.Context(), id)
	if err != nil {
		h.writeError(w, "get patient", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type bookPayload struct {
	DoctorID      uuid.UUID `json:"doctor_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	Date          string    `json:"date"`
	ScheduledTime TimeOfDay `json:"scheduled_time"`
	SlotMinutes   int       `json:"slot_minutes"`
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	var req bookPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.DoctorID == uuid.Nil || req.PatientID == uuid.Nil {
		http.Error(w, "doctor_id and patient_id are required", http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	result, err := h.svc.Book(r.Context(), BookRequest{
		DoctorID:      req.DoctorID,
		PatientID:     req.PatientID,
		Date:          date,
		ScheduledTime: req.ScheduledTime,
		SlotMinutes:   req.SlotMinutes,
	})
	if err != nil {
		h.writeError(w, "book appointment", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) getAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "appointmentID")
	if !ok {
		return
	}
	detail, err := h.svc.Detail(r.Context(), id)
	if err != nil {
		h.writeError(w, "get appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) getETA(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "appointmentID")
	if !ok {
		return
	}
	eta, err := h.svc.ETAFor(r.Context(), id)
	if err != nil {
		h.writeError(w, "get eta", err)
		return
	}
	writeJSON(w, http.StatusOK, eta)
}

func (h *Handler) markArrived(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "appointmentID")
	if !ok {
		return
	}
	// An absent body means the patient has arrived; arrived=false undoes a
	// mistaken check-in.
	req := struct {
		Arrived *bool `json:"arrived"`
	}{}
	_ = json.NewDecoder(r.Body).Decode(&req)
	arrived := req.Arrived == nil || *req.Arrived

	if err := h.svc.CheckIn(r.Context(), id, arrived); err != nil {
		h.writeError(w, "check in", err)
		return
	}
	status := string(ArrivalArrived)
	if !arrived {
		status = string(ArrivalNotArrived)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (h *Handler) startVisit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "appointmentID")
	if !ok {
		return
	}
	if err := h.svc.StartVisit(r.Context(), id); err != nil {
		h.writeError(w, "start visit", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(StatusInProgress)})
}

func (h *Handler) endVisit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "appointmentID")
	if !ok {
		return
	}
	if err := h.svc.EndVisit(r.Context(), id); err != nil {
		h.writeError(w, "end visit", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(StatusCompleted)})
}

func (h *Handler) skip(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "appointmentID")
	if !ok {
		return
	}
	newTime, err := h.svc.Skip(r.Context(), id)
	if err != nil {
		h.writeError(w, "skip appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         string(StatusSkipped),
		"new_queue_time": newTime,
	})
}

func (h *Handler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// queryDate reads the optional ?date=YYYY-MM-DD parameter, defaulting to today.
func (h *Handler) queryDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return DateOnly(time.Now().UTC()), true
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return time.Time{}, false
	}
	return date, true
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrDoctorNotFound),
		errors.Is(err, ErrPatientNotFound),
		errors.Is(err, ErrAppointmentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrQueueBusy):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidPreferences):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("scheduling handler: "+op, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
