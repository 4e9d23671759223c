package followup

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harborhealth/clinic-queue-platform/internal/scheduling"
	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// Handler provides HTTP endpoints for scheduling follow-ups, running the
// sweep on demand, triaging replies, and the after-visit checklist.
type Handler struct {
	store     *Store
	scheduler *Scheduler
	sweeper   *Sweeper
	replies   *ReplyPipeline
	logger    *logging.Logger
}

// NewHandler creates a follow-up HTTP handler.
func NewHandler(store *Store, scheduler *Scheduler, sweeper *Sweeper, replies *ReplyPipeline, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, scheduler: scheduler, sweeper: sweeper, replies: replies, logger: logger}
}

// RegisterRoutes mounts follow-up endpoints under a chi router.
// Expected to be mounted under /api/v1/followups
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/schedule", h.schedule)
	r.Post("/run_once", h.runOnce)
	r.Post("/reply", h.reply)
	r.Get("/appointment/{appointmentID}", h.listForAppointment)
	r.Route("/action-items", func(r chi.Router) {
		r.Post("/", h.createActionItem)
		r.Get("/appointment/{appointmentID}", h.listActionItems)
		r.Post("/{itemID}/complete", h.completeActionItem)
	})
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppointmentID uuid.UUID `json:"appointment_id"`
		Channel       Channel   `json:"channel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AppointmentID == uuid.Nil {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}
	tasks, err := h.scheduler.Schedule(r.Context(), req.AppointmentID, req.Channel)
	if err != nil {
		h.writeError(w, "schedule", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"tasks": tasks, "count": len(tasks)})
}

func (h *Handler) runOnce(w http.ResponseWriter, r *http.Request) {
	processed, err := h.sweeper.ProcessDue(r.Context())
	if err != nil {
		h.writeError(w, "run once", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"processed": processed})
}

func (h *Handler) reply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppointmentID uuid.UUID `json:"appointment_id"`
		Message       string    `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AppointmentID == uuid.Nil {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}
	outcome, err := h.replies.ProcessReply(r.Context(), req.AppointmentID, req.Message)
	if err != nil {
		h.writeError(w, "reply", err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) listForAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointmentID", http.StatusBadRequest)
		return
	}
	tasks, err := h.store.ListByAppointment(r.Context(), id)
	if err != nil {
		h.writeError(w, "list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks, "count": len(tasks)})
}

func (h *Handler) createActionItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AppointmentID uuid.UUID  `json:"appointment_id"`
		Title         string     `json:"title"`
		Description   string     `json:"description"`
		DueDate       *time.Time `json:"due_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AppointmentID == uuid.Nil || req.Title == "" {
		http.Error(w, "appointment_id and title are required", http.StatusBadRequest)
		return
	}
	item := &ActionItem{
		AppointmentID: req.AppointmentID,
		Title:         req.Title,
		Description:   req.Description,
		DueDate:       req.DueDate,
	}
	if err := h.store.CreateActionItem(r.Context(), item); err != nil {
		h.writeError(w, "create action item", err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) listActionItems(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointmentID", http.StatusBadRequest)
		return
	}
	items, err := h.store.ListActionItems(r.Context(), id)
	if err != nil {
		h.writeError(w, "list action items", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"action_items": items, "count": len(items)})
}

func (h *Handler) completeActionItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		http.Error(w, "invalid itemID", http.StatusBadRequest)
		return
	}
	if err := h.store.CompleteActionItem(r.Context(), id); err != nil {
		h.writeError(w, "complete action item", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(ActionDone)})
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, scheduling.ErrAppointmentNotFound),
		errors.Is(err, scheduling.ErrPatientNotFound),
		errors.Is(err, ErrTaskNotFound),
		errors.Is(err, ErrActionItemNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("followup handler: "+op, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
