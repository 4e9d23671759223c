package support

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// Handler provides the admin triage endpoints for escalations.
type Handler struct {
	svc    *EscalationService
	logger *logging.Logger
}

// NewHandler creates a support HTTP handler.
func NewHandler(svc *EscalationService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts escalation endpoints under a chi router.
// Expected to be mounted under the admin-authenticated /api/v1/admin tree.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/escalations", h.listOpen)
	r.Post("/escalations/{escalationID}/acknowledge", h.acknowledge)
	r.Post("/escalations/{escalationID}/resolve", h.resolve)
}

func (h *Handler) listOpen(w http.ResponseWriter, r *http.Request) {
	escalations, err := h.svc.ListOpen(r.Context())
	if err != nil {
		h.logger.Error("support handler: list open", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"escalations": escalations,
		"count":       len(escalations),
	})
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "escalationID"))
	if err != nil {
		http.Error(w, "invalid escalationID", http.StatusBadRequest)
		return
	}
	var req struct {
		StaffMember string `json:"staff_member"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StaffMember == "" {
		http.Error(w, "staff_member is required", http.StatusBadRequest)
		return
	}
	if err := h.svc.Acknowledge(r.Context(), id, req.StaffMember); err != nil {
		h.writeError(w, "acknowledge", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": string(StatusInProgress)})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "escalationID"))
	if err != nil {
		http.Error(w, "invalid escalationID", http.StatusBadRequest)
		return
	}
	var req struct {
		StaffMember string `json:"staff_member"`
		Resolution  string `json:"resolution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StaffMember == "" {
		http.Error(w, "staff_member is required", http.StatusBadRequest)
		return
	}
	if err := h.svc.Resolve(r.Context(), id, req.StaffMember, req.Resolution); err != nil {
		h.writeError(w, "resolve", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": string(StatusResolved)})
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrEscalationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("support handler: "+op, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
