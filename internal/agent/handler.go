package agent

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harborhealth/clinic-queue-platform/internal/scheduling"
	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// Handler exposes the agent over HTTP.
type Handler struct {
	agent  *Agent
	logger *logging.Logger
}

// NewHandler creates an agent HTTP handler.
func NewHandler(agent *Agent, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{agent: agent, logger: logger}
}

// RegisterRoutes mounts agent endpoints under a chi router.
// Expected to be mounted under /api/v1/agent
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/message", h.message)
}

func (h *Handler) message(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PatientID uuid.UUID `json:"patient_id"`
		Message   string    `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PatientID == uuid.Nil {
		http.Error(w, "patient_id is required", http.StatusBadRequest)
		return
	}

	resp, err := h.agent.HandleMessage(r.Context(), req.PatientID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, scheduling.ErrPatientNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("agent handler: message", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
