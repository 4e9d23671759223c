// Package payments generates consult-fee payment links for bookings.
package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// LinkGenerator produces a hosted payment link for an appointment fee.
type LinkGenerator interface {
	GenerateLink(ctx context.Context, appointmentID uuid.UUID, amountCents int) (string, error)
}

// Config holds payment provider settings.
type Config struct {
	BaseURL         string
	APIKey          string
	AllowLocalLinks bool
}

const localBaseURL = "https://pay.local"

// Generator builds provider-hosted checkout links. Each link carries a fresh
// session id so re-booking the same appointment never reuses a checkout.
type Generator struct {
	cfg    Config
	logger *logging.Logger
}

// NewGenerator creates a payment link generator.
func NewGenerator(cfg Config, logger *logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Generator{cfg: cfg, logger: logger}
}

// GenerateLink returns a checkout URL for the appointment's consult fee.
// Without provider configuration it returns a local placeholder link when
// allowed, and an error otherwise.
func (g *Generator) GenerateLink(ctx context.Context, appointmentID uuid.UUID, amountCents int) (string, error) {
	if amountCents <= 0 {
		return "", fmt.Errorf("payments: amount must be positive, got %d", amountCents)
	}
	sessionID := uuid.NewString()

	base := strings.TrimSuffix(g.cfg.BaseURL, "/")
	if base == "" || g.cfg.APIKey == "" {
		if !g.cfg.AllowLocalLinks {
			return "", fmt.Errorf("payments: provider not configured")
		}
		base = localBaseURL
	}

	link := fmt.Sprintf("%s/pay/%s?appointment=%s&amount=%d", base, sessionID, appointmentID, amountCents)
	g.logger.Debug("payments: link generated", "appointment_id", appointmentID, "amount_cents", amountCents)
	return link, nil
}

var _ LinkGenerator = (*Generator)(nil)
