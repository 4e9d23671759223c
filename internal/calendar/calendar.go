// Package calendar mirrors appointments to an external calendar provider.
package calendar

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/harborhealth/clinic-queue-platform/internal/scheduling"
	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// Sync pushes an appointment to a calendar and returns the provider's
// event id.
type Sync interface {
	AddEvent(ctx context.Context, appt *scheduling.Appointment) (string, error)
}

// StubSync fabricates event ids without talking to a provider. It keeps the
// booking flow's event-id plumbing exercised until a real integration lands.
type StubSync struct {
	logger *logging.Logger
}

// NewStubSync creates a stub calendar sync.
func NewStubSync(logger *logging.Logger) *StubSync {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSync{logger: logger}
}

// AddEvent returns a fresh synthetic event id.
func (s *StubSync) AddEvent(ctx context.Context, appt *scheduling.Appointment) (string, error) {
	eventID := fmt.Sprintf("evt_%s", uuid.NewString()[:8])
	s.logger.Debug("calendar: event created",
		"event_id", eventID, "appointment_id", appt.ID,
		"starts_at", appt.ScheduledInstant())
	return eventID, nil
}

var _ Sync = (*StubSync)(nil)
