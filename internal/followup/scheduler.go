package followup

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harborhealth/clinic-queue-platform/internal/observability/metrics"
	"github.com/harborhealth/clinic-queue-platform/internal/scheduling"
	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// AppointmentSource resolves appointments for scheduling and dispatch.
type AppointmentSource interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
}

// PatientSource resolves patients for dispatch destinations.
type PatientSource interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*scheduling.Patient, error)
}

const (
	reminderLead = 2 * time.Hour
	checkinDelay = 4 * time.Hour
)

// Scheduler creates the default outreach plan for an appointment.
type Scheduler struct {
	store        *Store
	appointments AppointmentSource
	logger       *logging.Logger
	metrics      *metrics.FollowUpMetrics
}

// NewScheduler creates a follow-up scheduler.
func NewScheduler(store *Store, appointments AppointmentSource, logger *logging.Logger, m *metrics.FollowUpMetrics) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{store: store, appointments: appointments, logger: logger, metrics: m}
}

// Schedule creates exactly two tasks for the appointment: a reminder two
// hours before the booked slot and a check-in four hours after the visit
// ends. When the visit has not ended yet the check-in anchors on the booked
// slot instead.
func (s *Scheduler) Schedule(ctx context.Context, appointmentID uuid.UUID, channel Channel) ([]*Task, error) {
	appt, err := s.appointments.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if channel == "" {
		channel = ChannelSMS
	}

	scheduled := appt.ScheduledInstant()
	checkinAt := scheduled.Add(checkinDelay)
	if appt.VisitEndTime != nil {
		checkinAt = appt.VisitEndTime.Add(checkinDelay)
	}

	tasks := []*Task{
		{
			AppointmentID: appointmentID,
			Kind:          KindReminder,
			Channel:       channel,
			ScheduledAt:   scheduled.Add(-reminderLead),
			Message:       MessageFor(KindReminder),
		},
		{
			AppointmentID: appointmentID,
			Kind:          KindCheckin,
			Channel:       channel,
			ScheduledAt:   checkinAt,
			Message:       MessageFor(KindCheckin),
		},
	}
	if err := s.store.CreateTasks(ctx, tasks); err != nil {
		return nil, err
	}
	for _, t := range tasks {
		s.metrics.TaskScheduled(string(t.Kind))
	}
	s.logger.Info("followup: tasks scheduled",
		"appointment_id", appointmentID, "channel", string(channel),
		"reminder_at", tasks[0].ScheduledAt, "checkin_at", tasks[1].ScheduledAt)
	return tasks, nil
}
