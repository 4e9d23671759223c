package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harborhealth/clinic-queue-platform/internal/observability/metrics"
	"github.com/harborhealth/clinic-queue-platform/internal/scheduling"
	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// Notifier delivers one outreach message over a channel.
type Notifier interface {
	Send(ctx context.Context, channel, destination, message string) error
}

// Sweeper dispatches due follow-up tasks. Multiple sweepers may run
// concurrently against the same table; the conditional claim guarantees
// each task is dispatched at most once.
type Sweeper struct {
	store        *Store
	appointments AppointmentSource
	patients     PatientSource
	notifier     Notifier

	batchSize int
	retries   int

	logger  *logging.Logger
	metrics *metrics.FollowUpMetrics
	now     func() time.Time
}

// SweeperOptions wires the sweeper's collaborators.
type SweeperOptions struct {
	Store        *Store
	Appointments AppointmentSource
	Patients     PatientSource
	Notifier     Notifier
	BatchSize    int
	Retries      int
	Logger       *logging.Logger
	Metrics      *metrics.FollowUpMetrics
}

// NewSweeper creates a dispatch sweeper.
func NewSweeper(opts SweeperOptions) *Sweeper {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	return &Sweeper{
		store:        opts.Store,
		appointments: opts.Appointments,
		patients:     opts.Patients,
		notifier:     opts.Notifier,
		batchSize:    opts.BatchSize,
		retries:      opts.Retries,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ProcessDue dispatches every due task once and returns how many were sent.
// A task whose appointment or patient no longer resolves is left unclaimed
// and logged; it will be retried on the next sweep. Dispatch failures after
// a successful claim are logged and counted but never abort the sweep.
func (s *Sweeper) ProcessDue(ctx context.Context) (int, error) {
	start := s.now()
	tasks, err := s.store.ListDue(ctx, start, s.batchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range tasks {
		task := &tasks[i]

		appt, err := s.appointments.GetAppointment(ctx, task.AppointmentID)
		if err != nil {
			if errors.Is(err, scheduling.ErrAppointmentNotFound) {
				s.logger.Warn("followup: due task has no appointment", "task_id", task.ID)
				continue
			}
			return sent, fmt.Errorf("followup: sweep: resolve appointment: %w", err)
		}
		patient, err := s.patients.GetPatient(ctx, appt.PatientID)
		if err != nil {
			if errors.Is(err, scheduling.ErrPatientNotFound) {
				s.logger.Warn("followup: due task has no patient", "task_id", task.ID)
				continue
			}
			return sent, fmt.Errorf("followup: sweep: resolve patient: %w", err)
		}

		claimed, err := s.store.Claim(ctx, task.ID)
		if err != nil {
			return sent, err
		}
		if !claimed {
			// Another sweep got there first.
			continue
		}

		destination := fmt.Sprintf("patient-%s", patient.ID)
		if err := s.dispatch(ctx, task, destination); err != nil {
			s.logger.Error("followup: dispatch failed",
				"error", err, "task_id", task.ID, "kind", string(task.Kind), "channel", string(task.Channel))
			s.metrics.TaskDispatched(string(task.Kind), "failed")
			continue
		}
		s.metrics.TaskDispatched(string(task.Kind), "sent")
		sent++
	}

	s.metrics.ObserveSweep(time.Since(start).Seconds())
	if len(tasks) > 0 {
		s.logger.Info("followup: sweep complete", "due", len(tasks), "sent", sent)
	}
	return sent, nil
}

func (s *Sweeper) dispatch(ctx context.Context, task *Task, destination string) error {
	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		lastErr = s.notifier.Send(ctx, string(task.Channel), destination, task.Message)
		if lastErr == nil {
			return nil
		}
		s.logger.Warn("followup: dispatch attempt failed",
			"task_id", task.ID, "attempt", attempt, "error", lastErr)
	}
	return lastErr
}
