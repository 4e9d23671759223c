package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborhealth/clinic-queue-platform/internal/observability/metrics"
	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// PaymentLinkGenerator produces a consult-fee payment link for a booking.
type PaymentLinkGenerator interface {
	PaymentLink(ctx context.Context, appointmentID uuid.UUID, amountCents int) (string, error)
}

// CalendarSync mirrors an appointment to an external calendar.
type CalendarSync interface {
	AddEvent(ctx context.Context, appt *Appointment) (string, error)
}

// FollowUpScheduler enqueues post-visit follow-up work for an appointment.
type FollowUpScheduler interface {
	Schedule(ctx context.Context, appointmentID uuid.UUID) error
}

// Service is the scheduling domain facade: booking, queue reads, visit
// transitions, and skip/requeue.
type Service struct {
	store     *Store
	prefs     *PrefsStore
	lock      *QueueLock
	payments  PaymentLinkGenerator
	calendar  CalendarSync
	followups FollowUpScheduler

	consultFeeCents int
	slotDefaults    SlotOptions

	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics
	now     func() time.Time
}

// ServiceOptions wires the scheduling service's collaborators. Payments,
// calendar, and follow-ups are optional; booking degrades gracefully
// without them.
type ServiceOptions struct {
	Store           *Store
	Prefs           *PrefsStore
	Lock            *QueueLock
	Payments        PaymentLinkGenerator
	Calendar        CalendarSync
	FollowUps       FollowUpScheduler
	ConsultFeeCents int
	SlotDefaults    SlotOptions
	Logger          *logging.Logger
	Metrics         *metrics.SchedulingMetrics
}

// NewService creates the scheduling service.
func NewService(opts ServiceOptions) *Service {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.SlotDefaults == (SlotOptions{}) {
		opts.SlotDefaults = DefaultSlotOptions()
	}
	return &Service{
		store:           opts.Store,
		prefs:           opts.Prefs,
		lock:            opts.Lock,
		payments:        opts.Payments,
		calendar:        opts.Calendar,
		followups:       opts.FollowUps,
		consultFeeCents: opts.ConsultFeeCents,
		slotDefaults:    opts.SlotDefaults,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// BookRequest is the input for booking an appointment.
type BookRequest struct {
	DoctorID      uuid.UUID
	PatientID     uuid.UUID
	Date          time.Time
	ScheduledTime TimeOfDay
	SlotMinutes   int
}

// BookResult is a freshly booked appointment with its initial queue estimate.
type BookResult struct {
	Appointment *Appointment `json:"appointment"`
	ETA         ETA          `json:"eta"`
}

// Book creates an appointment for a doctor/patient pair and returns it with
// its initial queue position. Payment link and calendar event creation are
// best-effort; their failure never fails the booking.
func (s *Service) Book(ctx context.Context, req BookRequest) (*BookResult, error) {
	if _, err := s.store.GetDoctor(ctx, req.DoctorID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetPatient(ctx, req.PatientID); err != nil {
		return nil, err
	}

	slot := req.SlotMinutes
	if slot <= 0 {
		prefs, err := s.prefsOrDefault(ctx, req.DoctorID)
		if err != nil {
			return nil, err
		}
		slot = prefs.SlotMinutes
	}

	appt := &Appointment{
		DoctorID:      req.DoctorID,
		PatientID:     req.PatientID,
		Date:          DateOnly(req.Date),
		ScheduledTime: req.ScheduledTime,
		CurrentTime:   req.ScheduledTime,
		SlotMinutes:   slot,
	}
	if err := s.store.CreateAppointment(ctx, appt); err != nil {
		return nil, err
	}
	s.metrics.AppointmentBooked()

	var link, eventID string
	if s.payments != nil {
		var err error
		link, err = s.payments.PaymentLink(ctx, appt.ID, s.consultFeeCents)
		if err != nil {
			s.logger.Error("scheduling: payment link generation failed", "error", err, "appointment_id", appt.ID)
			link = ""
		}
	}
	if s.calendar != nil {
		var err error
		eventID, err = s.calendar.AddEvent(ctx, appt)
		if err != nil {
			s.logger.Error("scheduling: calendar sync failed", "error", err, "appointment_id", appt.ID)
			eventID = ""
		}
	}
	if link != "" || eventID != "" {
		if err := s.store.AttachBookingExtras(ctx, appt.ID, link, eventID); err != nil {
			s.logger.Error("scheduling: attach booking extras failed", "error", err, "appointment_id", appt.ID)
		} else {
			appt.PaymentLink = link
			appt.EventID = eventID
		}
	}

	eta, err := s.etaFor(ctx, appt)
	if err != nil {
		return nil, err
	}
	s.logger.Info("scheduling: appointment booked",
		"appointment_id", appt.ID, "doctor_id", appt.DoctorID,
		"patient_id", appt.PatientID, "scheduled_time", appt.ScheduledTime.String())
	return &BookResult{Appointment: appt, ETA: eta}, nil
}

// AppointmentDetail is an appointment with its live estimate and the
// display names the dashboard shows.
type AppointmentDetail struct {
	Appointment *Appointment `json:"appointment"`
	ETA         ETA          `json:"eta"`
	DoctorName  string       `json:"doctor_name"`
	PatientName string       `json:"patient_name"`
}

// Detail returns one appointment with a live estimate and display names.
func (s *Service) Detail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	doctor, err := s.store.GetDoctor(ctx, appt.DoctorID)
	if err != nil {
		return nil, err
	}
	patient, err := s.store.GetPatient(ctx, appt.PatientID)
	if err != nil {
		return nil, err
	}
	eta, err := s.etaFor(ctx, appt)
	if err != nil {
		return nil, err
	}
	return &AppointmentDetail{
		Appointment: appt,
		ETA:         eta,
		DoctorName:  doctor.Name,
		PatientName: patient.DisplayName,
	}, nil
}

// ETAFor computes the live estimate for one appointment.
func (s *Service) ETAFor(ctx context.Context, id uuid.UUID) (*ETA, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return nil, err
	}
	eta, err := s.etaFor(ctx, appt)
	if err != nil {
		return nil, err
	}
	return &eta, nil
}

func (s *Service) etaFor(ctx context.Context, appt *Appointment) (ETA, error) {
	day, err := s.store.ListDayAppointments(ctx, appt.DoctorID, appt.Date)
	if err != nil {
		return ETA{}, err
	}
	eta := ComputeETA(appt, day)
	s.metrics.ObserveDelay(eta.CurrentDelayMinutes)
	return eta, nil
}

// ScheduleRow is one dashboard line in a doctor's day view.
type ScheduleRow struct {
	Appointment *Appointment `json:"appointment"`
	ETA         ETA          `json:"eta"`
}

// DaySchedule is the doctor dashboard payload for one day.
type DaySchedule struct {
	DoctorID     uuid.UUID     `json:"doctor_id"`
	Date         string        `json:"date"`
	DelayMinutes int           `json:"delay_minutes"`
	Rows         []ScheduleRow `json:"rows"`
}

// Schedule returns the doctor's full day with per-appointment estimates and
// the doctor's running delay.
func (s *Service) Schedule(ctx context.Context, doctorID uuid.UUID, date time.Time) (*DaySchedule, error) {
	if _, err := s.store.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	day, err := s.store.ListDayAppointments(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	out := &DaySchedule{
		DoctorID:     doctorID,
		Date:         DateOnly(date).Format("2006-01-02"),
		DelayMinutes: EstimateDoctorDelay(day),
	}
	for _, appt := range day {
		out.Rows = append(out.Rows, ScheduleRow{Appointment: appt, ETA: ComputeETA(appt, day)})
	}
	return out, nil
}

// DoctorDelay reports how far behind the doctor is running on the given day.
func (s *Service) DoctorDelay(ctx context.Context, doctorID uuid.UUID, date time.Time) (int, error) {
	if _, err := s.store.GetDoctor(ctx, doctorID); err != nil {
		return 0, err
	}
	day, err := s.store.ListDayAppointments(ctx, doctorID, date)
	if err != nil {
		return 0, err
	}
	return EstimateDoctorDelay(day), nil
}

// Slots ranks the day's candidate booking slots for a doctor. Zero-valued
// option fields fall back to the service defaults.
func (s *Service) Slots(ctx context.Context, doctorID uuid.UUID, date time.Time, opts SlotOptions) (*SlotRecommendation, error) {
	if _, err := s.store.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	if opts.StartHour <= 0 {
		opts.StartHour = s.slotDefaults.StartHour
	}
	if opts.EndHour <= 0 {
		opts.EndHour = s.slotDefaults.EndHour
	}
	if opts.SlotMinutes <= 0 {
		opts.SlotMinutes = s.slotDefaults.SlotMinutes
	}
	day, err := s.store.ListDayAppointments(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	rec := RecommendSlots(day, opts)
	return &rec, nil
}

// CheckIn records that the patient announced arrival, or clears a mistaken
// check-in when arrived is false.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID, arrived bool) error {
	if arrived {
		return s.store.MarkArrived(ctx, id, s.now())
	}
	return s.store.ResetArrival(ctx, id, s.now())
}

// StartVisit transitions a scheduled appointment into the consult room.
func (s *Service) StartVisit(ctx context.Context, id uuid.UUID) error {
	if err := s.store.StartVisit(ctx, id, s.now()); err != nil {
		return err
	}
	s.logger.Info("scheduling: visit started", "appointment_id", id)
	return nil
}

// EndVisit completes a visit and best-effort schedules its follow-ups.
func (s *Service) EndVisit(ctx context.Context, id uuid.UUID) error {
	if err := s.store.EndVisit(ctx, id, s.now()); err != nil {
		return err
	}
	s.metrics.VisitCompleted()
	if s.followups != nil {
		if err := s.followups.Schedule(ctx, id); err != nil {
			s.logger.Error("scheduling: follow-up scheduling failed", "error", err, "appointment_id", id)
		}
	}
	s.logger.Info("scheduling: visit completed", "appointment_id", id)
	return nil
}

// Skip pushes an active appointment to the back of the doctor's queue for
// the day. Concurrent skips on the same doctor-day serialize on the Redis
// queue lock; when the lock is held this fails fast with ErrQueueBusy.
func (s *Service) Skip(ctx context.Context, id uuid.UUID) (TimeOfDay, error) {
	appt, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return 0, err
	}
	if !appt.Status.Active() {
		return 0, ErrInvalidState
	}

	release, err := s.lock.Acquire(ctx, appt.DoctorID, appt.Date)
	if err != nil {
		return 0, err
	}
	defer release()

	newTime, err := s.store.SkipAndRequeue(ctx, id)
	if err != nil {
		return 0, err
	}
	s.metrics.PatientSkipped()
	s.logger.Info("scheduling: patient skipped to queue tail",
		"appointment_id", id, "new_queue_time", newTime.String())
	return newTime, nil
}

// TodayAppointment returns the patient's earliest appointment today, or nil.
func (s *Service) TodayAppointment(ctx context.Context, patientID uuid.UUID) (*Appointment, error) {
	if _, err := s.store.GetPatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.store.FindPatientAppointmentOn(ctx, patientID, DateOnly(s.now()))
}

// LastDoctorForPatient returns the doctor the patient saw most recently.
func (s *Service) LastDoctorForPatient(ctx context.Context, patientID uuid.UUID) (uuid.UUID, error) {
	return s.store.LastDoctorForPatient(ctx, patientID)
}

// CreateDoctor registers a new doctor.
func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.Name == "" {
		return fmt.Errorf("scheduling: doctor name is required")
	}
	return s.store.CreateDoctor(ctx, d)
}

// GetDoctor fetches one doctor.
func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.store.GetDoctor(ctx, id)
}

// ListDoctors lists all doctors.
func (s *Service) ListDoctors(ctx context.Context) ([]Doctor, error) {
	return s.store.ListDoctors(ctx)
}

// CreatePatient registers a new patient.
func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.DisplayName == "" {
		return fmt.Errorf("scheduling: patient display name is required")
	}
	return s.store.CreatePatient(ctx, p)
}

// GetPatient fetches one patient.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.store.GetPatient(ctx, id)
}

// Preferences returns the doctor's stored preferences or defaults.
func (s *Service) Preferences(ctx context.Context, doctorID uuid.UUID) (*DoctorPreferences, error) {
	if _, err := s.store.GetDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.prefsOrDefault(ctx, doctorID)
}

// SetPreferences validates and stores the doctor's preferences.
func (s *Service) SetPreferences(ctx context.Context, p *DoctorPreferences) error {
	if _, err := s.store.GetDoctor(ctx, p.DoctorID); err != nil {
		return err
	}
	if s.prefs == nil {
		return fmt.Errorf("scheduling: preferences store not configured")
	}
	return s.prefs.Set(ctx, p)
}

func (s *Service) prefsOrDefault(ctx context.Context, doctorID uuid.UUID) (*DoctorPreferences, error) {
	if s.prefs == nil {
		return DefaultPreferences(doctorID), nil
	}
	return s.prefs.Get(ctx, doctorID)
}
