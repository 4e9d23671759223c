package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store provides CRUD operations for doctors, patients, and appointments.
type Store struct {
	db DB
}

// NewStore creates a new scheduling store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const appointmentColumns = `id, doctor_id, patient_id, date, scheduled_time, queue_time, status, arrival_status,
		doctor_arrival_time, patient_arrival_time, visit_start_time, visit_end_time,
		slot_minutes, payment_link, event_id, created_at, updated_at`

// CreateDoctor inserts a new doctor.
func (s *Store) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(ctx, `
		INSERT INTO doctors (id, name, specialty, created_at)
		VALUES ($1, $2, $3, $4)`,
		d.ID, d.Name, d.Specialty, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("scheduling: create doctor: %w", err)
	}
	return nil
}

// GetDoctor fetches one doctor by id.
func (s *Store) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	var d Doctor
	err := s.db.QueryRow(ctx, `
		SELECT id, name, specialty, created_at FROM doctors WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Specialty, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scheduling: get doctor: %w", err)
	}
	return &d, nil
}

// ListDoctors returns all doctors in name order.
func (s *Store) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, specialty, created_at FROM doctors ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list doctors: %w", err)
	}
	defer rows.Close()
	var result []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scheduling: scan doctor: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// CreatePatient inserts a new patient.
func (s *Store) CreatePatient(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(ctx, `
		INSERT INTO patients (id, display_name, created_at)
		VALUES ($1, $2, $3)`,
		p.ID, p.DisplayName, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("scheduling: create patient: %w", err)
	}
	return nil
}

// GetPatient fetches one patient by id.
func (s *Store) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := s.db.QueryRow(ctx, `
		SELECT id, display_name, created_at FROM patients WHERE id = $1`, id).
		Scan(&p.ID, &p.DisplayName, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scheduling: get patient: %w", err)
	}
	return &p, nil
}

// CreateAppointment inserts a new appointment. The queue time starts equal to
// the scheduled time.
func (s *Store) CreateAppointment(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	if a.ArrivalStatus == "" {
		a.ArrivalStatus = ArrivalNotArrived
	}
	if a.SlotMinutes <= 0 {
		a.SlotMinutes = defaultSlotMinutes
	}
	if a.CurrentTime == 0 {
		a.CurrentTime = a.ScheduledTime
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO appointments (id, doctor_id, patient_id, date, scheduled_time, queue_time, status, arrival_status, slot_minutes, payment_link, event_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.DoctorID, a.PatientID, a.Date, int(a.ScheduledTime), int(a.CurrentTime),
		string(a.Status), string(a.ArrivalStatus), a.SlotMinutes, a.PaymentLink, a.EventID,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("scheduling: create appointment: %w", err)
	}
	return nil
}

// GetAppointment fetches one appointment by id.
func (s *Store) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scheduling: get appointment: %w", err)
	}
	return a, nil
}

// ListDayAppointments returns a doctor's appointments for one calendar day,
// ordered by queue time. Equal queue times keep booking order.
func (s *Store) ListDayAppointments(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1 AND date = $2
		ORDER BY queue_time ASC, scheduled_time ASC, created_at ASC, id ASC`,
		doctorID, DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("scheduling: list day appointments: %w", err)
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// FindPatientAppointmentOn returns the patient's earliest appointment on the
// given day, if any.
func (s *Store) FindPatientAppointmentOn(ctx context.Context, patientID uuid.UUID, date time.Time) (*Appointment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1 AND date = $2
		ORDER BY scheduled_time ASC LIMIT 1`,
		patientID, DateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("scheduling: find patient appointment: %w", err)
	}
	defer rows.Close()
	appts, err := scanAppointments(rows)
	if err != nil {
		return nil, err
	}
	if len(appts) == 0 {
		return nil, nil
	}
	return appts[0], nil
}

// LastDoctorForPatient returns the doctor of the patient's most recent
// appointment, or uuid.Nil when the patient has none.
func (s *Store) LastDoctorForPatient(ctx context.Context, patientID uuid.UUID) (uuid.UUID, error) {
	var doctorID uuid.UUID
	err := s.db.QueryRow(ctx, `
		SELECT doctor_id FROM appointments
		WHERE patient_id = $1
		ORDER BY date DESC, scheduled_time DESC LIMIT 1`, patientID).
		Scan(&doctorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("scheduling: last doctor for patient: %w", err)
	}
	return doctorID, nil
}

// AttachBookingExtras records the payment link and calendar event produced
// during booking.
func (s *Store) AttachBookingExtras(ctx context.Context, id uuid.UUID, paymentLink, eventID string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE appointments SET payment_link = $1, event_id = $2, updated_at = $3
		WHERE id = $4`,
		paymentLink, eventID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("scheduling: attach booking extras: %w", err)
	}
	return nil
}

// MarkArrived records patient arrival. The arrival timestamp is set once;
// re-announcing arrival is a no-op on the timestamp.
func (s *Store) MarkArrived(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET arrival_status = 'arrived', patient_arrival_time = COALESCE(patient_arrival_time, $1), updated_at = $1
		WHERE id = $2`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("scheduling: mark arrived: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// ResetArrival undoes a check-in. The original arrival timestamp is kept for
// auditing; only the status flips back.
func (s *Store) ResetArrival(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET arrival_status = 'not_arrived', updated_at = $1
		WHERE id = $2`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("scheduling: reset arrival: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// StartVisit transitions scheduled → in_progress and stamps the visit start.
func (s *Store) StartVisit(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET status = 'in_progress',
		    visit_start_time = COALESCE(visit_start_time, $1),
		    doctor_arrival_time = COALESCE(doctor_arrival_time, $1),
		    updated_at = $1
		WHERE id = $2 AND status = 'scheduled'`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("scheduling: start visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.stateError(ctx, id)
	}
	return nil
}

// EndVisit transitions in_progress → completed and stamps the visit end.
func (s *Store) EndVisit(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointments
		SET status = 'completed',
		    visit_end_time = COALESCE(visit_end_time, $1),
		    updated_at = $1
		WHERE id = $2 AND status = 'in_progress'`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("scheduling: end visit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.stateError(ctx, id)
	}
	return nil
}

// stateError distinguishes a missing appointment from one in the wrong
// status after a conditional update touched no rows.
func (s *Store) stateError(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetAppointment(ctx, id); err != nil {
		return err
	}
	return ErrInvalidState
}

// SkipAndRequeue marks the appointment skipped and moves its queue time past
// the day's current tail, all in one transaction. The caller must hold the
// doctor-day queue lock. Returns the new queue time.
func (s *Store) SkipAndRequeue(ctx context.Context, id uuid.UUID) (TimeOfDay, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("scheduling: skip: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments WHERE id = $1 FOR UPDATE`, id)
	appt, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrAppointmentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("scheduling: skip: load: %w", err)
	}
	if !appt.Status.Active() {
		return 0, ErrInvalidState
	}

	var tail int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(queue_time), 0) FROM appointments
		WHERE doctor_id = $1 AND date = $2`,
		appt.DoctorID, DateOnly(appt.Date)).Scan(&tail)
	if err != nil {
		return 0, fmt.Errorf("scheduling: skip: tail: %w", err)
	}

	slot := appt.SlotMinutes
	if slot <= 0 {
		slot = defaultSlotMinutes
	}
	newTime := TimeOfDay(tail + slot)

	_, err = tx.Exec(ctx, `
		UPDATE appointments
		SET status = 'skipped', arrival_status = 'skipped', queue_time = $1, updated_at = $2
		WHERE id = $3`,
		int(newTime), time.Now().UTC(), id)
	if err != nil {
		return 0, fmt.Errorf("scheduling: skip: requeue: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("scheduling: skip: commit: %w", err)
	}
	return newTime, nil
}

func scanAppointments(rows pgx.Rows) ([]*Appointment, error) {
	var result []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scheduling: scan appointment: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var scheduled, queued int
	var status, arrival string
	err := row.Scan(
		&a.ID, &a.DoctorID, &a.PatientID, &a.Date, &scheduled, &queued, &status, &arrival,
		&a.DoctorArrivalTime, &a.PatientArrivalTime, &a.VisitStartTime, &a.VisitEndTime,
		&a.SlotMinutes, &a.PaymentLink, &a.EventID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ScheduledTime = TimeOfDay(scheduled)
	a.CurrentTime = TimeOfDay(queued)
	a.Status = AppointmentStatus(status)
	a.ArrivalStatus = ArrivalStatus(arrival)
	return &a, nil
}
