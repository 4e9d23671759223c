// Package scheduling implements appointment booking, live queue/ETA
// estimation, slot recommendation, and the skip/requeue state machine.
package scheduling

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimeOfDay is a clock time expressed as minutes since midnight.
// It serializes as "HH:MM".
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM" clock string.
func ParseTimeOfDay(v string) (TimeOfDay, error) {
	if v == "" {
		return 0, fmt.Errorf("scheduling: empty clock")
	}
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, fmt.Errorf("scheduling: parse clock %q: %w", v, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// MustTimeOfDay parses an "HH:MM" clock string and panics on error.
// Intended for tests and constants.
func MustTimeOfDay(v string) TimeOfDay {
	t, err := ParseTimeOfDay(v)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	m := int(t) % (24 * 60)
	if m < 0 {
		m += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// AddMinutes returns the clock time m minutes later.
func (t TimeOfDay) AddMinutes(m int) TimeOfDay {
	return t + TimeOfDay(m)
}

// MarshalJSON renders the time as an "HH:MM" string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts an "HH:MM" string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// AppointmentStatus tracks the visit lifecycle of an appointment.
type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusInProgress AppointmentStatus = "in_progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusSkipped    AppointmentStatus = "skipped"
)

// Active reports whether the appointment still occupies future queue time.
func (s AppointmentStatus) Active() bool {
	return s == StatusScheduled || s == StatusInProgress
}

// Terminal reports whether no further visit transitions are allowed.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// ArrivalStatus tracks whether the patient showed up, independent of the
// visit lifecycle.
type ArrivalStatus string

const (
	ArrivalNotArrived ArrivalStatus = "not_arrived"
	ArrivalArrived    ArrivalStatus = "arrived"
	ArrivalSkipped    ArrivalStatus = "skipped"
)

// Doctor is a provider identity.
type Doctor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
	CreatedAt time.Time `json:"created_at"`
}

// Patient is a patient identity with a dashboard display name.
type Patient struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// DoctorPreferences holds per-doctor workday bounds and slot sizing.
type DoctorPreferences struct {
	DoctorID     uuid.UUID  `json:"doctor_id"`
	WorkdayStart TimeOfDay  `json:"workday_start"`
	WorkdayEnd   TimeOfDay  `json:"workday_end"`
	SlotMinutes  int        `json:"slot_minutes"`
	LunchStart   *TimeOfDay `json:"lunch_start,omitempty"`
	LunchEnd     *TimeOfDay `json:"lunch_end,omitempty"`
}

// DefaultPreferences returns the workday applied when a doctor has not
// configured one.
func DefaultPreferences(doctorID uuid.UUID) *DoctorPreferences {
	return &DoctorPreferences{
		DoctorID:     doctorID,
		WorkdayStart: TimeOfDay(9 * 60),
		WorkdayEnd:   TimeOfDay(17 * 60),
		SlotMinutes:  20,
	}
}

// Validate enforces workday and lunch-window invariants.
func (p *DoctorPreferences) Validate() error {
	if p.WorkdayStart >= p.WorkdayEnd {
		return fmt.Errorf("%w: workday start must precede workday end", ErrInvalidPreferences)
	}
	if p.SlotMinutes <= 0 {
		return fmt.Errorf("%w: slot minutes must be positive", ErrInvalidPreferences)
	}
	if (p.LunchStart == nil) != (p.LunchEnd == nil) {
		return fmt.Errorf("%w: lunch window requires both start and end", ErrInvalidPreferences)
	}
	if p.LunchStart != nil {
		if *p.LunchStart >= *p.LunchEnd {
			return fmt.Errorf("%w: lunch start must precede lunch end", ErrInvalidPreferences)
		}
		if *p.LunchStart < p.WorkdayStart || *p.LunchEnd > p.WorkdayEnd {
			return fmt.Errorf("%w: lunch window must fall within the workday", ErrInvalidPreferences)
		}
	}
	return nil
}

// Appointment is the central scheduling entity. ScheduledTime never changes
// after booking; CurrentTime is the authoritative queue-order key and only
// advances when the patient is skipped.
type Appointment struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	PatientID uuid.UUID `json:"patient_id"`

	Date          time.Time `json:"date"`
	ScheduledTime TimeOfDay `json:"scheduled_time"`
	CurrentTime   TimeOfDay `json:"current_time"`

	Status        AppointmentStatus `json:"status"`
	ArrivalStatus ArrivalStatus     `json:"arrival_status"`

	DoctorArrivalTime  *time.Time `json:"doctor_arrival_time,omitempty"`
	PatientArrivalTime *time.Time `json:"patient_arrival_time,omitempty"`
	VisitStartTime     *time.Time `json:"visit_start_time,omitempty"`
	VisitEndTime       *time.Time `json:"visit_end_time,omitempty"`

	SlotMinutes int `json:"slot_minutes"`

	PaymentLink string `json:"payment_link,omitempty"`
	EventID     string `json:"event_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScheduledInstant combines the appointment date with its original slot time.
func (a *Appointment) ScheduledInstant() time.Time {
	return ToInstant(a.Date, a.ScheduledTime)
}

// CurrentInstant combines the appointment date with its current queue time.
func (a *Appointment) CurrentInstant() time.Time {
	return ToInstant(a.Date, a.CurrentTime)
}

// ETA is the live queue estimate for one appointment.
type ETA struct {
	OriginalTime        TimeOfDay `json:"original_time"`
	ETATime             TimeOfDay `json:"eta_time"`
	CurrentDelayMinutes int       `json:"current_delay_minutes"`
	QueuePosition       int       `json:"queue_position"`
}
