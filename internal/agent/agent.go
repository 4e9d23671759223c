// Package agent answers free-text patient messages with rule-based intents
// backed by the scheduling engine.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harborhealth/clinic-queue-platform/internal/scheduling"
	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// Intent names returned to the client.
const (
	IntentTodayAppointment = "GET_TODAY_APPOINTMENT"
	IntentRecommendSlots   = "RECOMMEND_SLOTS"
	IntentReschedule       = "RESCHEDULE"
	IntentUnknown          = "UNKNOWN"
)

// SchedulingAPI is the slice of the scheduling service the agent needs.
type SchedulingAPI interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*scheduling.Patient, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*scheduling.Doctor, error)
	ListDoctors(ctx context.Context) ([]scheduling.Doctor, error)
	TodayAppointment(ctx context.Context, patientID uuid.UUID) (*scheduling.Appointment, error)
	ETAFor(ctx context.Context, id uuid.UUID) (*scheduling.ETA, error)
	LastDoctorForPatient(ctx context.Context, patientID uuid.UUID) (uuid.UUID, error)
	Slots(ctx context.Context, doctorID uuid.UUID, date time.Time, opts scheduling.SlotOptions) (*scheduling.SlotRecommendation, error)
}

// Response is the agent's answer: a detected intent plus intent-specific
// payload.
type Response struct {
	Intent string         `json:"intent"`
	Data   map[string]any `json:"data"`
}

var (
	timeWords       = []string{"when", "what time", "hour", "time"}
	bookingWords    = []string{"book", "schedule", "appointment"}
	rescheduleWords = []string{"change", "reschedule", "another time", "different time"}
)

// Agent is a rule-based message handler.
type Agent struct {
	scheduling SchedulingAPI
	logger     *logging.Logger
	now        func() time.Time
}

// New creates an agent.
func New(api SchedulingAPI, logger *logging.Logger) *Agent {
	if logger == nil {
		logger = logging.Default()
	}
	return &Agent{
		scheduling: api,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// HandleMessage detects the patient's intent and answers from live
// scheduling data. Intents are checked in order: today's appointment,
// booking, reschedule, fallback.
func (a *Agent) HandleMessage(ctx context.Context, patientID uuid.UUID, message string) (*Response, error) {
	patient, err := a.scheduling.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	text := strings.ToLower(message)

	if containsAny(text, timeWords) && strings.Contains(text, "appointment") {
		return a.todayAppointment(ctx, patient)
	}
	if containsAny(text, bookingWords) {
		return a.recommendSlots(ctx, patient)
	}
	if containsAny(text, rescheduleWords) {
		return &Response{
			Intent: IntentReschedule,
			Data: map[string]any{
				"message": "It looks like you want to reschedule. A human assistant will review your request.",
			},
		}, nil
	}
	return &Response{
		Intent: IntentUnknown,
		Data:   map[string]any{"message": "I'm not sure how to help with that yet."},
	}, nil
}

func (a *Agent) todayAppointment(ctx context.Context, patient *scheduling.Patient) (*Response, error) {
	appt, err := a.scheduling.TodayAppointment(ctx, patient.ID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return &Response{
			Intent: IntentTodayAppointment,
			Data:   map[string]any{"message": "You don't seem to have an appointment today."},
		}, nil
	}
	eta, err := a.scheduling.ETAFor(ctx, appt.ID)
	if err != nil {
		return nil, err
	}
	return &Response{
		Intent: IntentTodayAppointment,
		Data: map[string]any{
			"scheduled_time": appt.ScheduledTime.String(),
			"eta":            eta,
		},
	}, nil
}

func (a *Agent) recommendSlots(ctx context.Context, patient *scheduling.Patient) (*Response, error) {
	doctorID, err := a.scheduling.LastDoctorForPatient(ctx, patient.ID)
	if err != nil {
		return nil, err
	}
	var doctor *scheduling.Doctor
	if doctorID != uuid.Nil {
		doctor, err = a.scheduling.GetDoctor(ctx, doctorID)
		if err != nil {
			return nil, err
		}
	} else {
		// New patient: fall back to any configured doctor.
		doctors, err := a.scheduling.ListDoctors(ctx)
		if err != nil {
			return nil, err
		}
		if len(doctors) == 0 {
			return nil, fmt.Errorf("agent: no doctors configured")
		}
		doctor = &doctors[0]
	}

	tomorrow := a.now().AddDate(0, 0, 1)
	slots, err := a.scheduling.Slots(ctx, doctor.ID, tomorrow, scheduling.SlotOptions{})
	if err != nil {
		return nil, err
	}
	return &Response{
		Intent: IntentRecommendSlots,
		Data: map[string]any{
			"doctor_id":   doctor.ID,
			"doctor_name": doctor.Name,
			"day":         scheduling.DateOnly(tomorrow).Format("2006-01-02"),
			"recommended": slots.Recommended,
			"all_slots":   slots.All,
		},
	}, nil
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
