// Package followup schedules and dispatches post-visit patient outreach:
// appointment reminders, recovery check-ins, reply triage, and the action
// items shown after a visit.
package followup

import (
	"time"

	"github.com/google/uuid"
)

// TaskKind distinguishes the two outreach messages per appointment.
type TaskKind string

const (
	KindReminder TaskKind = "reminder"
	KindCheckin  TaskKind = "checkin"
)

// Channel selects the notification transport.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelVoice Channel = "voice"
)

// Task is one pending or executed outreach message. Message text is
// composed at scheduling time so dispatch needs no template state.
type Task struct {
	ID            uuid.UUID  `json:"id"`
	AppointmentID uuid.UUID  `json:"appointment_id"`
	Kind          TaskKind   `json:"kind"`
	Channel       Channel    `json:"channel"`
	ScheduledAt   time.Time  `json:"scheduled_at"`
	Message       string     `json:"message"`
	Executed      bool       `json:"executed"`
	ExecutedAt    *time.Time `json:"executed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ReplyLabel is the triage outcome for a patient's free-text reply.
type ReplyLabel string

const (
	ReplyOK              ReplyLabel = "OK"
	ReplyNeedReschedule  ReplyLabel = "NEED_RESCHEDULE"
	ReplyNeedHumanReview ReplyLabel = "NEED_HUMAN_REVIEW"
)

// ActionItemStatus tracks completion of an after-visit task.
type ActionItemStatus string

const (
	ActionPending ActionItemStatus = "pending"
	ActionDone    ActionItemStatus = "done"
)

// ActionItem is one line on the patient's after-visit checklist, such as
// "Do blood test" or "Take medication 3x per day".
type ActionItem struct {
	ID            uuid.UUID        `json:"id"`
	AppointmentID uuid.UUID        `json:"appointment_id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Status        ActionItemStatus `json:"status"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}
