package followup

import (
	"context"

	"github.com/google/uuid"

	"github.com/harborhealth/clinic-queue-platform/internal/observability/metrics"
	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// Redactor strips PII/PHI from free text before it reaches the classifier.
type Redactor interface {
	Redact(ctx context.Context, text string) string
}

// EscalationCreator opens a human-review case for an appointment.
type EscalationCreator interface {
	CreateFromReply(ctx context.Context, appointmentID uuid.UUID, notes string) (uuid.UUID, error)
}

// ReplyOutcome tells the caller what happened with a patient reply.
type ReplyOutcome struct {
	Status       string     `json:"status"`
	Label        ReplyLabel `json:"label"`
	EscalationID *uuid.UUID `json:"escalation_id,omitempty"`
}

const escalationNote = "Auto-created from patient reply classified as NEED_HUMAN_REVIEW"

// ReplyPipeline triages inbound patient replies: redact, classify, and
// escalate the worrying ones to a human.
type ReplyPipeline struct {
	appointments AppointmentSource
	redactor     Redactor
	classifier   ReplyClassifier
	escalations  EscalationCreator
	logger       *logging.Logger
	metrics      *metrics.FollowUpMetrics
}

// NewReplyPipeline creates a reply triage pipeline.
func NewReplyPipeline(appointments AppointmentSource, redactor Redactor, classifier ReplyClassifier, escalations EscalationCreator, logger *logging.Logger, m *metrics.FollowUpMetrics) *ReplyPipeline {
	if logger == nil {
		logger = logging.Default()
	}
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	return &ReplyPipeline{
		appointments: appointments,
		redactor:     redactor,
		classifier:   classifier,
		escalations:  escalations,
		logger:       logger,
		metrics:      m,
	}
}

// ProcessReply classifies a patient's reply to a follow-up message. Only a
// NEED_HUMAN_REVIEW label opens an escalation; NEED_RESCHEDULE is signalled
// back to the caller without side effects.
func (p *ReplyPipeline) ProcessReply(ctx context.Context, appointmentID uuid.UUID, text string) (*ReplyOutcome, error) {
	if _, err := p.appointments.GetAppointment(ctx, appointmentID); err != nil {
		return nil, err
	}

	safe := text
	if p.redactor != nil {
		safe = p.redactor.Redact(ctx, text)
	}
	label := p.classifier.Classify(ctx, safe)
	p.metrics.ReplyClassified(string(label))

	switch label {
	case ReplyNeedHumanReview:
		id, err := p.escalations.CreateFromReply(ctx, appointmentID, escalationNote)
		if err != nil {
			return nil, err
		}
		p.logger.Info("followup: reply escalated", "appointment_id", appointmentID, "escalation_id", id)
		return &ReplyOutcome{Status: "escalated", Label: label, EscalationID: &id}, nil
	case ReplyNeedReschedule:
		return &ReplyOutcome{Status: "needs_reschedule", Label: label}, nil
	default:
		return &ReplyOutcome{Status: "ok", Label: label}, nil
	}
}
