// Package support tracks human-review escalations raised from patient
// replies and manages their triage lifecycle.
package support

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

var escalationTracer = otel.Tracer("clinicq/escalation")

// EscalationStatus represents the triage state of an escalation.
type EscalationStatus string

const (
	StatusOpen       EscalationStatus = "open"
	StatusInProgress EscalationStatus = "in_progress"
	StatusResolved   EscalationStatus = "resolved"
)

// Escalation is one human-review case tied to an appointment.
type Escalation struct {
	ID             uuid.UUID        `json:"id"`
	AppointmentID  uuid.UUID        `json:"appointment_id"`
	Status         EscalationStatus `json:"status"`
	Notes          string           `json:"notes"`
	AcknowledgedBy string           `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time       `json:"acknowledged_at,omitempty"`
	ResolvedBy     string           `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time       `json:"resolved_at,omitempty"`
	Resolution     string           `json:"resolution,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

var (
	ErrEscalationNotFound = errors.New("support: escalation not found")
	ErrInvalidTransition  = errors.New("support: invalid escalation transition")
)

// EscalationService handles escalation creation and triage.
type EscalationService struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewEscalationService creates a new escalation service.
func NewEscalationService(db *sql.DB, logger *logging.Logger) *EscalationService {
	if logger == nil {
		logger = logging.Default()
	}
	return &EscalationService{db: db, logger: logger}
}

// CreateFromReply opens an escalation for an appointment whose patient reply
// needs human review.
func (s *EscalationService) CreateFromReply(ctx context.Context, appointmentID uuid.UUID, notes string) (uuid.UUID, error) {
	ctx, span := escalationTracer.Start(ctx, "escalation.create")
	defer span.End()
	span.SetAttributes(attribute.String("appointment.id", appointmentID.String()))

	now := time.Now().UTC()
	e := &Escalation{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		Status:        StatusOpen,
		Notes:         notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO escalations (id, appointment_id, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.AppointmentID, string(e.Status), e.Notes, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("support: create escalation: %w", err)
	}

	s.logger.Info("support: escalation opened", "id", e.ID, "appointment_id", appointmentID)
	return e.ID, nil
}

const escalationColumns = `id, appointment_id, status, notes, acknowledged_by, acknowledged_at,
		   resolved_by, resolved_at, resolution, created_at, updated_at`

// ListOpen returns unresolved escalations, oldest first.
func (s *EscalationService) ListOpen(ctx context.Context) ([]*Escalation, error) {
	ctx, span := escalationTracer.Start(ctx, "escalation.list_open")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+escalationColumns+`
		FROM escalations
		WHERE status != $1
		ORDER BY created_at ASC`, string(StatusResolved))
	if err != nil {
		return nil, fmt.Errorf("support: list open escalations: %w", err)
	}
	defer rows.Close()

	var result []*Escalation
	for rows.Next() {
		var e Escalation
		var status string
		var ackBy, resBy, resolution sql.NullString
		err := rows.Scan(
			&e.ID, &e.AppointmentID, &status, &e.Notes, &ackBy, &e.AcknowledgedAt,
			&resBy, &e.ResolvedAt, &resolution, &e.CreatedAt, &e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("support: scan escalation: %w", err)
		}
		e.Status = EscalationStatus(status)
		e.AcknowledgedBy = ackBy.String
		e.ResolvedBy = resBy.String
		e.Resolution = resolution.String
		result = append(result, &e)
	}
	return result, rows.Err()
}

// Acknowledge transitions an open escalation to in_progress.
func (s *EscalationService) Acknowledge(ctx context.Context, id uuid.UUID, staffMember string) error {
	ctx, span := escalationTracer.Start(ctx, "escalation.acknowledge")
	defer span.End()
	span.SetAttributes(attribute.String("escalation.id", id.String()))

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE escalations
		SET status = $1, acknowledged_by = $2, acknowledged_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5`,
		string(StatusInProgress), staffMember, now, id, string(StatusOpen))
	if err != nil {
		return fmt.Errorf("support: acknowledge escalation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrInvalidTransition
	}

	s.logger.Info("support: escalation acknowledged", "id", id, "by", staffMember)
	return nil
}

// Resolve closes an escalation with a resolution note. Already-resolved
// escalations are rejected.
func (s *EscalationService) Resolve(ctx context.Context, id uuid.UUID, staffMember, resolution string) error {
	ctx, span := escalationTracer.Start(ctx, "escalation.resolve")
	defer span.End()
	span.SetAttributes(attribute.String("escalation.id", id.String()))

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE escalations
		SET status = $1, resolved_by = $2, resolved_at = $3, resolution = $4, updated_at = $3
		WHERE id = $5 AND status != $1`,
		string(StatusResolved), staffMember, now, resolution, id)
	if err != nil {
		return fmt.Errorf("support: resolve escalation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrInvalidTransition
	}

	s.logger.Info("support: escalation resolved", "id", id, "by", staffMember)
	return nil
}
