package followup

import (
	"context"
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

// Store provides CRUD operations for follow-up tasks and action items.
type Store struct {
	db DB
}

// NewStore creates a new follow-up store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

const taskColumns = `id, appointment_id, kind, channel, scheduled_at, message, executed, executed_at, created_at, updated_at`

// CreateTasks inserts a batch of tasks atomically.
func (s *Store) CreateTasks(ctx context.Context, tasks []*Task) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("followup: create tasks: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for _, t := range tasks {
		if t.ID == uuid.Nil {
			t.ID = uuid.New()
		}
		t.CreatedAt = now
		t.UpdatedAt = now
		_, err := tx.Exec(ctx, `
			INSERT INTO followup_tasks (id, appointment_id, kind, channel, scheduled_at, message, executed, executed_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			t.ID, t.AppointmentID, string(t.Kind), string(t.Channel), t.ScheduledAt,
			t.Message, t.Executed, t.ExecutedAt, t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("followup: create task: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("followup: create tasks: commit: %w", err)
	}
	return nil
}

// ListDue returns unexecuted tasks whose scheduled time has arrived, oldest
// first.
func (s *Store) ListDue(ctx context.Context, asOf time.Time, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+taskColumns+`
		FROM followup_tasks
		WHERE executed = false AND scheduled_at <= $1
		ORDER BY scheduled_at ASC LIMIT $2`, asOf, limit)
	if err != nil {
		return nil, fmt.Errorf("followup: list due: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// ListByAppointment returns an appointment's tasks in scheduled order.
func (s *Store) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]Task, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+taskColumns+`
		FROM followup_tasks
		WHERE appointment_id = $1
		ORDER BY scheduled_at ASC`, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("followup: list by appointment: %w", err)
	}
	defer rows.Close()
	return scanTasks(rows)
}

// Claim transitions a task executed=false → true and reports whether this
// caller won the transition. A false return with nil error means another
// sweep already owns the task.
func (s *Store) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, `
		UPDATE followup_tasks SET executed = true, executed_at = $1, updated_at = $1
		WHERE id = $2 AND executed = false`, now, id)
	if err != nil {
		return false, fmt.Errorf("followup: claim task: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CreateActionItem inserts one after-visit checklist entry.
func (s *Store) CreateActionItem(ctx context.Context, item *ActionItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.Status == "" {
		item.Status = ActionPending
	}
	item.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(ctx, `
		INSERT INTO action_items (id, appointment_id, title, description, status, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		item.ID, item.AppointmentID, item.Title, item.Description, string(item.Status),
		item.DueDate, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("followup: create action item: %w", err)
	}
	return nil
}

// ListActionItems returns an appointment's checklist, oldest first.
func (s *Store) ListActionItems(ctx context.Context, appointmentID uuid.UUID) ([]ActionItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, appointment_id, title, description, status, due_date, created_at
		FROM action_items
		WHERE appointment_id = $1
		ORDER BY created_at ASC`, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("followup: list action items: %w", err)
	}
	defer rows.Close()
	var result []ActionItem
	for rows.Next() {
		var item ActionItem
		var status string
		if err := rows.Scan(&item.ID, &item.AppointmentID, &item.Title, &item.Description, &status, &item.DueDate, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("followup: scan action item: %w", err)
		}
		item.Status = ActionItemStatus(status)
		result = append(result, item)
	}
	return result, rows.Err()
}

// CompleteActionItem marks a pending checklist entry done.
func (s *Store) CompleteActionItem(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE action_items SET status = 'done' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("followup: complete action item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrActionItemNotFound
	}
	return nil
}

func scanTasks(rows pgx.Rows) ([]Task, error) {
	var result []Task
	for rows.Next() {
		var t Task
		var kind, channel string
		err := rows.Scan(
			&t.ID, &t.AppointmentID, &kind, &channel, &t.ScheduledAt,
			&t.Message, &t.Executed, &t.ExecutedAt, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("followup: scan task: %w", err)
		}
		t.Kind = TaskKind(kind)
		t.Channel = Channel(channel)
		result = append(result, t)
	}
	return result, rows.Err()
}
