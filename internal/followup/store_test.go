package followup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestStoreClaimOwnership(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := NewStore(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE followup_tasks SET executed = true").
		WithArgs(pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	claimed, err := store.Claim(context.Background(), id)
	if err != nil || !claimed {
		t.Fatalf("expected claim success, got claimed=%v err=%v", claimed, err)
	}

	mock.ExpectExec("UPDATE followup_tasks SET executed = true").
		WithArgs(pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	claimed, err = store.Claim(context.Background(), id)
	if err != nil || claimed {
		t.Fatalf("expected claim loss, got claimed=%v err=%v", claimed, err)
	}
}

func TestStoreCreateTasksAtomic(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := NewStore(mock)

	tasks := []*Task{
		{AppointmentID: uuid.New(), Kind: KindReminder, Channel: ChannelSMS, ScheduledAt: time.Now(), Message: "m1"},
		{AppointmentID: uuid.New(), Kind: KindCheckin, Channel: ChannelSMS, ScheduledAt: time.Now(), Message: "m2"},
	}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO followup_tasks").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO followup_tasks").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := store.CreateTasks(context.Background(), tasks); err != nil {
		t.Fatalf("create tasks: %v", err)
	}
	for _, task := range tasks {
		if task.ID == uuid.Nil {
			t.Fatal("expected generated id")
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestStoreCreateTasksRollsBackOnFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := NewStore(mock)

	tasks := []*Task{
		{AppointmentID: uuid.New(), Kind: KindReminder, Channel: ChannelSMS, ScheduledAt: time.Now(), Message: "m1"},
		{AppointmentID: uuid.New(), Kind: KindCheckin, Channel: ChannelSMS, ScheduledAt: time.Now(), Message: "m2"},
	}
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO followup_tasks").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO followup_tasks").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	if err := store.CreateTasks(context.Background(), tasks); err == nil {
		t.Fatal("expected error")
	}
}

func TestStoreCompleteActionItemNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := NewStore(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE action_items SET status = 'done'").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := store.CompleteActionItem(context.Background(), id); !errors.Is(err, ErrActionItemNotFound) {
		t.Fatalf("expected ErrActionItemNotFound, got %v", err)
	}
}

func TestStoreListDue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := NewStore(mock)

	task := dueTask(uuid.New())
	asOf := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM followup_tasks").
		WithArgs(asOf, 50).
		WillReturnRows(taskRows(task))

	tasks, err := store.ListDue(context.Background(), asOf, 0)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID || tasks[0].Kind != KindReminder {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestStoreCreateActionItemPersistsTitle(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()
	store := NewStore(mock)
	apptID := uuid.New()

	mock.ExpectExec("INSERT INTO action_items").
		WithArgs(pgxmock.AnyArg(), apptID, "Do blood test", "Fasting, before 10am", "pending", (*time.Time)(nil), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	item := &ActionItem{
		AppointmentID: apptID,
		Title:         "Do blood test",
		Description:   "Fasting, before 10am",
	}
	if err := store.CreateActionItem(context.Background(), item); err != nil {
		t.Fatalf("create action item: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
