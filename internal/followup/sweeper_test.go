package followup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborhealth/clinic-queue-platform/internal/scheduling"
)

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
	fails int
}

func (f *fakeNotifier) Send(_ context.Context, channel, destination, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return errors.New("transport unavailable")
	}
	f.calls = append(f.calls, channel+"|"+destination)
	return nil
}

func taskRows(tasks ...Task) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "appointment_id", "kind", "channel", "scheduled_at", "message",
		"executed", "executed_at", "created_at", "updated_at",
	})
	for _, t := range tasks {
		rows.AddRow(t.ID, t.AppointmentID, string(t.Kind), string(t.Channel),
			t.ScheduledAt, t.Message, t.Executed, t.ExecutedAt, t.CreatedAt, t.UpdatedAt)
	}
	return rows
}

func dueTask(appointmentID uuid.UUID) Task {
	return Task{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		Kind:          KindReminder,
		Channel:       ChannelSMS,
		ScheduledAt:   time.Now().Add(-time.Hour),
		Message:       MessageFor(KindReminder),
	}
}

func newSweepFixture(t *testing.T, notifier *fakeNotifier) (*Sweeper, pgxmock.PgxPoolIface, *scheduling.Appointment, *scheduling.Patient) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	appt := testAppointment("10:00")
	patient := &scheduling.Patient{ID: appt.PatientID, DisplayName: "J. Okafor"}
	sweeper := NewSweeper(SweeperOptions{
		Store:        NewStore(mock),
		Appointments: &fakeAppointments{appts: map[uuid.UUID]*scheduling.Appointment{appt.ID: appt}},
		Patients:     &fakePatients{patients: map[uuid.UUID]*scheduling.Patient{patient.ID: patient}},
		Notifier:     notifier,
		Retries:      3,
	})
	return sweeper, mock, appt, patient
}

func TestProcessDueDispatchesAndClaims(t *testing.T) {
	notifier := &fakeNotifier{}
	sweeper, mock, appt, patient := newSweepFixture(t, notifier)
	task := dueTask(appt.ID)

	mock.ExpectQuery("SELECT (.+) FROM followup_tasks").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(taskRows(task))
	mock.ExpectExec("UPDATE followup_tasks SET executed = true").
		WithArgs(pgxmock.AnyArg(), task.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	sent, err := sweeper.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "sms|patient-"+patient.ID.String(), notifier.calls[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessDueLostClaimSkipsDispatch(t *testing.T) {
	// Two sweeps racing on the same due task: the one that loses the
	// conditional update must not send anything.
	notifier := &fakeNotifier{}
	sweeper, mock, appt, _ := newSweepFixture(t, notifier)
	task := dueTask(appt.ID)

	mock.ExpectQuery("SELECT (.+) FROM followup_tasks").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(taskRows(task))
	mock.ExpectExec("UPDATE followup_tasks SET executed = true").
		WithArgs(pgxmock.AnyArg(), task.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("SELECT (.+) FROM followup_tasks").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(taskRows(task))
	mock.ExpectExec("UPDATE followup_tasks SET executed = true").
		WithArgs(pgxmock.AnyArg(), task.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	sent, err := sweeper.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = sweeper.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	// Exactly one notifier call across both sweeps.
	assert.Len(t, notifier.calls, 1)
}

func TestProcessDueMissingAppointmentLeavesTaskUnclaimed(t *testing.T) {
	notifier := &fakeNotifier{}
	sweeper, mock, _, _ := newSweepFixture(t, notifier)
	task := dueTask(uuid.New())

	// Only the list query is expected; no claim, no dispatch.
	mock.ExpectQuery("SELECT (.+) FROM followup_tasks").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(taskRows(task))

	sent, err := sweeper.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Empty(t, notifier.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessDueRetriesTransientSendFailure(t *testing.T) {
	notifier := &fakeNotifier{fails: 2}
	sweeper, mock, appt, _ := newSweepFixture(t, notifier)
	task := dueTask(appt.ID)

	mock.ExpectQuery("SELECT (.+) FROM followup_tasks").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(taskRows(task))
	mock.ExpectExec("UPDATE followup_tasks SET executed = true").
		WithArgs(pgxmock.AnyArg(), task.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	sent, err := sweeper.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, notifier.calls, 1)
}

func TestProcessDueExhaustedRetriesDoNotAbortSweep(t *testing.T) {
	notifier := &fakeNotifier{fails: 3}
	sweeper, mock, appt, _ := newSweepFixture(t, notifier)
	failing := dueTask(appt.ID)
	healthy := dueTask(appt.ID)

	mock.ExpectQuery("SELECT (.+) FROM followup_tasks").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(taskRows(failing, healthy))
	mock.ExpectExec("UPDATE followup_tasks SET executed = true").
		WithArgs(pgxmock.AnyArg(), failing.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE followup_tasks SET executed = true").
		WithArgs(pgxmock.AnyArg(), healthy.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	sent, err := sweeper.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Len(t, notifier.calls, 1)
}

func TestProcessDueEmpty(t *testing.T) {
	notifier := &fakeNotifier{}
	sweeper, mock, _, _ := newSweepFixture(t, notifier)

	mock.ExpectQuery("SELECT (.+) FROM followup_tasks").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(taskRows())

	sent, err := sweeper.ProcessDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}
