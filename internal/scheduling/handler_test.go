package scheduling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	svc := NewService(ServiceOptions{Store: NewStore(mock)})
	r := chi.NewRouter()
	NewHandler(svc, nil).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, mock
}

func TestHandlerGetDoctorNotFound(t *testing.T) {
	srv, mock := newTestServer(t)
	id := uuid.New()

	mock.ExpectQuery("SELECT id, name, specialty, created_at FROM doctors").
		WithArgs(id).WillReturnError(pgx.ErrNoRows)

	resp, err := http.Get(srv.URL + "/doctors/" + id.String())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandlerGetDoctorBadID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/doctors/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandlerBookValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/appointments", "application/json",
		strings.NewReader(`{"date":"2026-03-10","scheduled_time":"09:00"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, err := http.Post(srv.URL+"/appointments", "application/json",
		strings.NewReader(`{"doctor_id":"`+uuid.NewString()+`","patient_id":"`+uuid.NewString()+`","date":"03/10/2026","scheduled_time":"09:00"}`))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestHandlerBookCreated(t *testing.T) {
	srv, mock := newTestServer(t)

	doctor := &Doctor{ID: uuid.New(), Name: "Dr. Medina", CreatedAt: time.Now()}
	patient := &Patient{ID: uuid.New(), DisplayName: "T. Walsh", CreatedAt: time.Now()}

	mock.ExpectQuery("SELECT id, name, specialty, created_at FROM doctors").
		WithArgs(doctor.ID).WillReturnRows(doctorRows(doctor))
	mock.ExpectQuery("SELECT id, display_name, created_at FROM patients").
		WithArgs(patient.ID).WillReturnRows(patientRows(patient))
	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(appointmentRows())

	body := `{"doctor_id":"` + doctor.ID.String() + `","patient_id":"` + patient.ID.String() +
		`","date":"2026-03-10","scheduled_time":"09:40","slot_minutes":20}`
	resp, err := http.Post(srv.URL+"/appointments", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result BookResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, MustTimeOfDay("09:40"), result.Appointment.ScheduledTime)
	assert.Equal(t, 1, result.ETA.QueuePosition)
}

func TestHandlerSkipConflict(t *testing.T) {
	srv, mock := newTestServer(t)
	a := newAppt("09:00", StatusCompleted)

	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id").
		WithArgs(a.ID).WillReturnRows(appointmentRows(a))

	resp, err := http.Post(srv.URL+"/appointments/"+a.ID.String()+"/skip", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandlerGetSlots(t *testing.T) {
	srv, mock := newTestServer(t)
	doctor := &Doctor{ID: uuid.New(), Name: "Dr. Ambrose", CreatedAt: time.Now()}

	mock.ExpectQuery("SELECT id, name, specialty, created_at FROM doctors").
		WithArgs(doctor.ID).WillReturnRows(doctorRows(doctor))
	mock.ExpectQuery("SELECT (.+) FROM appointments").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(appointmentRows())

	resp, err := http.Get(srv.URL + "/doctors/" + doctor.ID.String() + "/slots?date=2026-03-10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec SlotRecommendation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.Len(t, rec.Recommended, 3)
	assert.Len(t, rec.All, 12)
}

func TestHandlerCheckInArrived(t *testing.T) {
	srv, mock := newTestServer(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE appointments").
		WithArgs(pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	resp, err := http.Post(srv.URL+"/appointments/"+id.String()+"/arrive", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "arrived", body["status"])
}

func TestHandlerCheckInUndo(t *testing.T) {
	srv, mock := newTestServer(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE appointments").
		WithArgs(pgxmock.AnyArg(), id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	resp, err := http.Post(srv.URL+"/appointments/"+id.String()+"/arrive",
		"application/json", strings.NewReader(`{"arrived":false}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "not_arrived", body["status"])
}
