package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/harborhealth/clinic-queue-platform/internal/scheduling"
	"github.com/harborhealth/clinic-queue-platform/internal/support"
	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

func newStubSupportHandler(t *testing.T, logger *logging.Logger) *support.Handler {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return support.NewHandler(support.NewEscalationService(db, logger), logger)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)

	logger := logging.Default()
	svc := scheduling.NewService(scheduling.ServiceOptions{
		Store:  scheduling.NewStore(mock),
		Logger: logger,
	})

	cfg := &Config{
		Logger:            logger,
		SchedulingHandler: scheduling.NewHandler(svc, logger),
		SupportHandler:    nil,
		AdminAuthSecret:   "secret",
	}

	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestRouterSchedulingMounted(t *testing.T) {
	router := newTestRouter(t)

	// Invalid UUID short-circuits before touching the database.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/not-a-uuid", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestRouterAdminRequiresToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)

	logger := logging.Default()
	svc := scheduling.NewService(scheduling.ServiceOptions{
		Store:  scheduling.NewStore(mock),
		Logger: logger,
	})
	router := New(&Config{
		Logger:            logger,
		SchedulingHandler: scheduling.NewHandler(svc, logger),
		SupportHandler:    newStubSupportHandler(t, logger),
		AdminAuthSecret:   "secret",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/escalations", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}
