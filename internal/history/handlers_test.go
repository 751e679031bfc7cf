package history

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func TestHistoryHandlers(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	app := fiber.New()
	RegisterRoutes(app.Group("/workouts"), NewRepository(mock))

	mock.ExpectQuery(`FROM workout_sessions`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(sessionColumns).
			AddRow(sessionID, "user-1", 5.0, int64(1_800_000), 350.0, 10.0, []byte(`[]`), time.Now()))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workouts/?user_id=user-1", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}

	mock.ExpectQuery(`FROM workout_sessions WHERE id`).
		WithArgs(sessionID).
		WillReturnRows(pgxmock.NewRows(sessionColumns).
			AddRow(sessionID, "user-1", 5.0, int64(1_800_000), 350.0, 10.0, []byte(`[]`), time.Now()))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/workouts/"+sessionID, nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("get status: %v", err)
	}
}

func TestHistoryHandlersNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`FROM workout_sessions WHERE id`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	app := fiber.New()
	RegisterRoutes(app.Group("/workouts"), NewRepository(mock))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workouts/missing", nil))
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found")
	}
}

func TestHistoryHandlersErrors(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	app := fiber.New()
	RegisterRoutes(app.Group("/workouts"), NewRepository(mock))

	mock.ExpectQuery(`FROM workout_sessions`).WithArgs("").WillReturnError(errHistory)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workouts/", nil))
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected list error")
	}

	mock.ExpectQuery(`FROM workout_sessions WHERE id`).WithArgs("bad").WillReturnError(errHistory)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/workouts/bad", nil))
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected get error")
	}
}
