package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend-fittrack/internal/db"
	"backend-fittrack/internal/motion"
	"backend-fittrack/internal/workout"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("workout not found")

// Repository persists finalized workout sessions.
type Repository struct {
	db db.Querier
}

func NewRepository(db db.Querier) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, s workout.Session) error {
	route, err := json.Marshal(routeOrEmpty(s.Route))
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO workout_sessions (id, user_id, distance_km, duration_ms, calories_kcal, average_pace_kmh, route, recorded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, s.ID.String(), s.UserID, s.DistanceKm, s.DurationMs, s.CaloriesKcal, s.AveragePaceKmh, route, s.RecordedAt)
	return err
}

func (r *Repository) Get(ctx context.Context, id string) (workout.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, distance_km, duration_ms, calories_kcal, average_pace_kmh, route, recorded_at
		FROM workout_sessions WHERE id=$1
	`, id)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return workout.Session{}, ErrNotFound
	}
	return s, err
}

// List returns sessions newest first. An empty userID lists every user.
func (r *Repository) List(ctx context.Context, userID string) ([]workout.Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, distance_km, duration_ms, calories_kcal, average_pace_kmh, route, recorded_at
		FROM workout_sessions
		WHERE ($1 = '' OR user_id = $1)
		ORDER BY recorded_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []workout.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (workout.Session, error) {
	var (
		s     workout.Session
		id    string
		route []byte
	)
	if err := row.Scan(&id, &s.UserID, &s.DistanceKm, &s.DurationMs, &s.CaloriesKcal, &s.AveragePaceKmh, &route, &s.RecordedAt); err != nil {
		return workout.Session{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return workout.Session{}, fmt.Errorf("workout id %q: %w", id, err)
	}
	s.ID = parsed

	s.Route = motion.Route{}
	if len(route) > 0 {
		if err := json.Unmarshal(route, &s.Route); err != nil {
			return workout.Session{}, fmt.Errorf("workout %s route: %w", id, err)
		}
	}
	return s, nil
}

func routeOrEmpty(r motion.Route) motion.Route {
	if r == nil {
		return motion.Route{}
	}
	return r
}
