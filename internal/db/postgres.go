package db

import (
	"context"
	"time"

	"backend-fittrack/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	newPoolFn  = pgxpool.New
	pingPoolFn = func(ctx context.Context, pool *pgxpool.Pool) error { return pool.Ping(ctx) }
)

func ConnectPostgres(cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := newPoolFn(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	if err := pingPoolFn(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS workout_sessions (
	id               UUID PRIMARY KEY,
	user_id          TEXT NOT NULL,
	distance_km      DOUBLE PRECISION NOT NULL DEFAULT 0,
	duration_ms      BIGINT NOT NULL DEFAULT 0,
	calories_kcal    DOUBLE PRECISION NOT NULL DEFAULT 0,
	average_pace_kmh DOUBLE PRECISION NOT NULL DEFAULT 0,
	route            JSONB NOT NULL DEFAULT '[]',
	recorded_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS workout_sessions_user_recorded_idx
	ON workout_sessions (user_id, recorded_at DESC);
`

// Migrate creates the tables the service writes to.
func Migrate(ctx context.Context, q Querier) error {
	_, err := q.Exec(ctx, schema)
	return err
}
