package workout

import (
	"time"

	"backend-fittrack/internal/motion"

	"github.com/google/uuid"
)

// Snapshot is a point-in-time view of a tracked workout.
type Snapshot struct {
	SessionID    string           `json:"session_id"`
	State        State            `json:"state"`
	DistanceKm   float64          `json:"distance_km"`
	DurationMs   int64            `json:"duration_ms"`
	CaloriesKcal float64          `json:"calories_kcal"`
	PaceKmh      float64          `json:"pace_kmh"`
	Route        motion.Route     `json:"route"`
	Position     *motion.GeoPoint `json:"position,omitempty"`
	IsTracking   bool             `json:"is_tracking"`
	Moving       bool             `json:"moving"`
	TakenAt      time.Time        `json:"taken_at"`
}

func (s Snapshot) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}

// Display holds the human readable renditions of a snapshot.
type Display struct {
	Duration string `json:"duration"`
	Distance string `json:"distance"`
	Calories string `json:"calories"`
	Pace     string `json:"pace"`
}

func (s Snapshot) Display() Display {
	return Display{
		Duration: FormatDuration(s.Duration()),
		Distance: FormatDistance(s.DistanceKm),
		Calories: FormatCalories(s.CaloriesKcal),
		Pace:     FormatPace(s.PaceKmh),
	}
}

// Session is the finalized record of a finished workout.
type Session struct {
	ID             uuid.UUID    `json:"id"`
	UserID         string       `json:"user_id"`
	DistanceKm     float64      `json:"distance_km"`
	DurationMs     int64        `json:"duration_ms"`
	CaloriesKcal   float64      `json:"calories_kcal"`
	Route          motion.Route `json:"route"`
	AveragePaceKmh float64      `json:"average_pace_kmh"`
	RecordedAt     time.Time    `json:"recorded_at"`
}

// FixHandler receives fixes from a FixSource and reports whether the fix was
// consumed.
type FixHandler func(motion.RawFix) (motion.Decision, bool)

// FixSource delivers location fixes asynchronously. Implementations must not
// hold their own locks while invoking the handler.
type FixSource interface {
	Subscribe(FixHandler)
	Unsubscribe()
}

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

type IDGenerator func() uuid.UUID

// Publisher receives the snapshots a controller emits, in order, from a
// single goroutine that never holds the controller lock. Close waits for a
// call in flight to return.
type Publisher func(Snapshot)
