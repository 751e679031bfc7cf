package tracking

import (
	"backend-fittrack/internal/motion"
	"backend-fittrack/internal/workout"
)

type StartRequest struct {
	UserID string `json:"user_id"`
}

// FixRequest is a location fix as posted by a device. A zero timestamp is
// replaced by the server time on arrival.
type FixRequest struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	AccuracyM   float32 `json:"accuracy_m"`
	TimestampMs int64   `json:"timestamp_ms"`
}

func (r FixRequest) RawFix() motion.RawFix {
	return motion.RawFix{Lat: r.Lat, Lng: r.Lng, AccuracyM: r.AccuracyM, TimestampMs: r.TimestampMs}
}

// View is the response body of every session endpoint.
type View struct {
	Outcome  workout.Outcome  `json:"outcome,omitempty"`
	Snapshot workout.Snapshot `json:"snapshot"`
	Display  workout.Display  `json:"display"`
}

func newView(out workout.Outcome, s workout.Snapshot) View {
	return View{Outcome: out, Snapshot: s, Display: s.Display()}
}

type FixResult struct {
	Consumed bool            `json:"consumed"`
	Decision motion.Decision `json:"decision"`
	View
}

type FinishResult struct {
	Session *workout.Session `json:"session,omitempty"`
	View
}
