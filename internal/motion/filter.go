package motion

import (
	"sync"

	"backend-fittrack/internal/shared/geo"

	"go.uber.org/zap"
)

// Filter turns a noisy fix stream into a route and a cumulative distance.
// It is safe for concurrent use; every Ingest and every read is atomic
// with respect to the others.
type Filter struct {
	cfg    Config
	logger *zap.Logger

	mu           sync.Mutex
	lastValid    *RawFix
	lastUpdateMs int64
	moving       bool
	position     *GeoPoint
	route        Route
	distanceKm   float64
}

func NewFilter(cfg Config, logger *zap.Logger) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Filter{cfg: cfg, logger: logger, route: Route{}}
}

func (f *Filter) Ingest(fix RawFix) Decision {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := fix.Point()
	f.position = &p

	if fix.AccuracyM > f.cfg.MaxAccuracyM {
		f.moving = false
		f.lastUpdateMs = fix.TimestampMs
		f.logger.Debug("fix rejected",
			zap.String("reason", string(ReasonPoorAccuracy)),
			zap.Float32("accuracy_m", fix.AccuracyM),
		)
		return Decision{Reason: ReasonPoorAccuracy}
	}

	if f.lastValid == nil {
		stored := fix
		f.lastValid = &stored
		f.lastUpdateMs = fix.TimestampMs
		f.moving = false
		appended := false
		if len(f.route) == 0 {
			f.route = append(f.route, p)
			appended = true
		}
		return Decision{Accepted: true, FirstFix: true, Appended: appended}
	}

	distanceM := geo.HaversineMeters(f.lastValid.Lat, f.lastValid.Lng, fix.Lat, fix.Lng)
	gapMs := fix.TimestampMs - f.lastUpdateMs
	speed := 0.0
	if gapMs > 0 {
		speed = distanceM * 1000 / float64(gapMs)
	}

	f.moving = distanceM > f.cfg.MinDistanceM &&
		speed < f.cfg.MaxSpeedMps &&
		speed > f.cfg.MinSpeedMps

	decision := Decision{
		Accepted:  f.moving,
		Moving:    f.moving,
		DistanceM: distanceM,
		SpeedMps:  speed,
	}

	if f.moving {
		decision.Appended, decision.DeltaKm = f.extendRoute(p)
	} else {
		decision.Reason = ReasonNoMovement
		if gapMs <= 0 {
			decision.Reason = ReasonTimestampAnomaly
		}
		f.logger.Debug("fix rejected",
			zap.String("reason", string(decision.Reason)),
			zap.Float64("distance_m", distanceM),
			zap.Float64("speed_mps", speed),
			zap.Int64("gap_ms", gapMs),
		)
	}

	stored := fix
	f.lastValid = &stored
	f.lastUpdateMs = fix.TimestampMs
	return decision
}

// extendRoute appends p when it is far enough from the last route point and
// returns the distance added. Must be called with mu held.
func (f *Filter) extendRoute(p GeoPoint) (bool, float64) {
	last, ok := f.route.Last()
	if !ok {
		f.route = append(f.route, p)
		return true, 0
	}

	deltaKm := geo.HaversineKm(last.Lat, last.Lng, p.Lat, p.Lng)
	if deltaKm <= f.cfg.RouteSpacingKm {
		return false, 0
	}
	f.route = append(f.route, p)
	f.distanceKm += deltaKm
	f.logger.Debug("route extended",
		zap.Float64("delta_km", deltaKm),
		zap.Float64("total_km", f.distanceKm),
	)
	return true, deltaKm
}

// Totals returns the distance and a copy of the route from the same instant.
func (f *Filter) Totals() (float64, Route) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.distanceKm, f.route.Clone()
}

func (f *Filter) State() FilterState {
	f.mu.Lock()
	defer f.mu.Unlock()

	state := FilterState{
		DistanceKm:   f.distanceKm,
		Route:        f.route.Clone(),
		Moving:       f.moving,
		LastUpdateMs: f.lastUpdateMs,
	}
	if f.position != nil {
		p := *f.position
		state.Position = &p
	}
	return state
}

func (f *Filter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastValid = nil
	f.lastUpdateMs = 0
	f.moving = false
	f.position = nil
	f.route = Route{}
	f.distanceKm = 0
}
