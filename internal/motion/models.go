package motion

// RawFix is a single location reading as delivered by the device.
type RawFix struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	AccuracyM   float32 `json:"accuracy_m"`
	TimestampMs int64   `json:"timestamp_ms"`
}

func (f RawFix) Point() GeoPoint {
	return GeoPoint{Lat: f.Lat, Lng: f.Lng}
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Route holds accepted positions in the order they were accepted.
type Route []GeoPoint

func (r Route) Last() (GeoPoint, bool) {
	if len(r) == 0 {
		return GeoPoint{}, false
	}
	return r[len(r)-1], true
}

func (r Route) Clone() Route {
	if r == nil {
		return Route{}
	}
	out := make(Route, len(r))
	copy(out, r)
	return out
}

type Reason string

const (
	ReasonNone             Reason = ""
	ReasonPoorAccuracy     Reason = "poor_accuracy"
	ReasonNoMovement       Reason = "no_movement"
	ReasonTimestampAnomaly Reason = "timestamp_anomaly"
)

// Decision describes what Ingest did with a fix.
type Decision struct {
	Accepted  bool    `json:"accepted"`
	Reason    Reason  `json:"reason,omitempty"`
	FirstFix  bool    `json:"first_fix,omitempty"`
	Appended  bool    `json:"appended"`
	DeltaKm   float64 `json:"delta_km"`
	Moving    bool    `json:"moving"`
	DistanceM float64 `json:"distance_m"`
	SpeedMps  float64 `json:"speed_mps"`
}

// FilterState is a consistent copy of the filter's aggregates.
type FilterState struct {
	DistanceKm   float64   `json:"distance_km"`
	Route        Route     `json:"route"`
	Moving       bool      `json:"moving"`
	Position     *GeoPoint `json:"position,omitempty"`
	LastUpdateMs int64     `json:"last_update_ms"`
}

// Config holds the thresholds used to tell movement from GPS noise.
type Config struct {
	MaxAccuracyM   float32 // fixes less accurate than this are not trusted
	MinDistanceM   float64 // movement threshold between consecutive fixes
	MinSpeedMps    float64 // below this the fix is stationary jitter
	MaxSpeedMps    float64 // above this the fix is a GPS spike
	RouteSpacingKm float64 // minimum gap between stored route points
}

func DefaultConfig() Config {
	return Config{
		MaxAccuracyM:   20,
		MinDistanceM:   1,
		MinSpeedMps:    0.3,   // ~1 km/h
		MaxSpeedMps:    8,     // ~29 km/h
		RouteSpacingKm: 0.001, // the 1m movement threshold in km
	}
}
