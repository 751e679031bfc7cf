package workout

import (
	"context"
	"sync"
	"time"

	"backend-fittrack/internal/energy"
	"backend-fittrack/internal/motion"
	"backend-fittrack/internal/profile"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultInterval = time.Second

type Options struct {
	SessionID string
	Profile   profile.UserProfile
	Motion    motion.Config
	Interval  time.Duration
	Source    FixSource
	Publish   Publisher
	Clock     Clock
	NewID     IDGenerator
	Logger    *zap.Logger
}

// Controller owns the lifecycle of one tracked workout. It feeds fixes into a
// motion.Filter while active and samples the aggregates once per interval.
type Controller struct {
	id       string
	profile  profile.UserProfile
	filter   *motion.Filter
	interval time.Duration
	source   FixSource
	publish  Publisher
	clock    Clock
	newID    IDGenerator
	logger   *zap.Logger

	mu          sync.Mutex
	state       State
	startedAt   time.Time
	accumulated time.Duration
	final       *Session
	closed      bool
	cancel      context.CancelFunc
	samplerDone chan struct{}

	// outbox holds snapshots not yet handed to publish. It is drained by
	// the deliver goroutine so that publish never runs with mu held.
	outbox    []Snapshot
	wake      chan struct{}
	quit      chan struct{}
	deliverWG sync.WaitGroup
}

// maxOutbox bounds the snapshots queued for a slow publisher; the oldest
// are dropped first.
const maxOutbox = 64

func NewController(opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = ClockFunc(time.Now)
	}
	if opts.NewID == nil {
		opts.NewID = uuid.New
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Motion == (motion.Config{}) {
		opts.Motion = motion.DefaultConfig()
	}
	if opts.Profile.WeightKg <= 0 {
		opts.Profile.WeightKg = profile.DefaultWeightKg
	}

	logger := opts.Logger.With(zap.String("session_id", opts.SessionID))
	c := &Controller{
		id:       opts.SessionID,
		profile:  opts.Profile,
		filter:   motion.NewFilter(opts.Motion, logger),
		interval: opts.Interval,
		source:   opts.Source,
		publish:  opts.Publish,
		clock:    opts.Clock,
		newID:    opts.NewID,
		logger:   logger,
		state:    StateIdle,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}
	if c.publish != nil {
		c.deliverWG.Add(1)
		go c.deliver()
	}
	return c
}

func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins a fresh workout from Idle, or resumes a paused one.
func (c *Controller) Start() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.state.CanTransitionTo(StateActive) {
		return c.noopLocked("start")
	}
	if c.state == StatePaused {
		return c.resumeLocked()
	}

	c.filter.Reset()
	c.accumulated = 0
	c.final = nil
	c.activateLocked()
	c.logger.Info("workout started")
	return OutcomeApplied
}

// Resume continues a paused workout, keeping its route, distance and
// accumulated duration.
func (c *Controller) Resume() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state != StatePaused {
		return c.noopLocked("resume")
	}
	return c.resumeLocked()
}

func (c *Controller) resumeLocked() Outcome {
	if c.final != nil || !c.state.CanTransitionTo(StateActive) {
		return c.noopLocked("resume")
	}
	c.activateLocked()
	c.logger.Info("workout resumed", zap.Duration("accumulated", c.accumulated))
	return OutcomeApplied
}

func (c *Controller) activateLocked() {
	c.startedAt = c.clock.Now()
	c.state = StateActive
	if c.source != nil {
		c.source.Subscribe(c.Ingest)
	}
	c.startSamplerLocked()
	c.publishLocked()
}

// Stop pauses tracking and freezes the active duration. Data is retained;
// call Finalize afterwards to end the session or Resume to continue.
func (c *Controller) Stop() Outcome {
	c.mu.Lock()
	if !c.state.CanTransitionTo(StatePaused) {
		defer c.mu.Unlock()
		return c.noopLocked("stop")
	}
	if c.state == StatePaused {
		c.mu.Unlock()
		return OutcomeApplied
	}

	c.accumulated += c.clock.Now().Sub(c.startedAt)
	c.state = StatePaused
	if c.source != nil {
		c.source.Unsubscribe()
	}
	wait := c.detachSamplerLocked()
	c.publishLocked()
	c.logger.Info("workout stopped", zap.Duration("accumulated", c.accumulated))
	c.mu.Unlock()

	wait()
	return OutcomeApplied
}

// Finalize materializes the finished session from a stopped workout. It
// succeeds at most once per workout.
func (c *Controller) Finalize() (Session, Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePaused || c.final != nil {
		return Session{}, c.noopLocked("finalize")
	}

	snap := c.snapshotLocked()
	session := Session{
		ID:             c.newID(),
		UserID:         c.profile.ID,
		DistanceKm:     snap.DistanceKm,
		DurationMs:     snap.DurationMs,
		CaloriesKcal:   snap.CaloriesKcal,
		Route:          snap.Route,
		AveragePaceKmh: snap.PaceKmh,
		RecordedAt:     snap.TakenAt,
	}
	c.final = &session
	c.logger.Info("workout finalized",
		zap.String("workout_id", session.ID.String()),
		zap.Float64("distance_km", session.DistanceKm),
		zap.Int64("duration_ms", session.DurationMs),
	)
	return session, OutcomeApplied
}

// Finalized returns the session built by Finalize. It is forgotten once the
// workout is cleared or started afresh.
func (c *Controller) Finalized() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.final == nil {
		return Session{}, false
	}
	return *c.final, true
}

// Finish is the session-ending stop: Stop followed by Finalize.
func (c *Controller) Finish() (Session, Outcome) {
	if c.Stop() == OutcomeNoOp {
		return Session{}, OutcomeNoOp
	}
	return c.Finalize()
}

// Clear discards all tracked data and returns to Idle from any state.
func (c *Controller) Clear() Outcome {
	c.mu.Lock()
	if !c.state.CanTransitionTo(StateIdle) {
		defer c.mu.Unlock()
		return c.noopLocked("clear")
	}
	if c.source != nil && c.state == StateActive {
		c.source.Unsubscribe()
	}
	wait := c.detachSamplerLocked()

	c.filter.Reset()
	c.accumulated = 0
	c.startedAt = time.Time{}
	c.final = nil
	c.state = StateIdle
	c.publishLocked()
	c.logger.Info("workout cleared")
	c.mu.Unlock()

	wait()
	return OutcomeApplied
}

// Close tears the controller down. Snapshots still queued are dropped and
// none is published after Close returns. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.source != nil && c.state == StateActive {
		c.source.Unsubscribe()
	}
	if c.state == StateActive {
		c.accumulated += c.clock.Now().Sub(c.startedAt)
		c.state = StatePaused
	}
	c.publish = nil
	c.outbox = nil
	close(c.quit)
	wait := c.detachSamplerLocked()
	c.mu.Unlock()

	wait()
	c.deliverWG.Wait()
}

// Ingest feeds a fix into the motion filter. Fixes arriving while the
// workout is not active are discarded and reported as not consumed.
func (c *Controller) Ingest(fix motion.RawFix) (motion.Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		c.logger.Debug("fix discarded", zap.String("state", c.state.String()))
		return motion.Decision{}, false
	}
	return c.filter.Ingest(fix), true
}

// CurrentDuration returns the active time so far. Paused time is not counted.
func (c *Controller) CurrentDuration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.durationLocked(c.clock.Now())
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) durationLocked(now time.Time) time.Duration {
	if c.state == StateActive {
		return c.accumulated + now.Sub(c.startedAt)
	}
	return c.accumulated
}

func (c *Controller) snapshotLocked() Snapshot {
	now := c.clock.Now()
	d := c.durationLocked(now)
	fs := c.filter.State()

	return Snapshot{
		SessionID:    c.id,
		State:        c.state,
		DistanceKm:   fs.DistanceKm,
		DurationMs:   d.Milliseconds(),
		CaloriesKcal: energy.EstimateCalories(c.profile.WeightKg, fs.DistanceKm, d),
		PaceKmh:      energy.EstimatePace(fs.DistanceKm, d),
		Route:        fs.Route,
		Position:     fs.Position,
		IsTracking:   c.state == StateActive,
		Moving:       fs.Moving,
		TakenAt:      now,
	}
}

// publishLocked queues the current snapshot for the deliver goroutine.
func (c *Controller) publishLocked() {
	if c.publish == nil {
		return
	}
	if len(c.outbox) == maxOutbox {
		c.logger.Debug("snapshot dropped, publisher is behind")
		c.outbox = c.outbox[1:]
	}
	c.outbox = append(c.outbox, c.snapshotLocked())
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// deliver hands queued snapshots to publish in order, outside mu.
func (c *Controller) deliver() {
	defer c.deliverWG.Done()

	for {
		select {
		case <-c.quit:
			return
		case <-c.wake:
		}

		c.mu.Lock()
		batch, publish := c.outbox, c.publish
		c.outbox = nil
		c.mu.Unlock()

		for _, s := range batch {
			select {
			case <-c.quit:
				return
			default:
			}
			publish(s)
		}
	}
}

func (c *Controller) noopLocked(command string) Outcome {
	c.logger.Debug("lifecycle command ignored",
		zap.String("command", command),
		zap.String("state", c.state.String()),
	)
	return OutcomeNoOp
}

func (c *Controller) startSamplerLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.samplerDone = done
	go c.sample(ctx, done)
}

// detachSamplerLocked takes ownership of the running sampler and returns a
// func that cancels it and waits for it to exit. The func must be called
// without holding mu.
func (c *Controller) detachSamplerLocked() func() {
	cancel, done := c.cancel, c.samplerDone
	c.cancel, c.samplerDone = nil, nil
	if cancel == nil {
		return func() {}
	}
	return func() {
		cancel()
		<-done
	}
}

func (c *Controller) sample(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			c.tick()
		}
	}
}

func (c *Controller) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return
	}
	c.publishLocked()
}
