package tracking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"backend-fittrack/internal/motion"
	"backend-fittrack/internal/profile"
	"backend-fittrack/internal/stream"
	"backend-fittrack/internal/workout"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("tracking session not found")
	ErrInvalidFix      = errors.New("invalid location fix")
	ErrUserRequired    = errors.New("user_id required")
)

// SessionStore persists finalized workouts.
type SessionStore interface {
	Save(ctx context.Context, s workout.Session) error
}

type Options struct {
	Motion   motion.Config
	Interval time.Duration
	Clock    workout.Clock
	Logger   *zap.Logger
}

// Service keeps the live workout sessions of this instance. Each session owns
// a workout.Controller fed through a workout.Feed by AddFix.
type Service struct {
	store    SessionStore
	hub      *stream.Hub
	profiles profile.Loader
	opts     Options
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	userID string
	ctrl   *workout.Controller
	feed   *workout.Feed

	// finishMu serializes Finish calls; released is set once the session
	// has been saved and dropped.
	finishMu sync.Mutex
	released bool
}

func NewService(store SessionStore, hub *stream.Hub, profiles profile.Loader, opts Options) *Service {
	if profiles == nil {
		profiles = profile.Static{}
	}
	if opts.Clock == nil {
		opts.Clock = workout.ClockFunc(time.Now)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		hub:      hub,
		profiles: profiles,
		opts:     opts,
		logger:   opts.Logger,
		sessions: map[string]*entry{},
	}
}

// StartSession creates a session for userID and starts tracking right away.
func (s *Service) StartSession(ctx context.Context, userID string) (View, error) {
	if userID == "" {
		return View{}, ErrUserRequired
	}
	p, err := s.profiles.Load(ctx, userID)
	if err != nil {
		s.logger.Warn("profile unavailable, using defaults", zap.String("user_id", userID), zap.Error(err))
		p = profile.Default(userID)
	}

	id := uuid.NewString()
	feed := workout.NewFeed()
	var publish workout.Publisher
	if s.hub != nil {
		publish = s.hub.Publish
	}
	ctrl := workout.NewController(workout.Options{
		SessionID: id,
		Profile:   p,
		Motion:    s.opts.Motion,
		Interval:  s.opts.Interval,
		Source:    feed,
		Publish:   publish,
		Clock:     s.opts.Clock,
		Logger:    s.logger,
	})

	s.mu.Lock()
	s.sessions[id] = &entry{userID: userID, ctrl: ctrl, feed: feed}
	s.mu.Unlock()

	out := ctrl.Start()
	s.logger.Info("tracking session started", zap.String("session_id", id), zap.String("user_id", userID))
	return newView(out, ctrl.Snapshot()), nil
}

// AddFix relays a device fix to the session. Fixes posted while the session
// is not active are not consumed.
func (s *Service) AddFix(_ context.Context, sessionID string, req FixRequest) (FixResult, error) {
	if err := validateFix(req); err != nil {
		return FixResult{}, err
	}
	e, err := s.lookup(sessionID)
	if err != nil {
		return FixResult{}, err
	}
	if req.TimestampMs == 0 {
		req.TimestampMs = s.opts.Clock.Now().UnixMilli()
	}

	decision, consumed := e.feed.Deliver(req.RawFix())
	return FixResult{
		Consumed: consumed,
		Decision: decision,
		View:     newView("", e.ctrl.Snapshot()),
	}, nil
}

func (s *Service) Start(sessionID string) (View, error) {
	return s.command(sessionID, (*workout.Controller).Start)
}

func (s *Service) Pause(sessionID string) (View, error) {
	return s.command(sessionID, (*workout.Controller).Stop)
}

func (s *Service) Resume(sessionID string) (View, error) {
	return s.command(sessionID, (*workout.Controller).Resume)
}

// Clear discards the session's progress. The session stays registered in the
// idle state and can be started again.
func (s *Service) Clear(sessionID string) (View, error) {
	return s.command(sessionID, (*workout.Controller).Clear)
}

func (s *Service) command(sessionID string, cmd func(*workout.Controller) workout.Outcome) (View, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return View{}, err
	}
	out := cmd(e.ctrl)
	return newView(out, e.ctrl.Snapshot()), nil
}

// Finish stops the session, finalizes it and saves it to the store. A session
// whose save succeeded is released. Otherwise the finalized workout stays with
// the controller, so Finish can be retried until the session is cleared.
func (s *Service) Finish(ctx context.Context, sessionID string) (FinishResult, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return FinishResult{}, err
	}

	e.finishMu.Lock()
	defer e.finishMu.Unlock()
	if e.released {
		return FinishResult{}, ErrSessionNotFound
	}

	out := workout.OutcomeApplied
	session, ok := e.ctrl.Finalized()
	if !ok {
		session, out = e.ctrl.Finish()
		if !out.Applied() {
			return FinishResult{View: newView(out, e.ctrl.Snapshot())}, nil
		}
	}

	snap := e.ctrl.Snapshot()
	if s.store != nil {
		if err := s.store.Save(ctx, session); err != nil {
			return FinishResult{}, fmt.Errorf("save workout: %w", err)
		}
	}

	e.released = true
	s.release(sessionID)
	s.logger.Info("tracking session finished",
		zap.String("session_id", sessionID),
		zap.String("workout_id", session.ID.String()),
	)
	return FinishResult{Session: &session, View: newView(out, snap)}, nil
}

// Discard drops the session without saving anything.
func (s *Service) Discard(sessionID string) error {
	if _, err := s.lookup(sessionID); err != nil {
		return err
	}
	s.release(sessionID)
	s.logger.Info("tracking session discarded", zap.String("session_id", sessionID))
	return nil
}

func (s *Service) Get(sessionID string) (View, error) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return View{}, err
	}
	return newView("", e.ctrl.Snapshot()), nil
}

// Snapshot reports the current snapshot of a live session.
func (s *Service) Snapshot(sessionID string) (workout.Snapshot, bool) {
	e, err := s.lookup(sessionID)
	if err != nil {
		return workout.Snapshot{}, false
	}
	return e.ctrl.Snapshot(), true
}

// Close tears down every live session. Unfinished progress is lost.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = map[string]*entry{}
	s.mu.Unlock()

	for _, e := range sessions {
		e.ctrl.Close()
	}
}

func (s *Service) lookup(sessionID string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (s *Service) release(sessionID string) {
	s.mu.Lock()
	e, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if ok {
		e.ctrl.Close()
	}
}

func validateFix(req FixRequest) error {
	switch {
	case math.IsNaN(req.Lat) || math.IsNaN(req.Lng) || math.IsNaN(float64(req.AccuracyM)):
		return fmt.Errorf("%w: NaN coordinate", ErrInvalidFix)
	case req.Lat < -90 || req.Lat > 90:
		return fmt.Errorf("%w: lat out of range", ErrInvalidFix)
	case req.Lng < -180 || req.Lng > 180:
		return fmt.Errorf("%w: lng out of range", ErrInvalidFix)
	case req.AccuracyM < 0:
		return fmt.Errorf("%w: negative accuracy", ErrInvalidFix)
	case req.TimestampMs < 0:
		return fmt.Errorf("%w: negative timestamp", ErrInvalidFix)
	}
	return nil
}
