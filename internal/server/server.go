package server

import (
	"backend-fittrack/internal/config"
	"backend-fittrack/internal/db"
	"backend-fittrack/internal/history"
	"backend-fittrack/internal/profile"
	"backend-fittrack/internal/stream"
	"backend-fittrack/internal/tracking"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       db.Querier
	Redis    *redis.Client
	Stream   *stream.Hub
	Tracking *tracking.Service
	Log      *zap.Logger
}

// NewServer wires the HTTP routes. A nil database disables workout history
// and a nil redis client falls back to default profiles and local-only
// snapshot fan-out.
func NewServer(cfg config.Config, database db.Querier, redisClient *redis.Client, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     database,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient, log.Named("stream")),
		Log:    log,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	var store tracking.SessionStore
	if s.DB != nil {
		repo := history.NewRepository(s.DB)
		store = repo
		history.RegisterRoutes(s.App.Group("/workouts"), repo)
	} else {
		s.Log.Warn("no database configured, finished workouts will not be saved")
	}

	var profiles profile.Loader = profile.Static{}
	if s.Redis != nil {
		profileStore := profile.NewRedisStore(s.Redis)
		profiles = profileStore
		profile.RegisterRoutes(s.App.Group("/profiles"), profileStore)
	}

	s.Tracking = tracking.NewService(store, s.Stream, profiles, tracking.Options{
		Motion:   s.Cfg.MotionConfig(),
		Interval: s.Cfg.SampleInterval,
		Logger:   s.Log.Named("tracking"),
	})
	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Tracking)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, s.Tracking.Snapshot)
}

// Close stops every live session and the snapshot fan-out.
func (s *Server) Close() {
	s.Tracking.Close()
	s.Stream.Close()
}
