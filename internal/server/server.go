package server

import (
	"backend-peakjournal/internal/auth"
	"backend-peakjournal/internal/blobstore"
	"backend-peakjournal/internal/config"
	"backend-peakjournal/internal/expedition"
	"backend-peakjournal/internal/media"
	"backend-peakjournal/internal/report"
	"backend-peakjournal/internal/waypoint"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App   *fiber.App
	Cfg   config.Config
	DB    *pgxpool.Pool
	Redis *redis.Client
	Blobs blobstore.Store
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:   app,
		Cfg:   cfg,
		DB:    db,
		Redis: redisClient,
		Blobs: blobstore.NewDisk(cfg.BlobDir),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	requireAuth := auth.JWTMiddleware(s.Cfg.JWTSecret)
	optionalAuth := auth.OptionalJWTMiddleware(s.Cfg.JWTSecret)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))

	waypointSvc := waypoint.NewService(s.DB, s.Redis)
	reportSvc := report.NewService(s.DB, s.Redis)
	mediaSvc := media.NewService(s.DB, s.Redis, s.Blobs)
	expeditionSvc := expedition.NewService(s.DB, s.Redis, s.Blobs, waypointSvc, reportSvc, mediaSvc)

	expedition.RegisterRoutes(s.App.Group("/expeditions"), expeditionSvc, requireAuth, optionalAuth)
	waypoint.RegisterRoutes(s.App.Group("/expeditions/:expedition_id/waypoints"), waypointSvc, requireAuth, optionalAuth)
	report.RegisterRoutes(s.App.Group("/expeditions/:expedition_id/reports"), reportSvc, requireAuth, optionalAuth)
	media.RegisterRoutes(s.App.Group("/expeditions/:expedition_id/media"), mediaSvc, requireAuth, optionalAuth)
}
