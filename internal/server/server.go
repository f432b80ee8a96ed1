package server

import (
	"log"
	"path/filepath"
	"strings"

	"docvault-be/internal/bootstrap"
	"docvault-be/internal/config"
	"docvault-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Signed download gateway. The token carries the storage key; the
	// document id in the path is only for readability.
	app.Get("/files/:id", func(ctx *fiber.Ctx) error {
		key, err := container.Signer.Verify(ctx.Query("token"))
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "Invalid or expired download token")
		}
		clean := filepath.Clean(key)
		if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
			return fiber.NewError(fiber.StatusForbidden, "Invalid storage key")
		}
		return ctx.SendFile(filepath.Join("./uploads", clean))
	})

	// Routes
	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	api := app.Group("/api")

	c.DialogueController.RegisterRoutes(api)
	c.DocumentController.RegisterRoutes(api)
	c.AdminController.RegisterRoutes(api)
}
