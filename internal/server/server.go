package server

import (
	"time"

	"blog/internal/handlers"
	"blog/internal/middleware"
	"blog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP app is built from.
type Deps struct {
	Auth     *services.AuthService
	Posts    *services.PostService
	Comments *services.CommentService
	Log      *zap.Logger
	// AuthLimiter, when set, guards login and password reset endpoints.
	AuthLimiter fiber.Handler
	// AllowOrigin is the CORS origin of the frontend; CORS is off when empty.
	AllowOrigin string
	// RequestLog enables the Fiber request logger.
	RequestLog bool
}

// New builds the Fiber app with every route mounted under /api.
func New(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "blog",
		ErrorHandler: handlers.ErrorHandler(d.Log),
	})

	app.Use(recover.New())
	if d.RequestLog {
		app.Use(fiberlogger.New())
	}
	if d.AllowOrigin != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowOrigin,
			AllowCredentials: true,
		}))
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Welcome to the Blog Post API")
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := app.Group("/api")
	authRequired := middleware.AuthRequired(d.Auth)

	var limiters []fiber.Handler
	if d.AuthLimiter != nil {
		limiters = append(limiters, d.AuthLimiter)
	}
	handlers.NewAuthHandler(d.Auth).RegisterRoutes(api, limiters...)
	handlers.NewPostHandler(d.Posts).RegisterRoutes(api, authRequired)
	handlers.NewCommentHandler(d.Comments).RegisterRoutes(api, authRequired)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Route not found")
	})

	return app
}
