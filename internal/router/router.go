package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/edusubmit-api/internal/config"
	"github.com/noah-isme/edusubmit-api/internal/handler"
	"github.com/noah-isme/edusubmit-api/internal/middleware"
	"github.com/noah-isme/edusubmit-api/internal/models"
	"github.com/noah-isme/edusubmit-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SessionHandler     *handler.SessionHandler
	ReferenceHandler   *handler.ReferenceHandler
	StudentFormHandler *handler.StudentFormHandler
	TeacherFormHandler *handler.TeacherFormHandler
	GradingHandler     *handler.GradingHandler
	SessionMiddleware  fiber.Handler
	LoginLimiter       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	sessionMiddleware := deps.SessionMiddleware
	if sessionMiddleware == nil {
		sessionMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ReferenceHandler != nil {
		deps.ReferenceHandler.Register(api.Group("/reference"))
	}

	if deps.SessionHandler != nil {
		deps.SessionHandler.Register(api.Group("/session", sessionMiddleware), deps.LoginLimiter)
	}

	if deps.StudentFormHandler != nil {
		student := api.Group("/student", sessionMiddleware, middleware.RequireRole(models.RoleStudent))
		deps.StudentFormHandler.Register(student)
	}

	if deps.TeacherFormHandler != nil || deps.GradingHandler != nil {
		teacher := api.Group("/teacher", sessionMiddleware, middleware.RequireRole(models.RoleTeacher))
		if deps.TeacherFormHandler != nil {
			deps.TeacherFormHandler.Register(teacher)
		}
		if deps.GradingHandler != nil {
			deps.GradingHandler.Register(teacher.Group("/grading"))
		}
	}
}
