package api

import (
	"errors"
	"strings"
	"time"

	"mr-tracker/internal/apperrors"
	"mr-tracker/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	services *services.ServiceManager
}

func NewHandler(serviceManager *services.ServiceManager) *Handler {
	return &Handler{services: serviceManager}
}

// NewApp builds the fiber app with every route registered.
func NewApp(handler *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "mr-tracker",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return apiError(c, fe.Code, fe.Message)
			}
			return handleError(c, err)
		},
	})
	app.Use(requestLogger)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	group := app.Group("/api")
	group.Get("/log", handler.GetLog)
	group.Post("/activity", handler.PostActivity)
	group.Get("/stats", handler.GetStats)
	group.Get("/weight", handler.GetWeight)
	group.Post("/cron/weekly-report", handler.PostWeeklyReport)

	return app
}

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// handleError maps the service error kinds to HTTP statuses.
func handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return apiError(c, fiber.StatusNotFound, trimKind(err, apperrors.ErrNotFound))
	case errors.Is(err, apperrors.ErrValidation):
		return apiError(c, fiber.StatusBadRequest, trimKind(err, apperrors.ErrValidation))
	case errors.Is(err, apperrors.ErrUnauthorized):
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	case errors.Is(err, apperrors.ErrUpstream):
		log.Error().Err(err).Str("path", c.Path()).Msg("❌ request failed")
		return apiError(c, fiber.StatusBadGateway, "storage unavailable")
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("❌ request failed")
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}
}

func trimKind(err, kind error) string {
	return strings.TrimPrefix(err.Error(), kind.Error()+": ")
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("took", time.Since(start)).
		Msg("🌐 request")
	return err
}
