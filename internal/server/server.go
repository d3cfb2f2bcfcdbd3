// Package server assembles the fiber application: middleware, error
// handling and route registration.
package server

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/wichananm65/beartrak-search-backend/internal/category"
	"github.com/wichananm65/beartrak-search-backend/internal/config"
	"github.com/wichananm65/beartrak-search-backend/internal/health"
	"github.com/wichananm65/beartrak-search-backend/internal/rfp"
)

const (
	ServiceName = "BearTrak Search API"
	Version     = "1.0.0"
)

// htmx sends these on every request; browsers preflight them cross-origin.
var allowedHeaders = []string{
	"Origin",
	"Content-Type",
	"Accept",
	"HX-Request",
	"HX-Trigger",
	"HX-Trigger-Name",
	"HX-Target",
	"HX-Current-URL",
}

type Deps struct {
	Config     config.Config
	Logger     *zap.Logger
	DB         health.Pinger
	RFPs       rfp.Repository
	Categories category.Repository
}

// New returns a fully wired app. It does not start listening.
func New(dep Deps) *fiber.App {
	log := dep.Logger
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               ServiceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		IdleTimeout:           60 * time.Second,
		ErrorHandler:          errorHandler(log),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: dep.Config.Debug}))
	app.Use(requestid.New())
	app.Use(requestLogger(log))
	setupCORS(app, dep.Config)

	health.NewHandler(ServiceName, Version, dep.Config.Environment, dep.DB).RegisterPublicRoutes(app)

	rfpHandler := rfp.NewHandler(rfp.NewService(dep.RFPs, log), log)
	rfpHandler.RegisterPublicRoutes(app)

	categoryHandler := category.NewHandler(category.NewService(dep.Categories), log)
	categoryHandler.RegisterPublicRoutes(app)

	return app
}

func setupCORS(app *fiber.App, cfg config.Config) {
	if len(cfg.AllowedOrigins) == 0 {
		return
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     strings.Join(allowedHeaders, ", "),
		AllowCredentials: !cfg.WildcardOrigins(),
	}))
}

// requestLogger logs one line per request once the handler chain is done.
func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		} else if err != nil {
			status = fiber.StatusInternalServerError
		}

		fields := []zap.Field{
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if status >= fiber.StatusInternalServerError {
			log.Warn("request", fields...)
		} else {
			log.Info("request", fields...)
		}
		return err
	}
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal server error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = strings.ToLower(fe.Message)
			if code == fiber.StatusNotFound {
				message = "not found"
			}
		} else {
			log.Error("unhandled error",
				zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
				zap.Error(err),
			)
		}
		return c.Status(code).JSON(fiber.Map{"message": message})
	}
}
