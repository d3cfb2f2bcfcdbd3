package health

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"

	DatabaseConnected   = "connected"
	DatabaseUnreachable = "unreachable"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Response struct {
	Status         string    `json:"status"`
	Service        string    `json:"service"`
	Version        string    `json:"version"`
	Environment    string    `json:"environment"`
	DatabaseStatus string    `json:"database_status"`
	Timestamp      time.Time `json:"timestamp"`
}

type Handler struct {
	serviceName string
	version     string
	environment string
	db          Pinger
	timeout     time.Duration
}

func NewHandler(serviceName, version, environment string, db Pinger) *Handler {
	return &Handler{
		serviceName: serviceName,
		version:     version,
		environment: environment,
		db:          db,
		timeout:     time.Second,
	}
}

func (h *Handler) RegisterPublicRoutes(app fiber.Router) {
	app.Get("/", h.root)
	app.Get("/health", h.healthCheck)
}

func (h *Handler) root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": h.serviceName + " is running"})
}

// healthCheck reports 503 when the database cannot be reached so load
// balancers stop routing searches to this instance.
func (h *Handler) healthCheck(c *fiber.Ctx) error {
	resp := Response{
		Status:         StatusHealthy,
		Service:        h.serviceName,
		Version:        h.version,
		Environment:    h.environment,
		DatabaseStatus: DatabaseConnected,
		Timestamp:      time.Now().UTC(),
	}

	pingCtx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	if h.db == nil || h.db.PingContext(pingCtx) != nil {
		resp.Status = StatusDegraded
		resp.DatabaseStatus = DatabaseUnreachable
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
