package handlers

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// Pinger - то, без чего сервис не готов принимать запросы (обычно *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	started atomic.Bool
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// MarkStarted вызывается после инициализации хранилища и маршрутов.
func (h *HealthHandler) MarkStarted() {
	h.started.Store(true)
}

func (h *HealthHandler) Register(r fiber.Router) {
	r.Get("/health/live", h.LivenessProbe)
	r.Get("/health/ready", h.ReadinessProbe)
	r.Get("/health/startup", h.StartupProbe)
}

// LivenessProbe проверяет, что приложение работает
func (h *HealthHandler) LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe проверяет доступность базы проектов
func (h *HealthHandler) ReadinessProbe(c fiber.Ctx) error {
	if h.db != nil {
		if err := h.db.PingContext(c.Context()); err != nil {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
	}
	return c.JSON(fiber.Map{
		"status": "ready",
	})
}

// StartupProbe проверяет, что приложение успешно запустилось
func (h *HealthHandler) StartupProbe(c fiber.Ctx) error {
	if !h.started.Load() {
		return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "starting",
		})
	}
	return c.JSON(fiber.Map{
		"status": "started",
	})
}
