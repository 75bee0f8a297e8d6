package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.uber.org/zap"
)

// ============================================================
// Logger Middleware
// ============================================================

// Logger возвращает middleware для логирования запросов; строки уходят в zap логгер.
func Logger(log *zap.Logger) fiber.Handler {
	return logger.New(logger.Config{
		Stream:     zap.NewStdLog(log.Named("http")).Writer(),
		Format:     "${status} - ${latency} ${method} ${path} | Content-Type: ${reqHeader:Content-Type}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}
