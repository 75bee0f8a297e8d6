package middleware

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
)

// CORS пускает фронтенд редактора с перечисленных источников; "*" - любой (dev).
// ETag открыт, чтобы клиент мог слать If-None-Match при опросе проекта.
func CORS(origins []string) fiber.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowHeaders:  []string{"Content-Type", "If-None-Match"},
		AllowMethods:  []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete},
		ExposeHeaders: []string{fiber.HeaderETag},
	})
}
