package in

import "github.com/gofiber/fiber/v2"

// Version is stamped at build time via -ldflags; defaults to "dev".
var Version = "dev"

// Health handles GET /health, used by the deployment platform's liveness
// probe.
func Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// GetVersion handles GET /version.
func GetVersion(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"version": Version})
}
