// handlers/gates.go
package handlers

import (
	"sementes-play/config"
	"sementes-play/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Gates are the access checks routes are mounted behind. Admin routes trust
// the X-User-* headers only once the gateway token has been verified.
type Gates struct {
	Admin    []fiber.Handler
	Cron     fiber.Handler
	Internal fiber.Handler
}

func NewGates(cfg *config.Config, log logrus.FieldLogger) Gates {
	return Gates{
		Admin: []fiber.Handler{
			middleware.BearerSecret("gateway", log, cfg.GatewayServiceToken),
			middleware.UserContextMiddleware(),
			middleware.RequireRole(cfg.AdminRole, log),
		},
		Cron:     middleware.CronAuth(log, cfg.CronSecrets()...),
		Internal: middleware.BearerSecret("internal", log, cfg.InternalAPISecret),
	}
}

func (g Gates) admin(h fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(g.Admin)+1)
	out = append(out, g.Admin...)
	return append(out, h)
}
