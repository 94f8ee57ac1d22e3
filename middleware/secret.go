// middleware/secret.go
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// CronHeader is set by the hosting platform on scheduled invocations.
const CronHeader = "X-Vercel-Cron"

func bearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	return strings.TrimSpace(token)
}

func matchesAny(token string, secrets []string) bool {
	if token == "" {
		return false
	}
	for _, s := range secrets {
		if s != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s)) == 1 {
			return true
		}
	}
	return false
}

// BearerSecret admits requests whose "Authorization: Bearer <token>" matches
// one of secrets. With no secret configured every request is rejected.
func BearerSecret(name string, log logrus.FieldLogger, secrets ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !matchesAny(bearerToken(c), secrets) {
			log.WithFields(logrus.Fields{"gate": name, "path": c.Path()}).Warn("[AUTH] rejected request with missing or invalid token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized",
			})
		}
		return c.Next()
	}
}

// CronAuth admits the platform cron (CronHeader present) or a bearer token
// matching one of the cron secrets.
func CronAuth(log logrus.FieldLogger, secrets ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(CronHeader) != "" || matchesAny(bearerToken(c), secrets) {
			return c.Next()
		}
		log.WithField("path", c.Path()).Warn("[AUTH] rejected cron request")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "unauthorized cron request",
		})
	}
}
