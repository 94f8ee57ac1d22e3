package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"sementes-play/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func status(t *testing.T, app *fiber.App, headers map[string]string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func ok(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }

func TestBearerSecret(t *testing.T) {
	app := fiber.New()
	app.Get("/", BearerSecret("internal", utils.DiscardLogger(), "s3cret"), ok)

	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, nil))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, map[string]string{"Authorization": "Bearer nope"}))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, map[string]string{"Authorization": "s3cre"}))
	assert.Equal(t, fiber.StatusNoContent, status(t, app, map[string]string{"Authorization": "Bearer s3cret"}))
}

func TestBearerSecret_UnconfiguredRejectsAll(t *testing.T) {
	app := fiber.New()
	app.Get("/", BearerSecret("internal", utils.DiscardLogger(), ""), ok)

	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, map[string]string{"Authorization": "Bearer "}))
	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, nil))
}

func TestCronAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/", CronAuth(utils.DiscardLogger(), "one", "two"), ok)

	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, nil))
	assert.Equal(t, fiber.StatusNoContent, status(t, app, map[string]string{"Authorization": "Bearer one"}))
	assert.Equal(t, fiber.StatusNoContent, status(t, app, map[string]string{"Authorization": "Bearer two"}))
	assert.Equal(t, fiber.StatusNoContent, status(t, app, map[string]string{CronHeader: "1"}))
}

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	app.Get("/", UserContextMiddleware(), RequireRole("admin", utils.DiscardLogger()), ok)

	assert.Equal(t, fiber.StatusUnauthorized, status(t, app, map[string]string{"X-User-Roles": "admin"}))
	assert.Equal(t, fiber.StatusForbidden, status(t, app, map[string]string{"X-User-ID": "u1", "X-User-Roles": "administrator,user"}))
	assert.Equal(t, fiber.StatusNoContent, status(t, app, map[string]string{"X-User-ID": "u1", "X-User-Roles": "user, admin"}))
}
