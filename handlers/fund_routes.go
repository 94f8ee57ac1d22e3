// handlers/fund_routes.go
package handlers

import (
	"errors"

	"sementes-play/services"

	"github.com/gofiber/fiber/v2"
)

func SetupFundRoutes(app *fiber.App, gates Gates, ledger *services.FundLedger, audit *services.FundAuditJob, repasses *services.RepasseService) {
	// Read-only: admins look, the cron job fixes.
	app.Get("/api/admin/verificar-integridade-fundo", gates.admin(func(c *fiber.Ctx) error {
		result, err := ledger.Inspect(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to check fund integrity",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"audit":   result,
		})
	})...)

	runAudit := func(c *fiber.Ctx) error {
		result, err := audit.Run(c.UserContext())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "fund audit failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"audit":   result,
		})
	}
	app.Get("/api/cron/verificar-integridade-fundo", gates.Cron, runAudit)
	app.Post("/api/cron/verificar-integridade-fundo", gates.Cron, runAudit)

	app.Post("/api/admin/repasses/:id/aprovar", gates.admin(func(c *fiber.Ctx) error {
		approval, err := repasses.Approve(c.UserContext(), c.Params("id"))
		switch {
		case errors.Is(err, services.ErrRepasseNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "repasse not found",
			})
		case errors.Is(err, services.ErrRepasseNotPending):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "repasse is not pending",
			})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to approve repasse",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"success":  true,
			"approval": approval,
		})
	})...)
}
