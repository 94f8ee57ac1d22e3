// handlers/ranking_routes.go
package handlers

import (
	"sementes-play/services"

	"github.com/gofiber/fiber/v2"
)

// AutomaticChangesLimit caps the change list returned to machine callers.
const AutomaticChangesLimit = 10

func SetupRankingRoutes(app *fiber.App, gates Gates, ranking *services.RankingService) {
	app.Post("/api/ranking/atualizar-niveis", func(c *fiber.Ctx) error {
		result := ranking.RecomputeAllLevels(c.UserContext())
		status := fiber.StatusOK
		if !result.Success {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(result)
	})

	automatic := func(c *fiber.Ctx) error {
		result := ranking.RecomputeAllLevels(c.UserContext())
		status := fiber.StatusOK
		if !result.Success {
			status = fiber.StatusInternalServerError
		}

		changes := result.Changes
		if len(changes) > AutomaticChangesLimit {
			changes = changes[:AutomaticChangesLimit]
		}
		return c.Status(status).JSON(fiber.Map{
			"success":        result.Success,
			"message":        result.Message,
			"changes":        changes,
			"total_changes":  len(result.Changes),
			"total_creators": result.TotalCreators,
		})
	}
	app.Get("/api/ranking/atualizar-niveis-automatico", gates.Internal, automatic)
	app.Post("/api/ranking/atualizar-niveis-automatico", gates.Internal, automatic)
	app.Get("/api/cron/atualizar-niveis-automatico", gates.Cron, automatic)
	app.Post("/api/cron/atualizar-niveis-automatico", gates.Cron, automatic)

	app.Post("/api/ranking/criadores/:id/atualizar-nivel", gates.Internal, func(c *fiber.Ctx) error {
		creatorID := c.Params("id")
		changed, err := ranking.RecomputeLevelForCreator(c.UserContext(), creatorID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to update creator level",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"success":    true,
			"creator_id": creatorID,
			"changed":    changed,
		})
	})
}
