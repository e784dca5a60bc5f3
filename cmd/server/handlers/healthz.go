package handlers

import (
	"context"
	"time"

	"note-taker/internal/clients/mongo"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const HealthzTimeout = 5 * time.Second

// Health is the body of /healthz.
type Health struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"up"`
	Error    string `json:"error,omitempty"`
}

// Healthz returns the health of the server.
// @Summary Health check
// @Description Check if the server and its database are reachable
// @Tags health
// @Produce json
// @Success 200 {object} handlers.Health
// @Failure 503 {object} handlers.Health
// @Router /healthz [get]
func Healthz(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), HealthzTimeout)
	defer cancel()

	db := mongo.DB()
	if db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(Health{
			Status:   "down",
			Database: "down",
			Error:    "database not initialized",
		})
	}

	if err := db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(Health{
			Status:   "down",
			Database: "down",
			Error:    err.Error(),
		})
	}

	database := "up"
	if mongo.IsReplicaSet() {
		database = "up (replica set)"
	}
	return c.JSON(Health{Status: "ok", Database: database})
}
