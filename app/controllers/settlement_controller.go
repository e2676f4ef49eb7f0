package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pressbid/PressBid/app/repository"
	"github.com/pressbid/PressBid/internal/pkg/database"
	"github.com/pressbid/PressBid/internal/pkg/env"
	"github.com/pressbid/PressBid/internal/pkg/settlement"
)

// HandleProcessExpiredAuctions runs one settlement batch. Intended to
// be hit by a cron scheduler; when CRON_SECRET is set the caller must
// present it as a bearer token.
func HandleProcessExpiredAuctions(c *fiber.Ctx) error {
	if secret := env.GetEnv("CRON_SECRET", ""); secret != "" {
		auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if auth != "Bearer "+secret {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
	}

	svc := settlement.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	batch, err := svc.ProcessExpiredAuctions(ctx)
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":   "settlement batch complete",
		"processed": batch.Processed,
		"results":   batch.Results,
	})
}

// HandleMarkOverdueInvoices flips pending invoices past their due date
// to overdue. Runs from the same cron surface as settlement.
func HandleMarkOverdueInvoices(c *fiber.Ctx) error {
	if secret := env.GetEnv("CRON_SECRET", ""); secret != "" {
		auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if auth != "Bearer "+secret {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
	}

	repo := repository.GetGlobalFactory().GetInvoiceRepository()
	changed, err := repo.MarkOverdue(time.Now())
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(fiber.Map{"marked_overdue": changed})
}
