package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pressbid/PressBid/app/models"
	"github.com/pressbid/PressBid/app/repository"
	"github.com/pressbid/PressBid/internal/pkg/apperr"
	"github.com/pressbid/PressBid/internal/pkg/commission"
)

// HandleGetSettings returns the current platform settings.
func HandleGetSettings(c *fiber.Ctx) error {
	settings, err := repository.GetGlobalFactory().GetSettingRepository().Get()
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"settings": settings})
}

// HandleSaveSettings updates platform settings. The commission
// defaults cache is invalidated so new sales pick up the rates
// immediately; existing invoices keep their snapshot.
func HandleSaveSettings(c *fiber.Ctx) error {
	var settings models.AppSettings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	if err := repository.GetGlobalFactory().GetSettingRepository().Save(&settings); err != nil {
		return jsonError(c, apperr.Validationf("invalid settings: %v", err))
	}

	commission.InvalidateDefaultsCache()

	return c.JSON(fiber.Map{"settings": &settings})
}

type commissionOverrideRequest struct {
	BuyerPremiumPercent     *float64 `json:"buyer_premium_percent"`
	SellerCommissionPercent *float64 `json:"seller_commission_percent"`
}

// HandleSetCommissionOverrides sets or clears a seller's negotiated
// commission rates. Null clears an override back to the platform
// default.
func HandleSetCommissionOverrides(c *fiber.Ctx) error {
	userID, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	var req commissionOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if req.BuyerPremiumPercent != nil && (*req.BuyerPremiumPercent < 0 || *req.BuyerPremiumPercent > 100) {
		return jsonError(c, apperr.Validationf("buyer_premium_percent must be between 0 and 100"))
	}
	if req.SellerCommissionPercent != nil && (*req.SellerCommissionPercent < 0 || *req.SellerCommissionPercent > 100) {
		return jsonError(c, apperr.Validationf("seller_commission_percent must be between 0 and 100"))
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByID(userID); err != nil {
		return jsonError(c, err)
	}
	if err := repo.SetCommissionOverrides(userID, req.BuyerPremiumPercent, req.SellerCommissionPercent); err != nil {
		return jsonError(c, err)
	}

	user, err := repo.GetByID(userID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}
