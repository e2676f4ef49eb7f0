package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pressbid/PressBid/app/repository"
	"github.com/pressbid/PressBid/internal/pkg/usercontext"
)

// HandleGetInvoice returns one invoice; only its buyer, seller or an
// admin may read it.
func HandleGetInvoice(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	invoice, err := repository.GetGlobalFactory().GetInvoiceRepository().GetByID(id)
	if err != nil {
		return jsonError(c, err)
	}
	if invoice.BuyerID != userCtx.UserID && invoice.SellerID != userCtx.UserID && !userCtx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "You are not a party to this invoice"})
	}

	return c.JSON(fiber.Map{"invoice": invoice})
}

// HandleListMyInvoices returns invoices where the authenticated user
// is buyer or seller.
func HandleListMyInvoices(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	offset, limit := queryPagination(c)
	invoices, err := repository.GetGlobalFactory().GetInvoiceRepository().GetForUser(userCtx.UserID, offset, limit)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"invoices": invoices})
}
