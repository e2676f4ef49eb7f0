package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pressbid/PressBid/app/repository"
	"github.com/pressbid/PressBid/internal/pkg/database"
	"github.com/pressbid/PressBid/internal/pkg/offers"
	"github.com/pressbid/PressBid/internal/pkg/usercontext"
)

type submitOfferRequest struct {
	Amount  float64 `json:"amount"`
	Message string  `json:"message"`
}

type respondOfferRequest struct {
	Action  string  `json:"action"`
	Amount  float64 `json:"amount"`
	Message string  `json:"message"`
}

// HandleSubmitOffer creates a new offer on a listing for the
// authenticated buyer.
func HandleSubmitOffer(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	listingID, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	var req submitOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	svc := offers.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := svc.Submit(ctx, offers.SubmitInput{
		ListingID: listingID,
		BuyerID:   userCtx.UserID,
		Amount:    req.Amount,
		Message:   req.Message,
	})
	if err != nil {
		return jsonError(c, err)
	}

	response := fiber.Map{
		"offer":         result.Offer,
		"auto_accepted": result.AutoAccepted,
	}
	if result.Invoice != nil {
		response["invoice"] = result.Invoice
	}
	return c.Status(fiber.StatusCreated).JSON(response)
}

// HandleRespondToOffer applies accept/decline/counter/withdraw on a
// pending offer.
func HandleRespondToOffer(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	offerID, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	var req respondOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	svc := offers.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := svc.Respond(ctx, offers.RespondInput{
		OfferID:        offerID,
		ActorID:        userCtx.UserID,
		Action:         req.Action,
		CounterAmount:  req.Amount,
		CounterMessage: req.Message,
	})
	if err != nil {
		return jsonError(c, err)
	}

	response := fiber.Map{
		"action": result.Action,
		"offer":  result.Offer,
	}
	if result.Invoice != nil {
		response["invoice"] = result.Invoice
	}
	if result.CounterOffer != nil {
		response["counter_offer"] = result.CounterOffer
	}
	return c.JSON(response)
}

// HandleListMyOffers returns offers where the authenticated user is a
// party, newest first.
func HandleListMyOffers(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	offset, limit := queryPagination(c)
	repo := repository.GetGlobalFactory().GetOfferRepository()
	list, err := repo.GetForUser(userCtx.UserID, offset, limit)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"offers": list})
}

// HandleGetOfferChain returns the full counter chain containing an
// offer the user is a party to.
func HandleGetOfferChain(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	offerID, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	repo := repository.GetGlobalFactory().GetOfferRepository()
	offer, err := repo.GetByID(offerID)
	if err != nil {
		return jsonError(c, err)
	}
	if !offer.IsParty(userCtx.UserID) && !userCtx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "You are not a party to this offer"})
	}

	chain, err := repo.GetChain(offerID)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"offers": chain})
}
