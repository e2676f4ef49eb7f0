package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pressbid/PressBid/app/models"
	"github.com/pressbid/PressBid/app/repository"
	"github.com/pressbid/PressBid/internal/pkg/apperr"
	"github.com/pressbid/PressBid/internal/pkg/usercontext"
)

type placeBidRequest struct {
	Amount float64  `json:"amount"`
	MaxBid *float64 `json:"max_bid"`
}

// HandlePlaceBid places a bid on an active auction listing.
func HandlePlaceBid(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	listingID, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	var req placeBidRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if req.Amount <= 0 {
		return jsonError(c, apperr.Validationf("bid amount must be greater than zero"))
	}

	repos := repository.GetGlobalFactory()
	listing, err := repos.GetListingRepository().GetByID(listingID)
	if err != nil {
		return jsonError(c, err)
	}
	if !listing.IsAuctionType() {
		return jsonError(c, apperr.Validationf("listing does not accept bids"))
	}
	if listing.SellerID == userCtx.UserID {
		return jsonError(c, apperr.Validationf("you cannot bid on your own listing"))
	}
	if listing.BidCount == 0 && req.Amount < listing.StartingPrice {
		return jsonError(c, apperr.Validationf("first bid must be at least the starting price of %.2f", listing.StartingPrice))
	}

	bid := &models.Bid{
		ListingID: listingID,
		BidderID:  userCtx.UserID,
		Amount:    req.Amount,
		MaxBid:    req.MaxBid,
	}

	placed, err := repos.GetBidRepository().PlaceBid(bid)
	if err != nil {
		return jsonError(c, err)
	}
	if !placed {
		return jsonError(c, apperr.Validationf("bid must exceed the current price, and the auction must still be active"))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"bid": bid})
}

// HandleListBids returns the bids on a listing, highest first.
func HandleListBids(c *fiber.Ctx) error {
	listingID, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	offset, limit := queryPagination(c)
	bids, err := repository.GetGlobalFactory().GetBidRepository().GetByListingID(listingID, offset, limit)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"bids": bids})
}
