package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/pressbid/PressBid/app/models"
	"github.com/pressbid/PressBid/app/repository"
	"github.com/pressbid/PressBid/internal/pkg/apperr"
	"github.com/pressbid/PressBid/internal/pkg/metrics/counter"
	"github.com/pressbid/PressBid/internal/pkg/usercontext"
)

type createListingRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Category         string   `json:"category"`
	Condition        string   `json:"condition"`
	ListingType      string   `json:"listing_type"`
	StartingPrice    float64  `json:"starting_price"`
	ReservePrice     *float64 `json:"reserve_price"`
	BuyNowPrice      *float64 `json:"buy_now_price"`
	AcceptOffers     bool     `json:"accept_offers"`
	AutoAcceptPrice  *float64 `json:"auto_accept_price"`
	AutoDeclinePrice *float64 `json:"auto_decline_price"`
	PaymentDueDays   int      `json:"payment_due_days"`
	DurationDays     int      `json:"duration_days"`
}

// HandleCreateListing creates a draft listing for the authenticated
// seller.
func HandleCreateListing(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}
	if !models.GetAppSettings().ListingsEnabled {
		return jsonError(c, apperr.Validationf("listing creation is currently disabled"))
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, err)
	}
	if !user.IsSeller() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Only sellers may create listings"})
	}

	var req createListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	listingType := req.ListingType
	if listingType == "" {
		listingType = models.ListingTypeAuction
	}
	dueDays := req.PaymentDueDays
	if dueDays <= 0 {
		dueDays = models.GetAppSettings().GetDefaultPaymentDueDays()
	}

	listing := &models.Listing{
		UUID:             uuid.New().String(),
		SellerID:         userCtx.UserID,
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Condition:        req.Condition,
		Status:           models.ListingStatusDraft,
		ListingType:      listingType,
		StartingPrice:    req.StartingPrice,
		ReservePrice:     req.ReservePrice,
		BuyNowPrice:      req.BuyNowPrice,
		CurrentPrice:     req.StartingPrice,
		AcceptOffers:     req.AcceptOffers,
		AutoAcceptPrice:  req.AutoAcceptPrice,
		AutoDeclinePrice: req.AutoDeclinePrice,
		PaymentDueDays:   dueDays,
	}
	if err := listing.Validate(); err != nil {
		return jsonError(c, apperr.Validationf("invalid listing: %v", err))
	}

	if err := repository.GetGlobalFactory().GetListingRepository().Create(listing); err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"listing": listing})
}

// HandleGetListing returns one listing and counts the view.
func HandleGetListing(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	listing, err := repository.GetGlobalFactory().GetListingRepository().GetByID(id)
	if err != nil {
		return jsonError(c, err)
	}

	// View counting is best effort; the counter is flushed in batches.
	if err := counter.AddListingView(listing.ID); err != nil {
		log.Debugf("failed to count view for listing %d: %v", listing.ID, err)
	}

	return c.JSON(fiber.Map{"listing": listing})
}

// HandleListActiveListings returns active listings, soonest-ending
// first, optionally filtered by a search query.
func HandleListActiveListings(c *fiber.Ctx) error {
	offset, limit := queryPagination(c)
	repo := repository.GetGlobalFactory().GetListingRepository()

	var (
		listings []models.Listing
		err      error
	)
	if query := c.Query("q"); query != "" {
		listings, err = repo.Search(query, offset, limit)
	} else {
		listings, err = repo.GetActive(offset, limit)
	}
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"listings": listings})
}

// HandleActivateListing publishes a draft listing. Auction types get
// their end time from duration_days (default 7).
func HandleActivateListing(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	repo := repository.GetGlobalFactory().GetListingRepository()
	listing, err := repo.GetByID(id)
	if err != nil {
		return jsonError(c, err)
	}
	if listing.SellerID != userCtx.UserID && !userCtx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Only the seller may activate this listing"})
	}

	var endTime *time.Time
	if listing.IsAuctionType() {
		days := c.QueryInt("duration_days", 7)
		if days < 1 || days > 30 {
			return jsonError(c, apperr.Validationf("duration_days must be between 1 and 30"))
		}
		t := time.Now().AddDate(0, 0, days)
		endTime = &t
	}

	activated, err := repo.Activate(id, endTime)
	if err != nil {
		return jsonError(c, err)
	}
	if !activated {
		return jsonError(c, apperr.Validationf("listing cannot be activated from its current state"))
	}

	listing, err = repo.GetByID(id)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"listing": listing})
}

// HandleCancelListing cancels a listing that has not sold yet.
func HandleCancelListing(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	id, err := paramUint(c, "id")
	if err != nil {
		return jsonError(c, err)
	}

	repo := repository.GetGlobalFactory().GetListingRepository()
	listing, err := repo.GetByID(id)
	if err != nil {
		return jsonError(c, err)
	}
	if listing.SellerID != userCtx.UserID && !userCtx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Only the seller may cancel this listing"})
	}

	cancelled, err := repo.Cancel(id)
	if err != nil {
		return jsonError(c, err)
	}
	if !cancelled {
		return jsonError(c, apperr.Validationf("listing cannot be cancelled from its current state"))
	}
	return c.JSON(fiber.Map{"cancelled": true})
}
