package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/pressbid/PressBid/app/controllers"
	"github.com/pressbid/PressBid/internal/pkg/env"
	"github.com/pressbid/PressBid/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Storage:    newLimiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "PressBid API",
		})
	})

	v1 := api.Group("/v1")

	// Unauthenticated surfaces: the payment provider signs its own
	// requests and the cron caller authenticates via CRON_SECRET.
	v1.Post("/webhooks/payment", controllers.HandlePaymentWebhook)
	// GET kept alongside POST so the batch can be triggered by hand.
	v1.Post("/cron/settle-auctions", controllers.HandleProcessExpiredAuctions)
	v1.Get("/cron/settle-auctions", controllers.HandleProcessExpiredAuctions)
	v1.Post("/cron/mark-overdue", controllers.HandleMarkOverdueInvoices)

	// Everything below requires a user API key.
	authed := v1.Group("", middleware.APIKeyAuthMiddleware())

	authed.Get("/account", controllers.HandleGetAccount)
	authed.Post("/account/api-key", controllers.HandleRotateAPIKey)

	authed.Get("/listings", controllers.HandleListActiveListings)
	authed.Post("/listings", controllers.HandleCreateListing)
	authed.Get("/listings/:id", controllers.HandleGetListing)
	authed.Post("/listings/:id/activate", controllers.HandleActivateListing)
	authed.Post("/listings/:id/cancel", controllers.HandleCancelListing)

	authed.Get("/listings/:id/bids", controllers.HandleListBids)
	authed.Post("/listings/:id/bids", controllers.HandlePlaceBid)

	authed.Post("/listings/:id/offers", controllers.HandleSubmitOffer)
	authed.Get("/offers", controllers.HandleListMyOffers)
	authed.Get("/offers/:id/chain", controllers.HandleGetOfferChain)
	authed.Post("/offers/:id/respond", controllers.HandleRespondToOffer)

	authed.Get("/invoices", controllers.HandleListMyInvoices)
	authed.Get("/invoices/:id", controllers.HandleGetInvoice)

	admin := authed.Group("/admin", middleware.AdminOnlyMiddleware())
	admin.Get("/settings", controllers.HandleGetSettings)
	admin.Put("/settings", controllers.HandleSaveSettings)
	admin.Post("/users", controllers.HandleCreateUser)
	admin.Put("/users/:id/commission", controllers.HandleSetCommissionOverrides)
}

// newLimiterStorage backs the rate limiter with Redis so limits hold
// across instances.
func newLimiterStorage() *redis.Storage {
	return redis.New(redis.Config{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     env.GetEnvInt("CACHE_PORT", 6379),
		Database: 1, // Separate database for rate limiting
		Reset:    false,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
