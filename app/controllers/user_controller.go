package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pressbid/PressBid/app/models"
	"github.com/pressbid/PressBid/app/repository"
	"github.com/pressbid/PressBid/internal/pkg/apperr"
	"github.com/pressbid/PressBid/internal/pkg/usercontext"
)

// HandleGetAccount returns account information for the authenticated
// user.
func HandleGetAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	account, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, err)
	}

	return c.JSON(fiber.Map{
		"id":                   account.ID,
		"name":                 account.Name,
		"email":                account.Email,
		"role":                 account.Role,
		"status":               account.Status,
		"company_name":         account.CompanyName,
		"has_custom_rates":     account.HasCustomRates(),
		"created_at":           account.CreatedAt.UTC(),
		"last_login_at":        formatTimePtr(account.LastLoginAt),
		"api_key_last_used_at": formatTimePtr(account.APIKeyLastUsedAt),
	})
}

type createUserRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	CompanyName string `json:"company_name"`
}

// HandleCreateUser creates an account and issues its API key. Admin
// only; the raw key is returned exactly once and only its hash is
// stored.
func HandleCreateUser(c *fiber.Ctx) error {
	var req createUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if req.Role == "" {
		req.Role = models.ROLE_BUYER
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return jsonError(c, apperr.Validationf("invalid user: %v", err))
	}
	user.CompanyName = req.CompanyName

	apiKey, err := user.IssueAPIKey()
	if err != nil {
		return jsonError(c, err)
	}

	if err := repository.GetGlobalFactory().GetUserRepository().Create(user); err != nil {
		return jsonError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":    user,
		"api_key": apiKey,
	})
}

// HandleRotateAPIKey issues a fresh API key for the authenticated
// user, invalidating the previous one.
func HandleRotateAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, err)
	}

	apiKey, err := user.IssueAPIKey()
	if err != nil {
		return jsonError(c, err)
	}
	if err := repo.Update(user); err != nil {
		return jsonError(c, err)
	}

	return c.JSON(fiber.Map{"api_key": apiKey})
}
