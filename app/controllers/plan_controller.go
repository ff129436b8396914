package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Decoupled-Saas/nextpress/app/models"
	"github.com/Decoupled-Saas/nextpress/app/repository"
)

type planRequest struct {
	Name            string `json:"name"`
	Price           int64  `json:"price"`
	DurationDays    int    `json:"duration_days"`
	StripeProductID string `json:"stripe_product_id"`
	StripePriceID   string `json:"stripe_price_id"`
}

// HandleListPlans returns the public plan catalog, cheapest first.
func HandleListPlans(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetPlanRepository()
	plans, err := repo.List()
	if err != nil {
		return jsonInternalError(c, "failed to load plans")
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleCreatePlan adds a plan to the catalog.
func HandleCreatePlan(c *fiber.Ctx) error {
	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	plan := &models.SubscriptionPlan{
		Name:            strings.TrimSpace(req.Name),
		Price:           req.Price,
		DurationDays:    req.DurationDays,
		StripeProductID: strings.TrimSpace(req.StripeProductID),
		StripePriceID:   strings.TrimSpace(req.StripePriceID),
	}
	if err := plan.Validate(); err != nil {
		return jsonBadRequest(c, "name, duration and gateway identifiers are required")
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	if err := repo.Create(plan); err != nil {
		return jsonInternalError(c, "failed to create plan")
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// HandleUpdatePlan edits a catalog entry. Existing entitlements are not
// touched; the change applies to future checkouts only.
func HandleUpdatePlan(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonBadRequest(c, "invalid plan id")
	}
	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	plan, err := repo.GetByID(id)
	if err != nil {
		return jsonNotFound(c, "plan not found")
	}

	plan.Name = strings.TrimSpace(req.Name)
	plan.Price = req.Price
	plan.DurationDays = req.DurationDays
	plan.StripeProductID = strings.TrimSpace(req.StripeProductID)
	plan.StripePriceID = strings.TrimSpace(req.StripePriceID)
	if err := plan.Validate(); err != nil {
		return jsonBadRequest(c, "name, duration and gateway identifiers are required")
	}
	if err := repo.Update(plan); err != nil {
		return jsonInternalError(c, "failed to update plan")
	}
	return c.JSON(plan)
}

// HandleDeletePlan removes a plan from the catalog. Accounts subscribed
// under it keep their entitlement until it lapses.
func HandleDeletePlan(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return jsonBadRequest(c, "invalid plan id")
	}
	repo := repository.GetGlobalFactory().GetPlanRepository()
	if _, err := repo.GetByID(id); err != nil {
		return jsonNotFound(c, "plan not found")
	}
	if err := repo.Delete(id); err != nil {
		return jsonInternalError(c, "failed to delete plan")
	}
	return c.JSON(fiber.Map{"message": "plan deleted"})
}
