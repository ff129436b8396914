package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v76"

	"github.com/Decoupled-Saas/nextpress/app/models"
	"github.com/Decoupled-Saas/nextpress/app/repository"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/billing"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/database"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/env"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/mail"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/usercontext"
)

func billingService() *billing.Service {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:3000"), "/")
	svc := billing.NewServiceFromDB(database.GetDB(), billing.NewStripeGatewayFromEnv(), billing.Config{
		SuccessURL: env.GetEnv("CHECKOUT_SUCCESS_URL", base+"/billing/success"),
		CancelURL:  env.GetEnv("CHECKOUT_CANCEL_URL", base+"/billing/cancel"),
	})
	svc.SetNotifier(func(user *models.User, planName string) {
		mail.SendSubscriptionConfirmation(user.Email, user.Name, planName)
	})
	return svc
}

// HandleCheckout starts a subscription purchase and returns the gateway
// redirect URL. Nothing is written locally until the completion webhook
// arrives.
func HandleCheckout(c *fiber.Ctx) error {
	var req struct {
		PlanID uint `json:"plan_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonBadRequest(c, "invalid request body")
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(usercontext.GetUserID(c))
	if err != nil {
		return jsonNotFound(c, "account not found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	session, err := billingService().Checkout(ctx, user, req.PlanID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidPlan):
			return jsonBadRequest(c, "unknown plan")
		case errors.Is(err, billing.ErrGatewayUnavailable):
			return jsonError(c, fiber.StatusBadGateway, "gateway_unavailable", "payment provider is unavailable, try again later")
		default:
			return jsonInternalError(c, "failed to start checkout")
		}
	}

	return c.JSON(fiber.Map{"session_id": session.ID, "url": session.URL})
}

// HandleCancelSubscription cancels the caller's active subscription.
func HandleCancelSubscription(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := billingService().Cancel(ctx, usercontext.GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrNoActiveSubscription):
			return jsonError(c, fiber.StatusConflict, "no_active_subscription", "there is no active subscription to cancel")
		case errors.Is(err, billing.ErrGatewayUnavailable):
			return jsonError(c, fiber.StatusBadGateway, "gateway_unavailable", "payment provider is unavailable, try again later")
		default:
			return jsonInternalError(c, "failed to cancel subscription")
		}
	}

	return c.JSON(fiber.Map{"message": "subscription canceled"})
}

// HandleGetSubscription returns the caller's entitlement, the plan catalog
// and, when available, the live gateway snapshot with invoice history.
func HandleGetSubscription(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	info, err := billingService().Entitlement(ctx, usercontext.GetUserID(c))
	if err != nil {
		return jsonInternalError(c, "failed to load subscription")
	}

	resp := fiber.Map{
		"status":   info.Status,
		"end_date": formatTimePtr(info.EndDate),
		"plans":    info.Plans,
		"invoices": info.Invoices,
	}
	if info.Gateway != nil {
		resp["gateway"] = fiber.Map{
			"subscription_id":      info.Gateway.ID,
			"status":               info.Gateway.Status,
			"current_period_end":   info.Gateway.CurrentPeriodEnd.UTC().Format(time.RFC3339),
			"cancel_at_period_end": info.Gateway.CancelAtPeriodEnd,
		}
	}
	return c.JSON(resp)
}

// HandleStripeWebhook receives gateway notifications. The signature is
// checked over the exact raw body before anything is parsed. Business-level
// no-ops return 200 so the gateway stops redelivering; only transient
// failures return 500 to trigger a retry.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")

	if !billing.VerifyWebhookSignature(rawBody, signature, secret, billing.DefaultSignatureTolerance, time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	var event stripe.Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := billingService().HandleEvent(ctx, &event); err != nil {
		log.Printf("webhook %s (%s) failed, will be redelivered: %v", event.ID, event.Type, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_processing_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
