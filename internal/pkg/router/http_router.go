package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Decoupled-Saas/nextpress/app/controllers"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/middleware"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/oauth"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/session"
)

type HttpRouter struct {
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	// OAuth login flow lives outside /api so the goth session cookie scope
	// matches the provider callbacks.
	app.Get("/auth/:provider", controllers.HandleOAuthBegin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	app.Get("/auth/logout", controllers.HandleOAuthLogout)

	// Gateway webhooks are server-to-server and carry their own
	// authentication, so they bypass the API rate limiter.
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
}
