package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/Decoupled-Saas/nextpress/app/controllers"
	"github.com/Decoupled-Saas/nextpress/internal/pkg/middleware"
)

type ApiRouter struct {
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:               50,
		Expiration:        time.Minute,
		LimiterMiddleware: limiter.FixedWindow{},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "too many requests, slow down",
			})
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")
	h.registerPublicRoutes(v1)
	h.registerUserRoutes(v1)
	h.registerEditorRoutes(v1)
	h.registerAdminRoutes(v1)
}

func (h ApiRouter) registerPublicRoutes(v1 fiber.Router) {
	auth := v1.Group("/auth")
	auth.Post("/register", controllers.HandleAuthRegister)
	auth.Post("/login", controllers.HandleAuthLogin)
	auth.Post("/logout", controllers.HandleAuthLogout)
	auth.Get("/verify-email", controllers.HandleVerifyEmail)
	auth.Post("/resend-verification", controllers.HandleResendVerification)

	v1.Get("/posts", controllers.HandleListPosts)
	v1.Get("/posts/:slug", controllers.HandleGetPostBySlug)
	v1.Get("/pages", controllers.HandleListPages)
	v1.Get("/pages/:slug", controllers.HandleGetPageBySlug)
	v1.Get("/menu", controllers.HandleListMenu)
	v1.Get("/plans", controllers.HandleListPlans)
}

func (h ApiRouter) registerUserRoutes(v1 fiber.Router) {
	user := v1.Group("/user", middleware.RequireAuth)
	user.Get("/profile", controllers.HandleGetProfile)
	user.Put("/profile", controllers.HandleUpdateProfile)
	user.Post("/password", controllers.HandleChangePassword)

	billing := v1.Group("/billing", middleware.RequireAuth)
	billing.Post("/checkout", controllers.HandleCheckout)
	billing.Post("/cancel", controllers.HandleCancelSubscription)
	billing.Get("/subscription", controllers.HandleGetSubscription)

	// Stopping impersonation must work while the session carries the
	// impersonated user's role, so it cannot sit behind RequireAdmin.
	v1.Post("/impersonation/stop", middleware.RequireAuth, controllers.HandleStopImpersonating)
}

func (h ApiRouter) registerEditorRoutes(v1 fiber.Router) {
	editor := v1.Group("/editor", middleware.RequireEditor)
	editor.Get("/posts", controllers.HandleEditorListPosts)
	editor.Post("/posts", controllers.HandleCreatePost)
	editor.Put("/posts/:id", controllers.HandleUpdatePost)
	editor.Delete("/posts/:id", controllers.HandleDeletePost)

	editor.Get("/pages", controllers.HandleEditorListPages)
	editor.Post("/pages", controllers.HandleCreatePage)
	editor.Put("/pages/:id", controllers.HandleUpdatePage)
	editor.Delete("/pages/:id", controllers.HandleDeletePage)
}

func (h ApiRouter) registerAdminRoutes(v1 fiber.Router) {
	admin := v1.Group("/admin", middleware.RequireAdmin)

	admin.Get("/users", controllers.HandleAdminListUsers)
	admin.Get("/users/:id", controllers.HandleAdminGetUser)
	admin.Put("/users/:id", controllers.HandleAdminUpdateUser)
	admin.Post("/users/:id/password", controllers.HandleAdminSetPassword)
	admin.Post("/users/:id/impersonate", controllers.HandleAdminImpersonate)
	admin.Delete("/users/:id", controllers.HandleAdminDeleteUser)

	admin.Post("/menu", controllers.HandleCreateMenuItem)
	admin.Put("/menu/reorder", controllers.HandleReorderMenu)
	admin.Put("/menu/:id", controllers.HandleUpdateMenuItem)
	admin.Delete("/menu/:id", controllers.HandleDeleteMenuItem)

	admin.Post("/plans", controllers.HandleCreatePlan)
	admin.Put("/plans/:id", controllers.HandleUpdatePlan)
	admin.Delete("/plans/:id", controllers.HandleDeletePlan)
}
