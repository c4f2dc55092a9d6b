package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-webinar/storefront/config"
	"github.com/aura-webinar/storefront/internal/admin"
	"github.com/aura-webinar/storefront/internal/analytics"
	"github.com/aura-webinar/storefront/internal/auth"
	"github.com/aura-webinar/storefront/internal/checkout"
	"github.com/aura-webinar/storefront/internal/coupons"
	"github.com/aura-webinar/storefront/internal/emaillogs"
	"github.com/aura-webinar/storefront/internal/invoices"
	"github.com/aura-webinar/storefront/internal/leads"
	"github.com/aura-webinar/storefront/internal/middleware"
	"github.com/aura-webinar/storefront/internal/models"
	"github.com/aura-webinar/storefront/internal/payments"
	"github.com/aura-webinar/storefront/internal/purchases"
	"github.com/aura-webinar/storefront/internal/registrations"
	"github.com/aura-webinar/storefront/internal/services"
	"github.com/aura-webinar/storefront/internal/settings"
	"github.com/aura-webinar/storefront/internal/webinars"
	"github.com/aura-webinar/storefront/pkg/response"
)

type handlers struct {
	auth          *auth.Handler
	webinars      *webinars.Handler
	services      *services.Handler
	coupons       *coupons.Handler
	checkout      *checkout.Handler
	payments      *payments.Handler
	registrations *registrations.Handler
	purchases     *purchases.Handler
	invoices      *invoices.Handler
	emailLogs     *emaillogs.Handler
	leads         *leads.Handler
	settings      *settings.Handler
	analytics     *analytics.Handler
	admin         *admin.Handler
}

// newRouter mounts the JSON API under /api. Everything else is page
// traffic and passes through the session gate.
func newRouter(cfg *config.Config, logger *zap.Logger, jwtService *auth.JWTService, limiter middleware.Limiter, h handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.SessionGate(jwtService, middleware.DefaultGateRules()))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.NoRoute(func(c *gin.Context) { response.NotFound(c, "not found") })

	api := router.Group("/api")

	authGroup := api.Group("/auth", middleware.RateLimit(limiter, "auth", 10, time.Minute))
	{
		authGroup.POST("/signup", h.auth.Signup)
		authGroup.POST("/login", h.auth.Login)
		authGroup.POST("/logout", h.auth.Logout)
		authGroup.POST("/password/forgot", h.auth.ForgotPassword)
		authGroup.POST("/password/reset", h.auth.ResetPassword)
	}

	// Public catalog
	api.GET("/webinars", h.webinars.List)
	api.GET("/webinars/:id", h.webinars.Get)
	api.GET("/services", h.services.List)
	api.GET("/services/:id", h.services.Get)
	api.GET("/settings", h.settings.All)
	api.POST("/contact", middleware.RateLimit(limiter, "contact", 5, 10*time.Minute), h.leads.Submit)
	api.POST("/coupons/validate", middleware.OptionalJWT(jwtService),
		middleware.RateLimit(limiter, "coupon", 30, time.Minute), h.coupons.Validate)

	// Gateway callbacks carry no session; the signature is checked in the handler.
	api.POST("/webhooks/payment", h.payments.Webhook)

	user := api.Group("", middleware.JWT(jwtService))
	{
		user.GET("/me", h.auth.Me)
		user.PATCH("/me", h.auth.UpdateMe)
		user.GET("/me/registrations", h.registrations.Mine)
		user.GET("/me/registrations/:id/invoice", h.invoices.Registration)
		user.GET("/me/purchases", h.purchases.Mine)
		user.GET("/me/purchases/:id/invoice", h.invoices.Purchase)

		checkoutLimit := middleware.RateLimit(limiter, "checkout", 10, time.Minute)
		user.POST("/webinars/:id/register", checkoutLimit, h.checkout.Register)
		user.POST("/services/:id/purchase", checkoutLimit, h.checkout.Purchase)
		user.POST("/payments/verify", middleware.RateLimit(limiter, "verify", 30, time.Minute), h.payments.Verify)
	}

	adm := api.Group("/admin", middleware.JWT(jwtService), middleware.RequireRole(models.RoleAdmin))
	{
		adm.GET("/stats", h.analytics.Stats)
		adm.GET("/users", h.admin.Users)

		adm.GET("/webinars", h.webinars.AdminList)
		adm.POST("/webinars", h.webinars.Create)
		adm.PATCH("/webinars/:id", h.webinars.Update)
		adm.DELETE("/webinars/:id", h.webinars.Delete)
		adm.POST("/webinars/resync-slots", h.admin.ResyncAll)
		adm.POST("/webinars/:id/resync-slots", h.admin.ResyncOne)
		adm.POST("/webinars/:id/meeting-link", h.admin.MeetingLink)
		adm.GET("/webinars/:id/emails", h.emailLogs.ListByWebinar)
		adm.POST("/bulk-email", h.admin.BulkEmail)

		adm.GET("/services", h.services.AdminList)
		adm.POST("/services", h.services.Create)
		adm.PATCH("/services/:id", h.services.Update)
		adm.DELETE("/services/:id", h.services.Delete)

		adm.GET("/coupons", h.coupons.List)
		adm.GET("/coupons/:id", h.coupons.Get)
		adm.POST("/coupons", h.coupons.Create)
		adm.PATCH("/coupons/:id", h.coupons.Update)
		adm.DELETE("/coupons/:id", h.coupons.Delete)

		adm.GET("/registrations", h.registrations.AdminList)
		adm.GET("/purchases", h.purchases.AdminList)
		adm.GET("/orders/:kind/:id/invoice", h.invoices.Admin)
		adm.GET("/orders/:kind/:id/invoice/link", h.invoices.AdminLink)

		adm.GET("/leads", h.leads.List)
		adm.PATCH("/leads/:id", h.leads.UpdateStatus)
		adm.PUT("/settings/:key", h.settings.Put)
		adm.POST("/uploads", h.admin.Upload)
	}

	return router
}
