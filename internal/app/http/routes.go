package routes

import (
	"brandkit-app/config"
	"brandkit-app/database"
	adminapi "brandkit-app/internal/api/admin"
	assetsapi "brandkit-app/internal/api/assets"
	authapi "brandkit-app/internal/api/auth"
	"brandkit-app/internal/api/billing"
	creditsapi "brandkit-app/internal/api/credits"
	cronapi "brandkit-app/internal/api/cron"
	generateapi "brandkit-app/internal/api/generate"
	lemonwebhooks "brandkit-app/internal/api/lemonwebhook"
	"brandkit-app/internal/api/plans"
	stripewebhooks "brandkit-app/internal/api/stripewebhook"
	"brandkit-app/internal/api/users"
	waitlistapi "brandkit-app/internal/api/waitlist"
	"brandkit-app/internal/app/http/middleware"
	billingdomain "brandkit-app/internal/domain/billing"
	creditsdomain "brandkit-app/internal/domain/credits"
	"brandkit-app/internal/infra/events"
	"brandkit-app/internal/infra/openai"
	"brandkit-app/internal/infra/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(r *gin.Engine, rdb *redis.Client) {
	db := database.DB
	ledger := creditsdomain.New(db)
	adapter := billingdomain.NewAdapter(db, ledger)
	dedup := events.NewDedup(rdb)

	stripeHandler := stripewebhooks.NewHandler(db, adapter, dedup)
	lemonHandler := lemonwebhooks.NewHandler(db, adapter, dedup, config.LEMONSQUEEZY_WEBHOOK_SECRET)
	cronHandler := cronapi.NewHandler(db, ledger, config.CRON_SECRET)
	creditsHandler := creditsapi.NewHandler(db, ledger)
	generateHandler := generateapi.NewHandler(db, ledger,
		openai.NewClient(config.OPENAI_API_KEY),
		storage.NewSupabaseUploader(config.SUPABASE_URL, config.SUPABASE_SERVICE_KEY, config.STORAGE_BUCKET))
	waitlistHandler := waitlistapi.NewHandler(db)

	// Webhooks take raw provider payloads; no sanitization, the
	// signature check covers integrity.
	r.POST("/webhooks/stripe", stripeHandler.Webhook)
	r.POST("/webhooks/lemonsqueezy", lemonHandler.Webhook)

	r.GET("/cron/monthly-reset", cronHandler.MonthlyReset)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.SanitizeInputMiddleware())

	public.POST("/register", authapi.Register)
	public.POST("/login", authapi.Login)
	public.GET("/plans", plans.ListPlans)
	public.GET("/verify", authapi.VerifyEmail)
	public.POST("/resend-verification", authapi.ResendVerification)
	public.POST("/request-password-reset", authapi.RequestPasswordReset)
	public.POST("/reset-password", authapi.ResetPassword)

	public.GET("/auth/google", authapi.GoogleStart)
	public.GET("/auth/google/callback", authapi.GoogleCallback)

	public.POST("/waitlist", waitlistHandler.Join)
	public.GET("/waitlist/stats", waitlistHandler.Stats)
	public.GET("/waitlist/lookup", waitlistHandler.Lookup)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware())
	auth.GET("/me", users.GetCurrentUser)
	auth.POST("/change-password", authapi.ChangePassword)

	auth.GET("/credits/balance", creditsHandler.GetBalance)
	auth.GET("/credits/history", creditsHandler.GetHistory)

	auth.POST("/generate/logo", generateHandler.GenerateLogo)

	auth.GET("/assets", assetsapi.ListAssets)
	auth.GET("/assets/:id", assetsapi.GetAsset)
	auth.POST("/projects", assetsapi.CreateProject)
	auth.GET("/projects", assetsapi.ListProjects)
	auth.DELETE("/projects/:id", assetsapi.DeleteProject)

	auth.GET("/billing/purchases", billing.GetPurchaseHistory)
	auth.POST("/billing/checkout", billing.CreateCheckoutSession)

	// Subscribers only
	paid := auth.Group("/")
	paid.Use(middleware.RequirePaidPlan())
	paid.POST("/billing/portal", billing.CreateBillingPortal)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.GET("/dashboard", adminapi.GetDashboard)
	admin.GET("/users", adminapi.ListUsers)
	admin.GET("/users/:id", adminapi.GetUser)
	admin.GET("/purchases", adminapi.ListPurchases)
	admin.GET("/waitlist", adminapi.GetWaitlist)
	admin.GET("/assets/stale", adminapi.ListStaleAssets)
}
