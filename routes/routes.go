package routes

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/inquiry-desk/api-go/controllers"
	"github.com/inquiry-desk/api-go/metrics"
	"github.com/inquiry-desk/api-go/middleware"
	"github.com/inquiry-desk/api-go/models"
	"github.com/inquiry-desk/api-go/services"
	"github.com/sirupsen/logrus"
)

// Options carries everything the HTTP surface depends on.
type Options struct {
	Auth           services.AuthService
	Users          services.UserService
	Requesters     services.RequesterService
	Inquiries      services.InquiryService
	Responses      services.ResponseService
	Attachments    services.AttachmentService
	Categories     *services.ReferenceService[models.Category, *models.Category]
	Ranks          *services.ReferenceService[models.Rank, *models.Rank]
	Establishments *services.ReferenceService[models.Establishment, *models.Establishment]

	Ping          func(ctx context.Context) error
	PublicLimiter middleware.Limiter
	Metrics       *metrics.Metrics
	Log           logrus.FieldLogger
	CORSOrigins   []string
}

func SetupRoutes(r *gin.Engine, opts Options) {
	controllers.RegisterValidation()

	r.Use(middleware.RequestLogger(opts.Log))
	r.Use(middleware.Metrics(opts.Metrics))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	// Initialize controllers
	authController := controllers.NewAuthController(opts.Auth)
	userController := controllers.NewUserController(opts.Users)
	requesterController := controllers.NewRequesterController(opts.Requesters)
	inquiryController := controllers.NewInquiryController(opts.Inquiries)
	responseController := controllers.NewResponseController(opts.Responses)
	attachmentController := controllers.NewAttachmentController(opts.Attachments)
	healthController := controllers.NewHealthController(opts.Ping)

	r.GET("/health", healthController.Health)
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	authRequired := middleware.AuthMiddleware(opts.Auth)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.POST("/signin", authController.SignIn)
		auth.POST("/signup", authRequired, adminOnly, authController.SignUp)
		auth.POST("/forgot-password", authController.ForgotPassword)
		auth.POST("/reset-password", authController.ResetPassword)

		// Reference lists are readable without signing in.
		SetupReferenceRoutes(api, "/categories", controllers.NewCategoryController(opts.Categories), authRequired, adminOnly)
		SetupReferenceRoutes(api, "/ranks", controllers.NewRankController(opts.Ranks), authRequired, adminOnly)
		SetupReferenceRoutes(api, "/establishments", controllers.NewEstablishmentController(opts.Establishments), authRequired, adminOnly)

		api.POST("/inquiries/public", middleware.RateLimit(opts.PublicLimiter, opts.Log), inquiryController.CreatePublicInquiry)
	}

	protected := r.Group("/api")
	protected.Use(authRequired)
	{
		SetupUserRoutes(protected, userController, adminOnly)
		SetupRequesterRoutes(protected, requesterController, adminOnly)
		SetupInquiryRoutes(protected, inquiryController, responseController)
		SetupAttachmentRoutes(protected, attachmentController, adminOnly)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
