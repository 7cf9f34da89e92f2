// Package server wires repositories, services and handlers into a gin engine.
package server

import (
	"time"

	"house-price-api/config"
	"house-price-api/estimator"
	"house-price-api/features"
	"house-price-api/handlers"
	"house-price-api/middleware"
	"house-price-api/repository"
	"house-price-api/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

type Deps struct {
	Config *config.Config
	Model  *estimator.Forest
	Layout features.Layout
	DB     *gorm.DB
	Cache  *services.CacheService
}

// App is the assembled HTTP surface plus the background work it depends on.
type App struct {
	Router *gin.Engine
	Warmer *services.Warmer
}

func New(d Deps) *App {
	handlers.RegisterValidators()

	users := repository.NewUserRepository(d.DB)
	predictions := repository.NewPredictionRepository(d.DB)
	contacts := repository.NewContactRepository(d.DB)

	authService := services.NewAuthService(d.Config.JWT)
	authenticator := middleware.NewAuthenticator(authService, users)
	predictionService := services.NewPredictionService(d.Model, d.Layout, predictions, d.Cache)
	analyticsService := services.NewAnalyticsService(d.Layout.Fields, d.Model, d.Cache, uint64(time.Now().UnixNano()))

	health := handlers.NewHealthHandler(d.Model)
	predict := handlers.NewPredictionHandler(predictionService)
	contact := handlers.NewContactHandler(contacts)
	analytics := handlers.NewAnalyticsHandler(analyticsService)
	authH := handlers.NewAuthHandler(users, authService)
	history := handlers.NewHistoryHandler(predictions)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.SetupCORS(d.Config.CORS),
	)
	// Separate budgets so a burst of predictions cannot lock out sign-in.
	predictLimit := middleware.RateLimit(d.Config.RateLimit)
	contactLimit := middleware.RateLimit(d.Config.RateLimit)
	authLimit := middleware.RateLimit(d.Config.RateLimit)

	router.GET("/", health.Root)
	router.GET("/health", health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/predict", predictLimit, authenticator.OptionalAuth(), predict.Predict)
	router.GET("/ws/predictions", handlers.PredictionFeed(d.Cache, authenticator))

	api := router.Group("/api")

	contactGroup := api.Group("/contact")
	contactGroup.POST("/submit", contactLimit, contact.Submit)
	if d.Config.Contact.ListAdminOnly {
		contactGroup.GET("/submissions", authenticator.RequireAuth(), middleware.RequireAdmin(), contact.List)
	} else {
		contactGroup.GET("/submissions", contact.List)
	}

	analyticsGroup := api.Group("/analytics")
	analyticsGroup.GET("/feature-importance", analytics.FeatureImportance)
	analyticsGroup.GET("/price-trends", analytics.PriceTrends)
	analyticsGroup.GET("/prediction-accuracy", analytics.PredictionAccuracy)

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authLimit, authH.Register)
	authGroup.POST("/login", authLimit, authH.Login)
	authGroup.POST("/logout", authH.Logout)
	authGroup.GET("/me", authenticator.RequireAuth(), authH.Me)

	protected := api.Group("/")
	protected.Use(authenticator.RequireAuth())
	{
		protected.GET("/predictions", history.List)
		protected.GET("/predictions/:id", history.Get)
		protected.GET("/favorites", history.ListFavorites)
		protected.POST("/favorites", history.AddFavorite)
		protected.DELETE("/favorites/:id", history.DeleteFavorite)
	}

	return &App{
		Router: router,
		Warmer: services.NewWarmer(analyticsService, d.Config.Analytics.WarmInterval),
	}
}
