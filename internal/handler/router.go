package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/farmtrust/livestock-api/internal/middleware"
	"github.com/farmtrust/livestock-api/internal/models"
	"github.com/farmtrust/livestock-api/internal/service"
	"github.com/farmtrust/livestock-api/pkg/cache"
	"github.com/farmtrust/livestock-api/pkg/config"
	"github.com/farmtrust/livestock-api/pkg/logger"
	corsmiddleware "github.com/farmtrust/livestock-api/pkg/middleware/cors"
	reqidmiddleware "github.com/farmtrust/livestock-api/pkg/middleware/requestid"
)

// Dependencies bundles everything the router needs.
type Dependencies struct {
	Auth         *service.AuthService
	Livestock    *service.LivestockService
	Valuation    *service.ValuationService
	Vaccinations *service.VaccinationService
	Projections  *service.ProjectionService
	Exports      *service.ExportService
	Metrics      *service.MetricsService
	LoginLimiter *cache.RateLimiter
	Health       func() error
}

// NewRouter assembles the gin engine with middleware and all routes.
func NewRouter(cfg *config.Config, logr *zap.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := NewAuthHandler(deps.Auth)
	livestockHandler := NewLivestockHandler(deps.Livestock, deps.Valuation)
	vaccinationHandler := NewVaccinationHandler(deps.Vaccinations, deps.Metrics)
	projectionHandler := NewProjectionHandler(deps.Projections)

	requireAuth := middleware.JWT(deps.Auth)
	farmerOnly := middleware.RequireRoles(models.RoleFarmer)
	vetOnly := middleware.RequireRoles(models.RoleVet)
	anyRole := middleware.RequireRoles(models.RoleFarmer, models.RoleVet)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", middleware.RateLimit(deps.LoginLimiter, logr), authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", requireAuth, authHandler.Logout)
		auth.GET("/me", requireAuth, authHandler.Me)
	}

	livestock := api.Group("/livestock", requireAuth)
	{
		livestock.POST("", farmerOnly, livestockHandler.Register)
		livestock.GET("", farmerOnly, livestockHandler.List)
		livestock.GET("/search", vetOnly, livestockHandler.Search)
		livestock.GET("/equity", farmerOnly, livestockHandler.Equity)
		livestock.GET("/:id", anyRole, livestockHandler.Get)
		livestock.PUT("/:id", farmerOnly, livestockHandler.Update)
		livestock.DELETE("/:id", farmerOnly, livestockHandler.Delete)
		livestock.GET("/:id/valuation", anyRole, livestockHandler.Valuation)
		livestock.GET("/:id/records", anyRole, projectionHandler.AnimalHistory)
	}

	vaccinations := api.Group("/vaccinations", requireAuth)
	{
		vaccinations.POST("", farmerOnly, vaccinationHandler.Create)
		vaccinations.POST("/requests", farmerOnly, vaccinationHandler.CreateRequest)
		vaccinations.GET("/requests/pending", vetOnly, projectionHandler.PendingRequests)
		vaccinations.POST("/requests/:id/approve", vetOnly, vaccinationHandler.Approve)
		vaccinations.POST("/requests/:id/reject", vetOnly, vaccinationHandler.Reject)
		vaccinations.GET("/signoffs/pending", vetOnly, projectionHandler.PendingSignoffs)
		vaccinations.GET("/treatments/pending", vetOnly, projectionHandler.PendingTreatments)
		vaccinations.GET("/verified", anyRole, projectionHandler.VerifiedRecords)
		vaccinations.GET("/due", farmerOnly, projectionHandler.DueForVaccination)
		vaccinations.GET("/:id", anyRole, vaccinationHandler.Get)
		vaccinations.POST("/:id/signoff", vetOnly, vaccinationHandler.SignOff)
		vaccinations.DELETE("/:id", vetOnly, vaccinationHandler.Delete)
	}

	if cfg.Exports.Enabled {
		api.GET("/vaccinations/verified/export", requireAuth, anyRole, projectionHandler.ExportVerified)

		exportHandler := NewExportHandler(deps.Exports)
		exports := api.Group("/exports")
		{
			exports.POST("", requireAuth, anyRole, exportHandler.Create)
			exports.GET("/:id", requireAuth, anyRole, exportHandler.Status)
			// the signed token is the credential here
			exports.GET("/:id/download", exportHandler.Download)
		}
	}

	api.GET("/dashboard", requireAuth, farmerOnly, projectionHandler.Dashboard)

	return r
}
