package handlers

import (
	"github.com/dukapos/pos_ledger_app/cmd/docs"
	portssvc "github.com/dukapos/pos_ledger_app/internal/core/ports/services"
	"github.com/dukapos/pos_ledger_app/internal/middleware"
	"github.com/dukapos/pos_ledger_app/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	redisClient *redis.Client,
) error {

	registerCustomValidators()

	r.GET("/", getHome)

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Prometheus scrape endpoint, unauthenticated like /health
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	if err := setupAPIV1Routes(r, cfg, services, redisClient); err != nil {
		return err
	}

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)

	return nil
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	redisClient *redis.Client,
) error {
	// Posting endpoints share one limiter so a burst of entries, credit
	// sales and allocations counts against the same budget.
	writeLimiter, err := middleware.NewWriteLimiter(cfg.WriteRateLimit, redisClient)
	if err != nil {
		return err
	}
	writeLimit := middleware.RateLimit(writeLimiter)

	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	// Delegate route registration to specific handlers, passing required services
	registerAccountRoutes(v1, services.Account, services.Ledger, cfg.CurrencyExponent)
	registerLedgerRoutes(v1, services.Ledger, cfg.CurrencyExponent, writeLimit)
	registerCreditRoutes(v1, services.Credit, cfg.CurrencyExponent, writeLimit)
	registerAllocationRoutes(v1, services.Allocation, cfg.CurrencyExponent, writeLimit)
	registerSessionRoutes(v1, services.Session, cfg.CurrencyExponent)

	return nil
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
