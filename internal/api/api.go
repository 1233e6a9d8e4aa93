package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andresuchdata/erpsync/internal/api/handlers"
	"github.com/andresuchdata/erpsync/internal/api/middleware"
)

type Services struct {
	Auth      handlers.AccountService
	Dashboard handlers.DashboardReader
}

// Options configure the router. A nil Registry disables /metrics and the
// HTTP metrics middleware.
type Options struct {
	AllowedOrigins []string
	Registry       *prometheus.Registry
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	if opts.Registry != nil {
		router.Use(middleware.NewHTTPMetrics(opts.Registry).Middleware())
	}
	router.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})
	if opts.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})))
	}

	apiGroup := router.Group("/api/v1")

	if services == nil || services.Auth == nil {
		return router
	}
	requireAuth := middleware.RequireAuth(services.Auth)

	authHandler := handlers.NewAuthHandler(services.Auth)
	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", requireAuth, authHandler.Me)
	}

	if services.Dashboard != nil {
		dashboard := handlers.NewDashboardHandler(services.Dashboard)

		apiGroup.POST("/clients/lookup", dashboard.LookupClient)

		protected := apiGroup.Group("", requireAuth)
		{
			protected.GET("/inventory", dashboard.Inventory())
			protected.GET("/inventory/days", dashboard.InventoryDays())
			protected.GET("/classification", dashboard.Classification())
			protected.GET("/alerts/stock", dashboard.StockAlerts())
			protected.GET("/suggestions", dashboard.Suggestions())
			protected.GET("/suggestions/export", dashboard.ExportSuggestions)
			protected.GET("/supplier/catalog", dashboard.SupplierCatalog())
			protected.GET("/supplier/alerts", dashboard.SupplierAlerts())
			protected.GET("/jobs/runs", dashboard.JobRuns)
		}
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	cfg := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			cfg.AllowOrigins = nil
			cfg.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			cfg.AllowOrigins = normalizedOrigins
		}
	}
	return cfg
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
