package handler

import (
	"net/http"
	"strings"

	"orderpay/internal/config"
	"orderpay/internal/metrics"
	"orderpay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(h *Handler, cfg *config.Config) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	var limiter *IPRateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	r.Use(RecoveryMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(MetricsMiddleware())
	r.Use(CORSMiddleware())
	r.Use(RateLimitMiddleware(limiter))

	api := r.Group("/api")
	{
		api.POST("/create-order/", h.CreateOrder)
		api.POST("/verify-payment/", h.VerifyPayment)

		orders := api.Group("/orders/:order_id")
		{
			orders.GET("/", h.GetOrder)
			orders.POST("/items/", h.AddItems)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	r.NoMethod(func(c *gin.Context) {
		response.ParamError(c, requiredMethod(c.Request.URL.Path)+" required")
	})
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "not found")
	})

	return r
}

// requiredMethod names the method a known path accepts.
func requiredMethod(path string) string {
	switch {
	case path == "/health", path == "/metrics":
		return http.MethodGet
	case strings.HasPrefix(path, "/api/orders/") && !strings.HasSuffix(strings.TrimSuffix(path, "/"), "/items"):
		return http.MethodGet
	default:
		return http.MethodPost
	}
}
