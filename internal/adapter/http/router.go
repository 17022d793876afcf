package http

import (
	"log/slog"
	"time"

	"github.com/EmanElbedwihy/OMS/internal/adapter/http/middleware"
	"github.com/EmanElbedwihy/OMS/internal/logging"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	CORSOrigins []string // empty: allow any origin
	Logger      *slog.Logger
}

func NewRouter(cfg RouterConfig, carts *CartHandler, orders *OrderHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics())

	l := cfg.Logger
	if l == nil {
		l = logging.New("http")
	}
	r.Use(middleware.Logging(l))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cart := r.Group("/cart")
	{
		cart.POST("/add", carts.AddProduct)
		cart.DELETE("/remove", carts.RemoveProduct)
		cart.PUT("/update", carts.UpdateCart)
		cart.GET("/:userId", carts.GetCart)
	}

	o := r.Group("/orders")
	{
		o.POST("", orders.CreateOrder)
		o.POST("/apply-coupon", orders.ApplyCoupon)
		o.GET("/:orderId", orders.GetOrder)
		o.PUT("/:orderId/status", orders.UpdateStatus)
	}

	r.GET("/users/:userId/orders", orders.UserOrders)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", IdempotencyKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
