package httpserver

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mailfwd/internal/handler"
	"mailfwd/internal/mq"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	webhookHandler *handler.WebhookHandler,
	domainHandler *handler.DomainHandler,
	db *pgxpool.Pool,
	publisher *mq.Publisher,
	jwtSecret string,
) *Router {
	r := gin.Default()

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if publisher != nil && !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Inbound mail webhook, authenticated by shared secret
	r.POST("/webhook/inbound", webhookHandler.HandleInbound)

	// Management API
	domains := r.Group("/domains")
	domains.Use(handler.AuthMiddleware(jwtSecret))
	{
		domains.POST("", domainHandler.Register)
		domains.GET("", domainHandler.List)
		domains.GET("/:domain", domainHandler.Get)
		domains.DELETE("/:domain", domainHandler.Delete)
		domains.POST("/:domain/enable", domainHandler.SetEnabled(true))
		domains.POST("/:domain/disable", domainHandler.SetEnabled(false))
		domains.POST("/:domain/verify", domainHandler.Verify)
		domains.GET("/:domain/status", domainHandler.Status)
		domains.GET("/:domain/logs", domainHandler.Logs)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
