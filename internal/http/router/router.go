package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsdelfino/watsonwork-weather/internal/http/handler"
)

const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
	WebhookPath = "/weather"
)

func SetupRoutes(router *gin.Engine, webhook *handler.WebhookHandler) {
	router.GET(HealthPath, func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET(MetricsPath, gin.WrapH(promhttp.Handler()))

	router.POST(WebhookPath, webhook.Receive)
}
