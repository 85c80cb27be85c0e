// Package restapi exposes the portfolio engine over HTTP for local dashboards.
package restapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter builds the gin engine with the standard middleware set, CORS for
// browser dashboards and the metrics endpoint on the custom registry.
func SetupRouter(h *Handler, registry *prometheus.Registry) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/accounts", h.ListAccounts)
		v1.POST("/accounts", h.CreateAccount)
		v1.PATCH("/accounts/:id", h.PatchAccount)
		v1.DELETE("/accounts/:id", h.DeleteAccount)
		v1.GET("/portfolio", h.GetPortfolio)
		v1.POST("/sync", h.TriggerSync)
	}

	router.GET("/healthz", h.Healthz)
	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}
	return router
}
