package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/navarrastar/application-relay/pkg/middleware"
	"github.com/navarrastar/application-relay/pkg/models"
)

// NewRouter builds the gin engine with middleware and routes registered.
func NewRouter(h *Handlers, allowedOrigins []string, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(
		middleware.RequestID(logger),
		middleware.AccessLog(),
		middleware.Recovery(),
		middleware.CORS(allowedOrigins),
	)

	router.POST("/sendmail", h.HandleSendMail)
	router.GET("/health", h.HealthCheck)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse("Not found"))
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, models.ErrorResponse("Method not allowed"))
	})

	return router
}
