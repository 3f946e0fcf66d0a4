package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/navarrastar/application-relay/pkg/models"
	"github.com/navarrastar/application-relay/pkg/services"
)

// Recovery turns a panicking handler into the generic internal error response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		zerolog.Ctx(c.Request.Context()).Error().
			Str("panic", fmt.Sprint(recovered)).
			Str("path", c.Request.URL.Path).
			Msg("Handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse(services.MsgInternalError))
	})
}
