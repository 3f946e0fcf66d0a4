package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/navarrastar/application-relay/pkg/models"
	"github.com/navarrastar/application-relay/pkg/services"
)

// maxBodyBytes caps the size of an application payload.
const maxBodyBytes = 1 << 20

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	submissionService services.SubmissionService
}

// NewHandlers creates a new Handlers instance
func NewHandlers(submissionService services.SubmissionService) *Handlers {
	return &Handlers{
		submissionService: submissionService,
	}
}

// HealthCheck handler for monitoring
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// HandleSendMail validates an application posted from the website and relays it by email.
func (h *Handlers) HandleSendMail(c *gin.Context) {
	log := zerolog.Ctx(c.Request.Context())

	// Only JSON is accepted, which also keeps cross-origin form posts that skip
	// the CORS preflight from reaching the relay.
	if !isJSONContentType(c.ContentType()) {
		log.Info().Str("content_type", c.ContentType()).Msg("Rejected non-JSON submission")
		c.JSON(http.StatusBadRequest, models.ErrorResponse(services.MsgInvalidJSON))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		log.Warn().Err(err).Msg("Error reading request body")
		c.JSON(http.StatusBadRequest, models.ErrorResponse(services.MsgInvalidJSON))
		return
	}

	submission, err := models.ParseSubmission(body)
	if err != nil {
		message := services.MsgInvalidJSON
		if errors.Is(err, models.ErrNoBody) {
			message = services.MsgNoBody
		}
		log.Info().Err(err).Int("body_bytes", len(body)).Msg("Rejected unparsable submission")
		c.JSON(http.StatusBadRequest, models.ErrorResponse(message))
		return
	}

	// The send is not tied to the client connection: a browser that goes
	// away mid-request does not abort the relay.
	ctx := context.WithoutCancel(c.Request.Context())

	receipt, err := h.submissionService.ProcessSubmission(ctx, submission)
	if err != nil {
		failure := services.AsFailure(err)
		if failure.Kind == services.KindInternalError {
			log.Error().Err(err).Msg("Unexpected error processing submission")
		}
		c.JSON(failure.Kind.HTTPStatus(), models.ErrorResponse(failure.Message))
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse(services.MsgSent, receipt.Redirect))
}

// isJSONContentType accepts application/json and structured +json media types.
func isJSONContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return contentType == "application/json" ||
		(strings.HasPrefix(contentType, "application/") && strings.HasSuffix(contentType, "+json"))
}
