package feedback

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/studygeni/study-gateway/internal/errors"
	"github.com/studygeni/study-gateway/internal/logger"
)

// Handler handles HTTP requests for user feedback.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new feedback handler.
func NewHandler(service *Service, logger *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Send handles POST /api/v1/feedback
func (h *Handler) Send(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("feedback-handler")

	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.AbortWithBadRequest(c, "feedback text is required", map[string]interface{}{"detail": err.Error()})
		return
	}

	resp, err := h.service.Send(c.Request.Context(), &req)
	if err != nil {
		log.Error("failed to forward feedback", slog.String("error", err.Error()))
		apierrors.AbortWithBadGateway(c, "failed to send feedback, please try again later", nil)
		return
	}

	c.JSON(http.StatusOK, resp)
}
