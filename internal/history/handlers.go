package history

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/studygeni/study-gateway/internal/auth"
	apierrors "github.com/studygeni/study-gateway/internal/errors"
	"github.com/studygeni/study-gateway/internal/logger"
	"github.com/studygeni/study-gateway/internal/session"
)

// Handler handles HTTP requests for the history log.
type Handler struct {
	service  *Service
	sessions *session.Store
	logger   *logger.Logger
}

// NewHandler creates a new history handler.
func NewHandler(service *Service, sessions *session.Store, logger *logger.Logger) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
		logger:   logger,
	}
}

// List handles GET /api/v1/history
// Returns the authenticated user's entries, newest first.
func (h *Handler) List(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("history-handler")

	userID, ok := auth.GetUserID(c)
	if !ok {
		apierrors.AbortWithUnauthorized(c, "unauthorized")
		return
	}

	resp, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		log.Error("history list failed", slog.String("error", err.Error()))
		// Previously loaded entries ride along with the error state.
		c.JSON(http.StatusBadGateway, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/v1/history/:entryId
// Returns a single entry. With ?select=true the entry snapshot is also placed
// into the session's history slot for the results view to consume once.
func (h *Handler) Get(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("history-handler")

	userID, ok := auth.GetUserID(c)
	if !ok {
		apierrors.AbortWithUnauthorized(c, "unauthorized")
		return
	}

	entryID := c.Param("entryId")
	if entryID == "" {
		apierrors.AbortWithBadRequest(c, "entryId is required", nil)
		return
	}

	entry, err := h.service.Get(c.Request.Context(), userID, entryID)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			apierrors.AbortWithNotFound(c, "history entry not found", nil)
			return
		}
		log.Error("history get failed",
			slog.String("error", err.Error()),
			slog.String("entry_id", entryID))
		apierrors.AbortWithBadGateway(c, "failed to fetch history entry", nil)
		return
	}

	if c.Query("select") == "true" {
		sessionID := session.ID(c)
		if err := h.sessions.Put(sessionID, session.SlotHistorySnapshot, entry); err != nil {
			log.Error("failed to stage history snapshot", slog.String("error", err.Error()))
			apierrors.AbortWithInternal(c, "failed to stage history snapshot", nil)
			return
		}
		log.Info("history snapshot staged for results view",
			slog.String("entry_id", entryID))
	}

	c.JSON(http.StatusOK, entry)
}
