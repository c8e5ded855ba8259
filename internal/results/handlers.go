package results

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studygeni/study-gateway/internal/auth"
	apierrors "github.com/studygeni/study-gateway/internal/errors"
	"github.com/studygeni/study-gateway/internal/logger"
	"github.com/studygeni/study-gateway/internal/session"
	"github.com/studygeni/study-gateway/internal/studymaterial"
)

// Handler handles HTTP requests for generation and the results view.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new results handler.
func NewHandler(service *Service, logger *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Generate handles POST /api/v1/generate
// Runs a text or topic generation and returns the result directly. Auth is
// optional: signed-in users additionally get a history entry.
func (h *Handler) Generate(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("results-handler")

	var req studymaterial.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.AbortWithBadRequest(c, "invalid request body", map[string]interface{}{"detail": err.Error()})
		return
	}

	userID, _ := auth.GetUserID(c)

	view, err := h.service.Generate(c.Request.Context(), userID, &req)
	if err != nil {
		h.abortWithGenerationError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// GenerateFile handles POST /api/v1/generate/file
// Runs a file generation through the same path as text/topic. The file gate
// (type, 5 MiB limit) runs before the payload is read into memory.
func (h *Handler) GenerateFile(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("results-handler")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apierrors.AbortWithBadRequest(c, "a file must be selected", nil)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if err := studymaterial.ValidateFileSelection(fileHeader.Filename, contentType, fileHeader.Size); err != nil {
		h.abortWithGenerationError(c, log, err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apierrors.AbortWithInternal(c, "failed to open uploaded file", nil)
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(file, studymaterial.MaxFileSize+1))
	if err != nil {
		apierrors.AbortWithInternal(c, "failed to read uploaded file", nil)
		return
	}
	if int64(len(data)) > studymaterial.MaxFileSize {
		apierrors.AbortWithBadRequest(c, "file exceeds the 5 MiB limit", nil)
		return
	}

	req := &studymaterial.FileRequest{
		Filename:        fileHeader.Filename,
		ContentType:     contentType,
		Size:            int64(len(data)),
		Data:            data,
		Purpose:         studymaterial.StudyPurpose(c.PostForm("purpose")),
		DifficultyLevel: studymaterial.DifficultyLevel(c.PostForm("difficulty_level")),
		GeminiAPIKey:    c.PostForm("gemini_api_key"),
	}

	userID, _ := auth.GetUserID(c)

	view, err := h.service.GenerateFromFile(c.Request.Context(), userID, req)
	if err != nil {
		h.abortWithGenerationError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// StagePending handles POST /api/v1/results/pending
// Stores a validated text/topic submission for the next results view load.
func (h *Handler) StagePending(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("results-handler")

	var req studymaterial.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.AbortWithBadRequest(c, "invalid request body", map[string]interface{}{"detail": err.Error()})
		return
	}

	if err := h.service.StagePending(session.ID(c), &req); err != nil {
		h.abortWithGenerationError(c, log, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"staged": true})
}

// StageResult handles POST /api/v1/results/cache
// Stores a generation result into the session cache slot for a single later
// read, overwriting any prior value.
func (h *Handler) StageResult(c *gin.Context) {
	var result studymaterial.Result
	if err := c.ShouldBindJSON(&result); err != nil {
		apierrors.AbortWithBadRequest(c, "invalid request body", map[string]interface{}{"detail": err.Error()})
		return
	}

	if err := h.service.StageResult(session.ID(c), &result); err != nil {
		apierrors.AbortWithInternal(c, "failed to cache result", nil)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"staged": true})
}

// Resolve handles GET /api/v1/results
// Picks the display source in fixed priority order. Returns 404 when nothing
// is staged and no pending submission exists.
func (h *Handler) Resolve(c *gin.Context) {
	log := h.logger.WithContext(c.Request.Context()).WithComponent("results-handler")

	userID, _ := auth.GetUserID(c)

	view, err := h.service.Resolve(c.Request.Context(), session.ID(c), userID)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			apierrors.AbortWithNotFound(c, "no study material available", nil)
			return
		}
		h.abortWithGenerationError(c, log, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ScoreQuiz handles POST /api/v1/quiz/score
// Local scoring; never touches the backend.
func (h *Handler) ScoreQuiz(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.AbortWithBadRequest(c, "invalid request body", map[string]interface{}{"detail": err.Error()})
		return
	}

	score, err := ScoreQuiz(req.Quiz, req.Selections)
	if err != nil {
		apierrors.AbortWithBadRequest(c, err.Error(), nil)
		return
	}

	c.JSON(http.StatusOK, ScoreResponse{Score: score, Total: len(req.Quiz)})
}

// abortWithGenerationError maps the failure taxonomy onto HTTP responses:
// validation → 400, transport → 502, backend status relayed verbatim,
// malformed payloads → 502.
func (h *Handler) abortWithGenerationError(c *gin.Context, log *logger.Logger, err error) {
	var (
		validationErr *studymaterial.ValidationError
		networkErr    *studymaterial.NetworkError
		remoteErr     *studymaterial.RemoteError
		parseErr      *studymaterial.ParseError
	)

	switch {
	case errors.As(err, &validationErr):
		apierrors.AbortWithBadRequest(c, validationErr.Reason, map[string]interface{}{"field": validationErr.Field})
	case errors.As(err, &networkErr):
		log.Error("generation backend unreachable", slog.String("error", err.Error()))
		apierrors.AbortWithBadGateway(c, "generation service unreachable, please try again", nil)
	case errors.As(err, &remoteErr):
		log.Error("generation backend error",
			slog.Int("status", remoteErr.Status),
			slog.String("detail", remoteErr.Detail))
		c.AbortWithStatusJSON(remoteErr.Status, apierrors.NewAPIError(remoteErr.Detail, nil))
	case errors.As(err, &parseErr):
		log.Error("malformed generation payload", slog.String("error", err.Error()))
		apierrors.AbortWithBadGateway(c, "generation service returned an unreadable response", nil)
	default:
		log.Error("generation failed", slog.String("error", err.Error()))
		apierrors.AbortWithInternal(c, "failed to generate study materials", nil)
	}
}
