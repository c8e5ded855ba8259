package results

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studygeni/study-gateway/internal/history"
	"github.com/studygeni/study-gateway/internal/logger"
	"github.com/studygeni/study-gateway/internal/session"
)

func newTestRouter(t *testing.T) (*gin.Engine, *session.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New(logger.Config{Level: slog.LevelError})
	sessions := session.NewStore(time.Hour)
	svc := NewService(&fakeInvoker{}, history.NewService(&fakeHistoryBackend{}, log), sessions, log)
	handler := NewHandler(svc, log)

	router := gin.New()
	api := router.Group("/api/v1")
	api.Use(session.Middleware())
	api.POST("/generate", handler.Generate)
	api.GET("/results", handler.Resolve)
	api.POST("/quiz/score", handler.ScoreQuiz)

	return router, sessions
}

func TestGenerateEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"input_method":"topic","topic":"Photosynthesis","purpose":"revision","difficulty_level":"beginner"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	// A fresh session ID is minted and echoed back.
	assert.NotEmpty(t, w.Header().Get(session.HeaderName))

	var view ViewData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, SourceGenerated, view.Source)
	assert.Equal(t, "canned summary", view.Result.Summary)
}

func TestGenerateEndpointValidationFailure(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"input_method":"topic","topic":"","purpose":"revision","difficulty_level":"beginner"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "topic")
}

func TestResolveEndpointNoData(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/results", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveEndpointServesCachedResult(t *testing.T) {
	router, sessions := newTestRouter(t)

	require.NoError(t, sessions.Put("page-1", session.SlotGeneratedResult, cannedResult()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/results", nil)
	req.Header.Set(session.HeaderName, "page-1")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var view ViewData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, SourceCache, view.Source)

	// The slot was consumed by the first resolve.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScoreQuizEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	payload, err := json.Marshal(ScoreRequest{
		Quiz:       threeQuestionQuiz(),
		Selections: []int{0, 1, 0},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quiz/score", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Score)
	assert.Equal(t, 3, resp.Total)
}

func TestScoreQuizEndpointIncomplete(t *testing.T) {
	router, _ := newTestRouter(t)

	payload, err := json.Marshal(ScoreRequest{
		Quiz:       threeQuestionQuiz(),
		Selections: []int{0},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quiz/score", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
