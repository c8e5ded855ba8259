package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/studygeni/study-gateway/internal/auth"
	"github.com/studygeni/study-gateway/internal/config"
	"github.com/studygeni/study-gateway/internal/feedback"
	"github.com/studygeni/study-gateway/internal/history"
	"github.com/studygeni/study-gateway/internal/logger"
	"github.com/studygeni/study-gateway/internal/metrics"
	"github.com/studygeni/study-gateway/internal/results"
	"github.com/studygeni/study-gateway/internal/session"
	"github.com/studygeni/study-gateway/internal/studymaterial"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	log := logger.New(logger.FromConfig(cfg.LogLevel, cfg.LogFormat))

	log.Info("setting gin mode", slog.String("mode", cfg.GinMode))
	gin.SetMode(cfg.GinMode)

	tokenValidator, err := newTokenValidator(cfg, log)
	if err != nil {
		log.Error("failed to initialize token validator", slog.String("error", err.Error()))
		os.Exit(1)
	}
	authMiddleware := auth.NewMiddleware(tokenValidator)

	firestoreClient, err := history.NewFirestoreClient(context.Background(), cfg.FirebaseProjectID, cfg.FirebaseCredJSON)
	if err != nil {
		log.Error("failed to initialize Firestore client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer firestoreClient.Close() //nolint:errcheck

	// Session store with periodic sweep of expired page sessions.
	sessions := session.NewStore(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.SessionSweepSchedule, func() {
		if removed := sessions.Sweep(); removed > 0 {
			log.Info("swept expired sessions", slog.Int("removed", removed))
		}
	}); err != nil {
		log.Error("failed to schedule session sweep", slog.String("error", err.Error()))
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// Services.
	genClient := studymaterial.NewClient(cfg.GenerationBackend.BaseURL, cfg.BackendTimeout(), cfg.GenerationBackend.DefaultGeminiKey, log)
	historyService := history.NewService(history.NewFirestoreBackend(firestoreClient), log)
	resultsService := results.NewService(genClient, historyService, sessions, log)
	feedbackService := feedback.NewService(cfg.GenerationBackend.BaseURL, log)

	// Handlers.
	resultsHandler := results.NewHandler(resultsService, log)
	historyHandler := history.NewHandler(historyService, sessions, log)
	feedbackHandler := feedback.NewHandler(feedbackService, log)

	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadBytes

	router.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Split(cfg.CORSAllowedOrigins, ","),
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", session.HeaderName},
		ExposeHeaders: []string{session.HeaderName},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(requestIDMiddleware())

	// Liveness: reports the gateway and the generation backend.
	router.GET("/health", func(c *gin.Context) {
		backend, err := genClient.Health(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": backend.Status})
	})

	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api/v1")
	api.Use(session.Middleware())
	{
		// Generation and results work signed-out; a valid token adds history.
		open := api.Group("/")
		open.Use(authMiddleware.OptionalAuth())
		{
			open.POST("/generate", resultsHandler.Generate)
			open.POST("/generate/file", resultsHandler.GenerateFile)
			open.GET("/results", resultsHandler.Resolve)
			open.POST("/results/pending", resultsHandler.StagePending)
			open.POST("/results/cache", resultsHandler.StageResult)
			open.POST("/quiz/score", resultsHandler.ScoreQuiz)
			open.POST("/feedback", feedbackHandler.Send)
		}

		// History is per-user and requires auth.
		hist := api.Group("/history")
		hist.Use(authMiddleware.RequireAuth())
		{
			hist.GET("", historyHandler.List)
			hist.GET("/:entryId", historyHandler.Get)
		}
	}

	port := ":" + cfg.Port
	log.Info("study gateway listening", slog.String("port", port), slog.String("backend", cfg.GenerationBackend.BaseURL))

	srv := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ServerShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server exited")
}

// requestIDMiddleware assigns a request ID so every log line of one request
// can be correlated.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = logger.GenerateRequestID()
		}

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func newTokenValidator(cfg *config.Config, log *logger.Logger) (auth.TokenValidator, error) {
	switch cfg.ValidatorType {
	case "firebase":
		if cfg.FirebaseProjectID == "" {
			return nil, errors.New("firebase project ID is required")
		}

		log.Info("creating Firebase token validator", slog.String("project_id", cfg.FirebaseProjectID))
		return auth.NewFirebaseTokenValidator(context.Background(), cfg.FirebaseCredJSON)

	case "jwk":
		log.Info("creating JWT token validator", slog.String("jwks_url", cfg.JWTJWKSURL))
		return auth.NewJWTTokenValidator(cfg.JWTJWKSURL)

	default:
		return nil, errors.New("validator type must be either 'firebase' or 'jwk'")
	}
}
