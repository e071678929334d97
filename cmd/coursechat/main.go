package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/learnstack/coursechat/internal/config"
	dbRedis "github.com/learnstack/coursechat/internal/db/redis"
	logpkg "github.com/learnstack/coursechat/internal/logger"
	"github.com/learnstack/coursechat/internal/metrics"
	"github.com/learnstack/coursechat/internal/prompt"
	searchrepo "github.com/learnstack/coursechat/internal/repository/search"
	syllabusrepo "github.com/learnstack/coursechat/internal/repository/syllabus"
	"github.com/learnstack/coursechat/internal/transport/azsearch"
	chiTransport "github.com/learnstack/coursechat/internal/transport/chi"
	openaiTransport "github.com/learnstack/coursechat/internal/transport/openai"
	chatuc "github.com/learnstack/coursechat/internal/usecase/chat"
	healthuc "github.com/learnstack/coursechat/internal/usecase/health"
	retrievaluc "github.com/learnstack/coursechat/internal/usecase/retrieval"
	tutoruc "github.com/learnstack/coursechat/internal/usecase/tutor"
	"github.com/learnstack/coursechat/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting coursechat API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("search_index", cfg.Search.Index),
		zap.Strings("storage_addrs", cfg.Storage.Addrs),
	)

	// Syllabus storage
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Storage.Addrs,
		Username: cfg.Storage.Username,
		Password: cfg.Storage.Password,
		DB:       cfg.Storage.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create storage client", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Storage.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Storage not ready", zap.Error(err))
	}
	logger.Info("Connected to storage")

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	// Search backend client
	searchClient := azsearch.NewClient(&azsearch.Config{
		Endpoint:   cfg.Search.Endpoint,
		APIKey:     cfg.Search.APIKey,
		Index:      cfg.Search.Index,
		APIVersion: cfg.Search.APIVersion,
		Logger:     logger,
	})

	// Model providers
	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.EmbeddingModel,
		Logger:  logger,
	})
	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:    cfg.OpenAI.APIKey,
		BaseURL:   cfg.OpenAI.BaseURL,
		Model:     cfg.OpenAI.ChatModel,
		MaxTokens: cfg.OpenAI.MaxTokens,
		Logger:    logger,
	})

	// Prompt templates
	prompts := prompt.NewLoader(cfg.Prompts.Dir, logger)
	prompts.Preload()

	// Repositories
	searchRepo := searchrepo.New(searchClient, searchrepo.Config{
		SemanticConfig: cfg.Search.SemanticConfig,
		QueryLanguage:  cfg.Search.QueryLanguage,
	})
	syllabusRepo := syllabusrepo.New(store, cfg.Storage.KeyPrefix)

	// Use case services
	retrievalSvc := retrievaluc.New(searchRepo, embedder)
	chatSvc := chatuc.New(retrievalSvc, completer, syllabusRepo)
	tutorSvc := tutoruc.New(retrievalSvc, completer, prompts)
	healthSvc := healthuc.New(store, embedder, searchRepo)

	server := chiTransport.NewServer(chatSvc, tutorSvc, retrievalSvc, syllabusRepo, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
