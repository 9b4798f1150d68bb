package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"styleGallery/cmd/app"
	"styleGallery/internal/config"
	handlers "styleGallery/internal/handler"
	"styleGallery/internal/middleware"
	"styleGallery/pkg/logger"
)

func main() {
	// setting up config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, _, services, err := app.App(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to start application", zap.Error(err))
	}
	if db != nil {
		defer db.CloseDB()
	}

	handler := handlers.NewHandlers(services, cfg, zlog)

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	go limiter.RunCleanup(ctx, 10*time.Minute)

	router := NewRouter(handler, limiter, cfg)

	handlerChain := middleware.Chain(
		router,
		middleware.SecurityHeadersMiddleware,
		middleware.CORSMiddleware(cfg.CORSOrigin),
		middleware.LoggingMiddleware(zlog),
		middleware.RecoveryMiddleware(zlog),
	)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handlerChain,
		ReadHeaderTimeout: 10 * time.Second,
		// a try-on may take as long as the remote call is allowed to
		WriteTimeout: cfg.TryOn.Timeout + 30*time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		zlog.Info("server started",
			zap.String("addr", addr),
			zap.String("store", cfg.Store.Backend),
			zap.String("tryon", cfg.TryOn.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	zlog.Info("server exited")
}

// NewRouter registers the page routes and the JSON API.
func NewRouter(h *handlers.Handlers, limiter *middleware.IPRateLimiter, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()
	limited := middleware.RateLimitMiddleware(limiter)

	// setting up routes
	r.HandleFunc("/", h.Home).Methods(http.MethodGet)
	r.Handle("/tryon", limited(http.HandlerFunc(h.TryOnPage))).Methods(http.MethodPost)
	r.HandleFunc("/post", h.PostOutfitPage).Methods(http.MethodPost)
	r.HandleFunc("/gallery/vote", h.GalleryVote).Methods(http.MethodPost)
	r.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	r.PathPrefix("/outfits/").Handler(
		http.StripPrefix("/outfits/", handlers.OutfitFiles(cfg.Store.PostsFolder))).
		Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/posts", h.GetPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts", h.CreatePost).Methods(http.MethodPost)
	api.Handle("/tryon", limited(http.HandlerFunc(h.TryOnAPI))).Methods(http.MethodPost)
	api.HandleFunc("/posts/{index:-?[0-9]+}/vote", h.Vote).Methods(http.MethodPost)
	api.HandleFunc("/posts/id/{id}/vote", h.VoteByID).Methods(http.MethodPost)

	return r
}
