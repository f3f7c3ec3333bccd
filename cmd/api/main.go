package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arsys/backend/internal/config"
	"arsys/backend/internal/db"
	"arsys/backend/internal/http/handlers"
	"arsys/backend/internal/http/middleware"
	"arsys/backend/internal/integrations"
	"arsys/backend/internal/logging"
	"arsys/backend/internal/repository"
	"arsys/backend/internal/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("log error: %v", err)
	}
	defer func() {
		_ = cleanup()
	}()
	logger = logger.With("service", "api")
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db error", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("timezone error", "timezone", cfg.Timezone, "error", err)
		os.Exit(1)
	}

	repo := repository.New(pool)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("redis error", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	var s3Client *integrations.S3Client
	if cfg.S3.Bucket != "" {
		s3Client, err = integrations.NewS3(ctx, cfg.S3)
		if err != nil {
			logger.Error("s3 error", "error", err)
			os.Exit(1)
		}
	}

	st := store.New(repo)
	st.Subscribe(func() {
		_, gen := st.Snapshot()
		logger.Info("snapshot_installed", "generation", gen)
	})
	if err := st.Refresh(ctx); err != nil {
		logger.Warn("initial snapshot load failed", "error", err)
	}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := st.Refresh(refreshCtx); err != nil {
				logger.Error("snapshot refresh failed", "error", err)
			}
			cancel()
		}
	}()

	reports := store.NewReportCache(redisClient)
	h := handlers.New(repo, st, reports, s3Client, cfg, location, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(10 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/healthz", h.Healthz)
	r.Post("/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		r.Get("/me", h.Me)

		r.Get("/users", h.ListUsers)
		r.Post("/users", h.CreateUser)
		r.Get("/users/{user}", h.GetUser)
		r.Delete("/users/{user}", h.DeleteUser)

		r.Get("/users/{user}/profiles", h.ListProfiles)
		r.Post("/users/{user}/profiles", h.CreateProfile)
		r.Get("/users/{user}/profiles/{profile}", h.GetProfile)
		r.Put("/users/{user}/profiles/{profile}", h.UpdateProfile)
		r.Delete("/users/{user}/profiles/{profile}", h.DeleteProfile)

		r.Get("/users/{user}/profiles/{profile}/tickets", h.ListTickets)
		r.Post("/users/{user}/profiles/{profile}/tickets", h.CreateTicket)
		r.Post("/users/{user}/profiles/{profile}/tickets/import", h.ImportTicket)
		r.Patch("/users/{user}/profiles/{profile}/tickets/codes/{code}", h.RedeemCodeByValue)
		r.Get("/users/{user}/profiles/{profile}/tickets/{ticket}", h.GetTicket)
		r.Delete("/users/{user}/profiles/{profile}/tickets/{ticket}", h.DeleteTicket)
		r.Patch("/users/{user}/profiles/{profile}/tickets/{ticket}/codes/{code}", h.RedeemCode)
		r.Get("/users/{user}/profiles/{profile}/tickets/{ticket}/export", h.ExportTicket)

		r.Get("/tickets", h.ListAllTickets)
		r.Get("/sales/report", h.SalesReport)
		r.Post("/admin/refresh", h.RefreshStore)
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		logger.Info("api_listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutdown", "service", "api")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
