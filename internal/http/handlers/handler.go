package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"arsys/backend/internal/config"
	authmw "arsys/backend/internal/http/middleware"
	"arsys/backend/internal/integrations"
	"arsys/backend/internal/rate"
	"arsys/backend/internal/repository"
	"arsys/backend/internal/store"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	repo         *repository.Repository
	store        *store.Store
	reports      *store.ReportCache
	s3           *integrations.S3Client
	cfg          *config.Config
	logger       *slog.Logger
	validator    *validator.Validate
	location     *time.Location
	loginLimiter *rate.WindowLimiter
}

func New(repo *repository.Repository, st *store.Store, reports *store.ReportCache, s3 *integrations.S3Client, cfg *config.Config, location *time.Location, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if location == nil {
		location = time.Local
	}
	return &Handler{
		repo:         repo,
		store:        st,
		reports:      reports,
		s3:           s3,
		cfg:          cfg,
		logger:       logger,
		validator:    validator.New(),
		location:     location,
		loginLimiter: rate.NewWindowLimiter(10, time.Minute),
	}
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 5*time.Second)
}

func (h *Handler) loggerForRequest(r *http.Request) *slog.Logger {
	logger := h.logger
	if logger == nil {
		return slog.Default()
	}
	if reqID := chimw.GetReqID(r.Context()); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if userName, ok := authmw.UserNameFromContext(r.Context()); ok {
		logger = logger.With("user_name", userName)
	}
	return logger
}
