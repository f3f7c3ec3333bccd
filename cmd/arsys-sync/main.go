package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"arsys/backend/internal/config"
	"arsys/backend/internal/db"
	"arsys/backend/internal/logging"
	"arsys/backend/internal/repository"
	"arsys/backend/internal/upstream"

	"github.com/google/uuid"
)

// arsys-sync pulls users, profiles and tickets from a remote ticket API
// and imports them into the local database.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.UpstreamURL == "" {
		log.Fatalf("UPSTREAM_URL is required")
	}

	logger, cleanup, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("log error: %v", err)
	}
	defer func() {
		_ = cleanup()
	}()
	logger = logger.With("service", "sync")
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db error", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := repository.New(pool)
	client := upstream.NewClient(upstream.Config{
		BaseURL: cfg.UpstreamURL,
		Token:   cfg.UpstreamToken,
	}, nil, logger)

	logger.Info("sync_started", "upstream", cfg.UpstreamURL)
	users, profiles, tickets, err := client.FetchAll(ctx)
	if err != nil {
		logger.Error("fetch error", "error", err)
		os.Exit(1)
	}
	logger.Info("sync_fetched", "users", len(users), "profiles", len(profiles), "tickets", len(tickets))

	for _, user := range users {
		if err := repo.UpsertUser(ctx, user); err != nil {
			logger.Error("user import error", "user_name", user.UserName, "error", err)
			os.Exit(1)
		}
	}
	for _, profile := range profiles {
		if err := repo.UpsertProfile(ctx, profile); err != nil {
			logger.Error("profile import error", "user_name", profile.UserName, "profile", profile.Name, "error", err)
			os.Exit(1)
		}
	}
	imported := 0
	for _, ft := range tickets {
		// Remote ids are opaque strings; map them onto stable uuids so
		// re-running the sync updates rather than duplicates.
		ft.Ticket.TicketID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(ft.User+"/"+ft.Profile+"/"+ft.Ticket.TicketID)).String()
		if err := repo.ImportFullTicket(ctx, ft); err != nil {
			logger.Error("ticket import error", "ticket", ft.Ticket.TicketID, "error", err)
			os.Exit(1)
		}
		imported++
	}

	logger.Info("sync_done", "users", len(users), "profiles", len(profiles), "tickets", imported)
}
