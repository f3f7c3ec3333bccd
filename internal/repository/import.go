package repository

import (
	"context"
	"time"

	"arsys/backend/internal/models"
)

// UpsertUser inserts or updates a synced user. Imported accounts keep
// whatever password hash they already have locally; fresh rows get an
// empty hash and cannot log in until one is set.
func (r *Repository) UpsertUser(ctx context.Context, user models.User) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO users (user_name, full_name, email, tlfn, role, password_hash)
VALUES ($1, $2, $3, $4, $5, '')
ON CONFLICT (user_name) DO UPDATE
SET full_name = EXCLUDED.full_name,
	email = EXCLUDED.email,
	tlfn = EXCLUDED.tlfn,
	role = EXCLUDED.role,
	updated_at = now()`, user.UserName, user.FullName, user.Email, user.Tlfn, user.Role)
	return err
}

// UpsertProfile inserts or updates a synced profile.
func (r *Repository) UpsertProfile(ctx context.Context, profile models.Profile) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO profiles (user_name, name, uptime, server)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_name, name) DO UPDATE
SET uptime = EXCLUDED.uptime,
	server = EXCLUDED.server`, profile.UserName, profile.Name, profile.Uptime, profile.Server)
	return err
}

// ImportFullTicket replays a remote ticket, keeping its id, creation
// time and each code's redemption state.
func (r *Repository) ImportFullTicket(ctx context.Context, ft models.FullTicket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `
INSERT INTO tickets (id, user_name, profile_name, created_at)
VALUES ($1::uuid, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`, ft.Ticket.TicketID, ft.User, ft.Profile, ft.Ticket.CreatedAt.Time()); err != nil {
		return err
	}
	for _, code := range ft.Ticket.Codes {
		var usedAt *time.Time
		if code.UsedAt != nil && !code.UsedAt.IsZero() {
			t := code.UsedAt.Time()
			usedAt = &t
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO codes (ticket_id, value, used, used_at)
VALUES ($1::uuid, $2, $3, $4)
ON CONFLICT (ticket_id, value) DO UPDATE
SET used = EXCLUDED.used,
	used_at = EXCLUDED.used_at`, ft.Ticket.TicketID, code.Value, code.Used, usedAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
