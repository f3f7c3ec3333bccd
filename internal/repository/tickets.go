package repository

import (
	"context"
	"database/sql"
	"time"

	"arsys/backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) ListTickets(ctx context.Context, userName, profileName string) ([]models.Ticket, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id::text, created_at
FROM tickets
WHERE user_name = $1 AND profile_name = $2
ORDER BY created_at`, userName, profileName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]models.Ticket, 0)
	index := make(map[string]int)
	for rows.Next() {
		var t models.Ticket
		var createdAt time.Time
		if err := rows.Scan(&t.TicketID, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = models.InstantFromTime(createdAt)
		t.Codes = make([]models.Code, 0)
		index[t.TicketID] = len(tickets)
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	codeRows, err := r.pool.Query(ctx, `
SELECT c.ticket_id::text, c.value, c.used, c.used_at
FROM codes c
JOIN tickets t ON t.id = c.ticket_id
WHERE t.user_name = $1 AND t.profile_name = $2
ORDER BY c.value`, userName, profileName)
	if err != nil {
		return nil, err
	}
	defer codeRows.Close()

	for codeRows.Next() {
		ticketID, code, err := scanCode(codeRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[ticketID]; ok {
			tickets[i].Codes = append(tickets[i].Codes, code)
		}
	}
	return tickets, codeRows.Err()
}

func (r *Repository) GetTicket(ctx context.Context, userName, profileName, ticketID string) (models.Ticket, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id::text, created_at
FROM tickets
WHERE id = $1::uuid AND user_name = $2 AND profile_name = $3`, ticketID, userName, profileName)
	var t models.Ticket
	var createdAt time.Time
	if err := row.Scan(&t.TicketID, &createdAt); err != nil {
		return models.Ticket{}, err
	}
	t.CreatedAt = models.InstantFromTime(createdAt)
	t.Codes = make([]models.Code, 0)

	rows, err := r.pool.Query(ctx, `
SELECT ticket_id::text, value, used, used_at
FROM codes
WHERE ticket_id = $1::uuid
ORDER BY value`, ticketID)
	if err != nil {
		return models.Ticket{}, err
	}
	defer rows.Close()
	for rows.Next() {
		_, code, err := scanCode(rows)
		if err != nil {
			return models.Ticket{}, err
		}
		t.Codes = append(t.Codes, code)
	}
	return t, rows.Err()
}

// CreateTicket inserts a ticket holding the given code values, all
// unused. Used both for generated batches and router imports.
func (r *Repository) CreateTicket(ctx context.Context, userName, profileName string, codeValues []string) (models.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return models.Ticket{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ticketID := uuid.NewString()
	var createdAt time.Time
	if err := tx.QueryRow(ctx, `
INSERT INTO tickets (id, user_name, profile_name)
VALUES ($1::uuid, $2, $3)
RETURNING created_at`, ticketID, userName, profileName).Scan(&createdAt); err != nil {
		return models.Ticket{}, err
	}

	ticket := models.Ticket{
		TicketID:  ticketID,
		CreatedAt: models.InstantFromTime(createdAt),
		Codes:     make([]models.Code, 0, len(codeValues)),
	}
	for _, value := range codeValues {
		if _, err := tx.Exec(ctx, `
INSERT INTO codes (ticket_id, value, used)
VALUES ($1::uuid, $2, false)`, ticketID, value); err != nil {
			return models.Ticket{}, err
		}
		ticket.Codes = append(ticket.Codes, models.Code{Value: value})
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Ticket{}, err
	}
	return ticket, nil
}

func (r *Repository) DeleteTicket(ctx context.Context, userName, profileName, ticketID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
DELETE FROM tickets
WHERE id = $1::uuid AND user_name = $2 AND profile_name = $3`, ticketID, userName, profileName)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RedeemCode marks one code used. Returns ErrCodeUsed if it was already
// redeemed and pgx.ErrNoRows if no such code exists.
func (r *Repository) RedeemCode(ctx context.Context, userName, profileName, ticketID, value string) (models.Ticket, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE codes SET used = true, used_at = now()
WHERE ticket_id = $1::uuid AND value = $2 AND used = false
AND EXISTS (
	SELECT 1 FROM tickets t
	WHERE t.id = codes.ticket_id AND t.user_name = $3 AND t.profile_name = $4
)`, ticketID, value, userName, profileName)
	if err != nil {
		return models.Ticket{}, err
	}
	if tag.RowsAffected() == 0 {
		var used bool
		err := r.pool.QueryRow(ctx, `
SELECT c.used
FROM codes c
JOIN tickets t ON t.id = c.ticket_id
WHERE c.ticket_id = $1::uuid AND c.value = $2 AND t.user_name = $3 AND t.profile_name = $4`,
			ticketID, value, userName, profileName).Scan(&used)
		if err != nil {
			return models.Ticket{}, err
		}
		return models.Ticket{}, ErrCodeUsed
	}
	return r.GetTicket(ctx, userName, profileName, ticketID)
}

// RedeemCodeByValue locates the code by value across the profile's
// tickets and marks it used.
func (r *Repository) RedeemCodeByValue(ctx context.Context, userName, profileName, value string) (models.Ticket, error) {
	var ticketID string
	err := r.pool.QueryRow(ctx, `
SELECT t.id::text
FROM tickets t
JOIN codes c ON c.ticket_id = t.id
WHERE t.user_name = $1 AND t.profile_name = $2 AND c.value = $3 AND c.used = false
ORDER BY t.created_at
LIMIT 1`, userName, profileName, value).Scan(&ticketID)
	if err == pgx.ErrNoRows {
		// Either the code does not exist or it is already used.
		var usedTicketID string
		if lookupErr := r.pool.QueryRow(ctx, `
SELECT t.id::text
FROM tickets t
JOIN codes c ON c.ticket_id = t.id
WHERE t.user_name = $1 AND t.profile_name = $2 AND c.value = $3
LIMIT 1`, userName, profileName, value).Scan(&usedTicketID); lookupErr != nil {
			return models.Ticket{}, lookupErr
		}
		return models.Ticket{}, ErrCodeUsed
	}
	if err != nil {
		return models.Ticket{}, err
	}
	return r.RedeemCode(ctx, userName, profileName, ticketID, value)
}

// ListFullTickets assembles every ticket across all users and profiles
// with its reporting context, the aggregate the sales engine consumes.
func (r *Repository) ListFullTickets(ctx context.Context) ([]models.FullTicket, error) {
	rows, err := r.pool.Query(ctx, `
SELECT t.id::text, t.user_name, t.profile_name, p.server, p.uptime, t.created_at
FROM tickets t
JOIN profiles p ON p.user_name = t.user_name AND p.name = t.profile_name
ORDER BY t.user_name, t.profile_name, t.created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]models.FullTicket, 0)
	index := make(map[string]int)
	for rows.Next() {
		var ft models.FullTicket
		var createdAt time.Time
		if err := rows.Scan(&ft.Ticket.TicketID, &ft.User, &ft.Profile, &ft.Server, &ft.Uptime, &createdAt); err != nil {
			return nil, err
		}
		ft.Ticket.CreatedAt = models.InstantFromTime(createdAt)
		ft.Ticket.Codes = make([]models.Code, 0)
		index[ft.Ticket.TicketID] = len(tickets)
		tickets = append(tickets, ft)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	codeRows, err := r.pool.Query(ctx, `
SELECT ticket_id::text, value, used, used_at
FROM codes
ORDER BY ticket_id, value`)
	if err != nil {
		return nil, err
	}
	defer codeRows.Close()
	for codeRows.Next() {
		ticketID, code, err := scanCode(codeRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[ticketID]; ok {
			tickets[i].Ticket.Codes = append(tickets[i].Ticket.Codes, code)
		}
	}
	return tickets, codeRows.Err()
}

// LoadTickets makes the repository a ticket source for the store.
func (r *Repository) LoadTickets(ctx context.Context) ([]models.FullTicket, error) {
	return r.ListFullTickets(ctx)
}

func scanCode(rows pgx.Rows) (string, models.Code, error) {
	var ticketID string
	var code models.Code
	var usedAt sql.NullTime
	if err := rows.Scan(&ticketID, &code.Value, &code.Used, &usedAt); err != nil {
		return "", models.Code{}, err
	}
	if usedAt.Valid {
		instant := models.InstantFromTime(usedAt.Time)
		code.UsedAt = &instant
	}
	return ticketID, code, nil
}
