package repository

import (
	"context"
	"os"
	"sync"
	"testing"

	"arsys/backend/internal/db"
	"arsys/backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestTicketLifecycle(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("db connection: %v", err)
	}
	defer pool.Close()

	repo := New(pool)

	userName := "repo_lifecycle_test"
	if err := insertTestUserWithProfile(ctx, pool, userName, "2h"); err != nil {
		t.Fatalf("insert user/profile: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE user_name = $1`, userName)
	})

	ticket, err := repo.CreateTicket(ctx, userName, "2h", []string{"aaa111", "bbb222"})
	if err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	if len(ticket.Codes) != 2 {
		t.Fatalf("expected 2 codes, got %d", len(ticket.Codes))
	}
	if ticket.CreatedAt.IsZero() {
		t.Fatalf("created ticket has zero timestamp")
	}

	got, err := repo.GetTicket(ctx, userName, "2h", ticket.TicketID)
	if err != nil {
		t.Fatalf("get ticket: %v", err)
	}
	if got.TicketID != ticket.TicketID || len(got.Codes) != 2 {
		t.Fatalf("get ticket mismatch: %+v", got)
	}

	redeemed, err := repo.RedeemCode(ctx, userName, "2h", ticket.TicketID, "aaa111")
	if err != nil {
		t.Fatalf("redeem code: %v", err)
	}
	var found bool
	for _, code := range redeemed.Codes {
		if code.Value == "aaa111" {
			found = true
			if !code.Used || code.UsedAt == nil {
				t.Fatalf("redeemed code missing used state: %+v", code)
			}
		}
	}
	if !found {
		t.Fatalf("redeemed code not present in ticket")
	}

	if _, err := repo.RedeemCode(ctx, userName, "2h", ticket.TicketID, "aaa111"); err != ErrCodeUsed {
		t.Fatalf("expected ErrCodeUsed on second redeem, got %v", err)
	}
	if _, err := repo.RedeemCode(ctx, userName, "2h", ticket.TicketID, "zzz999"); err != pgx.ErrNoRows {
		t.Fatalf("expected ErrNoRows for unknown code, got %v", err)
	}

	full, err := repo.ListFullTickets(ctx)
	if err != nil {
		t.Fatalf("list full tickets: %v", err)
	}
	found = false
	for _, ft := range full {
		if ft.Ticket.TicketID == ticket.TicketID {
			found = true
			if ft.User != userName || ft.Profile != "2h" || ft.Uptime != "2h" {
				t.Fatalf("full ticket context mismatch: %+v", ft)
			}
		}
	}
	if !found {
		t.Fatalf("full ticket listing missing created ticket")
	}

	deleted, err := repo.DeleteTicket(ctx, userName, "2h", ticket.TicketID)
	if err != nil || !deleted {
		t.Fatalf("delete ticket: deleted=%v err=%v", deleted, err)
	}
	if _, err := repo.GetTicket(ctx, userName, "2h", ticket.TicketID); err != pgx.ErrNoRows {
		t.Fatalf("expected ErrNoRows after delete, got %v", err)
	}
}

func TestRedeemCodeByValueAtomicity(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("db connection: %v", err)
	}
	defer pool.Close()

	repo := New(pool)

	userName := "repo_redeem_test"
	if err := insertTestUserWithProfile(ctx, pool, userName, "4h"); err != nil {
		t.Fatalf("insert user/profile: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, `DELETE FROM users WHERE user_name = $1`, userName)
	})

	if _, err := repo.CreateTicket(ctx, userName, "4h", []string{"race01"}); err != nil {
		t.Fatalf("create ticket: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.RedeemCodeByValue(ctx, userName, "4h", "race01")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	alreadyUsed := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case err == ErrCodeUsed:
			alreadyUsed++
		default:
			t.Fatalf("unexpected redeem error: %v", err)
		}
	}
	if success != 1 || alreadyUsed != 1 {
		t.Fatalf("expected one success and one already used, got success=%d alreadyUsed=%d", success, alreadyUsed)
	}
}

func insertTestUserWithProfile(ctx context.Context, pool *pgxpool.Pool, userName, profileName string) error {
	if _, err := pool.Exec(ctx, `
INSERT INTO users (user_name, full_name, email, tlfn, role, password_hash)
VALUES ($1, 'Repo Test', $1 || '@example.test', '000000000', $2, 'x')
ON CONFLICT (user_name) DO NOTHING;`, userName, models.RoleClient); err != nil {
		return err
	}
	_, err := pool.Exec(ctx, `
INSERT INTO profiles (user_name, name, uptime, server)
VALUES ($1, $2, $2, 'hotspot1')
ON CONFLICT (user_name, name) DO NOTHING;`, userName, profileName)
	return err
}
