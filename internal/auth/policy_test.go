package auth

import (
	"testing"

	"arsys/backend/internal/models"
)

// TestCanPerform verifies can perform behavior.
func TestCanPerform(t *testing.T) {
	cases := []struct {
		role   string
		action Action
		want   bool
	}{
		{models.RoleAdmin, ActionManageUsers, true},
		{models.RoleAdmin, ActionDeleteTickets, true},
		{models.RoleAdmin, ActionRefreshStore, true},
		{models.RoleClient, ActionRedeemCodes, true},
		{models.RoleClient, ActionViewSales, true},
		{models.RoleClient, ActionManageUsers, false},
		{models.RoleClient, ActionCreateTickets, false},
		{models.RoleClient, ActionImportTickets, false},
		{models.RoleClient, ActionDeleteTickets, false},
		{models.RoleClient, ActionRefreshStore, false},
		{"", ActionRedeemCodes, false},
		{"superuser", ActionManageUsers, false},
		{models.RoleAdmin, Action("unknown"), false},
	}
	for _, c := range cases {
		if got := CanPerform(c.role, c.action); got != c.want {
			t.Fatalf("CanPerform(%q, %q) = %v, want %v", c.role, c.action, got, c.want)
		}
	}
}

// TestSignAndParseAccessToken verifies sign and parse access token behavior.
func TestSignAndParseAccessToken(t *testing.T) {
	token, err := SignAccessToken("secret", "ana", models.RoleAdmin)
	if err != nil {
		t.Fatalf("SignAccessToken: %v", err)
	}
	claims, err := ParseAccessToken("secret", token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserName != "ana" || claims.Role != models.RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := ParseAccessToken("wrong", token); err == nil {
		t.Fatalf("expected error for wrong secret")
	}
}
