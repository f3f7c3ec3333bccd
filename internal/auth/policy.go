package auth

import "arsys/backend/internal/models"

// Action names a capability a handler can require. Every mutating entry
// point goes through CanPerform with one of these instead of comparing
// roles inline.
type Action string

const (
	ActionManageUsers    Action = "users.manage"
	ActionManageProfiles Action = "profiles.manage"
	ActionCreateTickets  Action = "tickets.create"
	ActionImportTickets  Action = "tickets.import"
	ActionDeleteTickets  Action = "tickets.delete"
	ActionRedeemCodes    Action = "codes.redeem"
	ActionViewAllTickets Action = "tickets.view_all"
	ActionViewSales      Action = "sales.view"
	ActionRefreshStore   Action = "store.refresh"
)

var rolePolicy = map[string]map[Action]bool{
	models.RoleAdmin: {
		ActionManageUsers:    true,
		ActionManageProfiles: true,
		ActionCreateTickets:  true,
		ActionImportTickets:  true,
		ActionDeleteTickets:  true,
		ActionRedeemCodes:    true,
		ActionViewAllTickets: true,
		ActionViewSales:      true,
		ActionRefreshStore:   true,
	},
	models.RoleClient: {
		ActionRedeemCodes:    true,
		ActionViewAllTickets: true,
		ActionViewSales:      true,
	},
}

// CanPerform reports whether the role is allowed to perform the action.
// Unknown roles and unknown actions are denied.
func CanPerform(role string, action Action) bool {
	return rolePolicy[role][action]
}
