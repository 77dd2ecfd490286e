package security

// Role is the coarse access level carried in the auth token.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// Permission names are fixed strings shared with the API clients.
const (
	PermViewStock        = "view_stock"
	PermViewLedger       = "view_ledger"
	PermAdjustStock      = "adjust_stock"
	PermCreateReceipt    = "create_receipt"
	PermValidateReceipt  = "validate_receipt"
	PermCreateDelivery   = "create_delivery"
	PermValidateDelivery = "validate_delivery"
	PermCreateTransfer   = "create_transfer"
	PermValidateTransfer = "validate_transfer"
)

// rolePermissions maps each role to its permission set.
// Staff can draft documents but never validate them; validation (the stock-
// affecting transition) is reserved to admin and manager.
var rolePermissions = map[Role]map[string]bool{
	RoleAdmin: permSet(
		PermViewStock, PermViewLedger, PermAdjustStock,
		PermCreateReceipt, PermValidateReceipt,
		PermCreateDelivery, PermValidateDelivery,
		PermCreateTransfer, PermValidateTransfer,
	),
	RoleManager: permSet(
		PermViewStock, PermViewLedger, PermAdjustStock,
		PermCreateReceipt, PermValidateReceipt,
		PermCreateDelivery, PermValidateDelivery,
		PermCreateTransfer, PermValidateTransfer,
	),
	RoleStaff: permSet(
		PermViewStock, PermViewLedger,
		PermCreateReceipt, PermCreateDelivery, PermCreateTransfer,
	),
}

func permSet(perms ...string) map[string]bool {
	s := make(map[string]bool, len(perms))
	for _, p := range perms {
		s[p] = true
	}
	return s
}

// HasPermission reports whether the role grants the named permission.
// Unknown roles grant nothing.
func HasPermission(role Role, permission string) bool {
	return rolePermissions[role][permission]
}

// ParseRole normalizes a role string from token claims.
// Unknown values come back as-is so they fail permission checks instead of
// being silently promoted.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleStaff:
		return Role(s)
	default:
		return ""
	}
}
