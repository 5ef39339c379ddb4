package auth

import "slices"

// Roles.
const (
	RoleAdmin       = "admin"
	RolePharmacist  = "pharmacist"
	RoleCashier     = "cashier"
	RoleStorekeeper = "storekeeper"
)

// Permissions checked by the HTTP layer.
const (
	PermCatalogRead   = "catalog:read"
	PermCatalogWrite  = "catalog:write"
	PermStockRead     = "stock:read"
	PermStockAdjust   = "stock:adjust"
	PermPurchaseRead  = "purchase:read"
	PermPurchaseWrite = "purchase:write"
	PermBillingRead   = "billing:read"
	PermBillingWrite  = "billing:write"
	PermBillingRefund = "billing:refund"
	PermReturnsWrite  = "returns:write"
	PermIssueWrite    = "issue:write"
	PermUsersManage   = "users:manage"
)

var rolePermissions = map[string][]string{
	RoleAdmin: {
		PermCatalogRead, PermCatalogWrite, PermStockRead, PermStockAdjust,
		PermPurchaseRead, PermPurchaseWrite, PermBillingRead, PermBillingWrite,
		PermBillingRefund, PermReturnsWrite, PermIssueWrite, PermUsersManage,
	},
	RolePharmacist: {
		PermCatalogRead, PermCatalogWrite, PermStockRead, PermStockAdjust,
		PermPurchaseRead, PermBillingRead, PermBillingWrite, PermBillingRefund,
		PermReturnsWrite, PermIssueWrite,
	},
	RoleCashier: {
		PermCatalogRead, PermStockRead, PermBillingRead, PermBillingWrite,
	},
	RoleStorekeeper: {
		PermCatalogRead, PermStockRead, PermStockAdjust, PermPurchaseRead,
		PermPurchaseWrite, PermReturnsWrite, PermIssueWrite,
	},
}

// IsKnownRole reports whether role is one of the built-in roles.
func IsKnownRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// PermissionsFor returns a copy of the permissions granted to role.
func PermissionsFor(role string) []string {
	return slices.Clone(rolePermissions[role])
}
