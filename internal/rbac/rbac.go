// Package rbac maps roles to permission sets and answers allow/deny checks.
package rbac

import "errors"

var ErrInsufficientPermissions = errors.New("insufficient permissions")

// Roles recognized by the service. New users default to RoleEmployee.
const (
	RoleSuperAdmin         = "super_admin"
	RoleAdmin              = "admin"
	RoleManager            = "manager"
	RoleAccountant         = "accountant"
	RoleFinanceManager     = "finance_manager"
	RoleAuditor            = "auditor"
	RoleBookkeeper         = "bookkeeper"
	RoleTaxSpecialist      = "tax_specialist"
	RolePayrollSpecialist  = "payroll_specialist"
	RoleAccountsReceivable = "accounts_receivable"
	RoleAccountsPayable    = "accounts_payable"
	RoleFinancialAnalyst   = "financial_analyst"
	RoleController         = "controller"
	RoleCFO                = "cfo"
	RoleEmployee           = "employee"
	RoleClient             = "client"
	RoleVendor             = "vendor"
	RoleGuest              = "guest"
)

// Account statuses.
const (
	StatusActive              = "active"
	StatusInactive            = "inactive"
	StatusSuspended           = "suspended"
	StatusPendingVerification = "pending_verification"
	StatusLocked              = "locked"
)

// Wildcard grants every permission to the holding role.
const Wildcard = "*"

// rolePermissions is the fixed grant table. Roles not listed here hold no
// permissions at all. A `resource:*` entry only matches a check for the
// literal string `resource:*`, not for `resource:action` — membership is
// exact apart from the universal wildcard.
var rolePermissions = map[string][]string{
	RoleSuperAdmin:     {Wildcard},
	RoleAdmin:          {"users:*", "accounts:*", "reports:*"},
	RoleManager:        {"users:read", "accounts:*", "reports:read"},
	RoleAccountant:     {"accounts:*", "reports:read"},
	RoleFinanceManager: {"accounts:*", "reports:*", "budgets:*"},
	RoleAuditor:        {"accounts:read", "reports:read", "audit:*"},
	RoleBookkeeper:     {"transactions:*", "accounts:read"},
	RoleEmployee:       {"profile:read", "profile:update"},
	RoleClient:         {"profile:read", "profile:update", "invoices:read"},
	RoleVendor:         {"profile:read", "profile:update", "payments:read"},
	RoleGuest:          {"profile:read"},
}

// HasPermission reports whether role may perform permission. Unknown roles
// are always denied.
func HasPermission(role, permission string) bool {
	perms, ok := rolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == Wildcard || p == permission {
			return true
		}
	}
	return false
}

// RequirePermission is HasPermission with an error result for call sites
// that want to fail the request outright.
func RequirePermission(role, permission string) error {
	if !HasPermission(role, permission) {
		return ErrInsufficientPermissions
	}
	return nil
}

// ValidRole reports whether role is one of the recognized role names,
// whether or not it carries permissions.
func ValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleAccountant,
		RoleFinanceManager, RoleAuditor, RoleBookkeeper, RoleTaxSpecialist,
		RolePayrollSpecialist, RoleAccountsReceivable, RoleAccountsPayable,
		RoleFinancialAnalyst, RoleController, RoleCFO, RoleEmployee,
		RoleClient, RoleVendor, RoleGuest:
		return true
	}
	return false
}
