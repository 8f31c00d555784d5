package users

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

// RoleType is the role the backend assigns a user within their tenant
type RoleType string

const (
	RoleOwner      RoleType = "owner"      // Created the tenant, can manage billing and members
	RoleAdmin      RoleType = "admin"      // Manages members, rules and integrations
	RoleAccountant RoleType = "accountant" // Posts journals, runs payroll and tax filings
	RoleAuditor    RoleType = "auditor"    // Read access plus the audit trail
	RoleViewer     RoleType = "viewer"     // Read-only dashboards
	RoleSupport    RoleType = "support"    // Platform staff handling support tickets
)

// User is the identity the backend reports for the current session.
type User struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name,omitempty"`
	Role     RoleType `json:"role"`
	TenantID string   `json:"tenantId,omitempty"`
}

// HasRole reports whether the user holds any of the given roles.
func (u *User) HasRole(roles ...RoleType) bool {
	if u == nil {
		return false
	}
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasRole(RoleOwner, RoleAdmin)
}

// ValidateEmail rejects addresses the backend would refuse, so the form can
// show the problem without a round trip.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("email %q is not a valid address", email)
	}
	at := strings.LastIndex(email, "@")
	if !strings.Contains(email[at+1:], ".") {
		return fmt.Errorf("email %q is missing a domain", email)
	}
	return nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}
