package user

type Role string

const (
	RoleAdmin    Role = "admin"    // HR admin - full access
	RoleManager  Role = "manager"  // Team lead - views and reports on all attendance
	RoleEmployee Role = "employee" // Regular employee
)

// Principal is the identity carried by a verified access token. Tokens are
// issued by the hosted auth platform; this service only reads them.
type Principal struct {
	UserID     string
	Email      string
	EmployeeID string
	Role       Role
}

// IsManager checks if the principal is manager or admin
func (p Principal) IsManager() bool {
	return p.Role == RoleManager || p.Role == RoleAdmin
}

// Can reports whether the principal's role grants a permission
func (p Principal) Can(permission Permission) bool {
	return HasPermission(p.Role, permission)
}

// PrincipalFromClaims builds a Principal from decoded token claims.
// Unknown roles fall back to employee.
func PrincipalFromClaims(claims map[string]interface{}) (Principal, error) {
	userID, _ := claims["sub"].(string)
	if userID == "" {
		userID, _ = claims["user_id"].(string)
	}
	if userID == "" {
		return Principal{}, ErrInvalidClaims
	}

	p := Principal{UserID: userID, Role: RoleEmployee}
	p.Email, _ = claims["email"].(string)
	p.EmployeeID, _ = claims["employee_id"].(string)

	if roleStr, ok := claims["role"].(string); ok {
		switch Role(roleStr) {
		case RoleAdmin, RoleManager, RoleEmployee:
			p.Role = Role(roleStr)
		}
	}

	return p, nil
}
