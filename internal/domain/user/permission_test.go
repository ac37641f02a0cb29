package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleAdmin, PermissionAttendanceViewAll))
	assert.True(t, HasPermission(RoleManager, PermissionReportsView))
	assert.True(t, HasPermission(RoleEmployee, PermissionAttendanceViewOwn))
	assert.False(t, HasPermission(RoleEmployee, PermissionAttendanceViewAll))
	assert.False(t, HasPermission(Role("guest"), PermissionAttendanceViewOwn))
}

func TestPrincipalFromClaims(t *testing.T) {
	p, err := PrincipalFromClaims(map[string]interface{}{
		"sub":         "user-1",
		"email":       "ana@example.com",
		"employee_id": "EMP001",
		"role":        "manager",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, "EMP001", p.EmployeeID)
	assert.True(t, p.IsManager())
	assert.True(t, p.Can(PermissionAttendanceViewAll))
}

func TestPrincipalFromClaims_UnknownRoleIsEmployee(t *testing.T) {
	p, err := PrincipalFromClaims(map[string]interface{}{
		"user_id": "user-2",
		"role":    "authenticated",
	})
	require.NoError(t, err)
	assert.Equal(t, RoleEmployee, p.Role)
	assert.False(t, p.IsManager())
}

func TestPrincipalFromClaims_MissingSubject(t *testing.T) {
	_, err := PrincipalFromClaims(map[string]interface{}{"role": "admin"})
	assert.ErrorIs(t, err, ErrInvalidClaims)
}
