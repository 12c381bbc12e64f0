package authkit

import (
	"github.com/skillforge/authkit/permission"
)

// HasRole reports an exact match against the profile's primary role. A nil
// user holds no role.
func HasRole(u *UserProfile, role string) bool {
	return u != nil && u.Role == role
}

// HasAnyRole reports whether HasRole holds for any element.
func HasAnyRole(u *UserProfile, roles ...string) bool {
	for _, r := range roles {
		if HasRole(u, r) {
			return true
		}
	}
	return false
}

// HasPermission looks the profile's role up in the static table. A nil user
// yields false for every permission.
func HasPermission(t *permission.Table, u *UserProfile, perm string) bool {
	if u == nil {
		return false
	}
	return t.RoleHas(u.Role, perm)
}

func (m *Manager) currentRole() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return "", false
	}
	return m.user.Role, true
}

// HasRole checks the current user's primary role.
func (m *Manager) HasRole(role string) bool {
	r, ok := m.currentRole()
	return ok && r == role
}

// HasAnyRole checks the current user against each role.
func (m *Manager) HasAnyRole(roles ...string) bool {
	r, ok := m.currentRole()
	if !ok {
		return false
	}
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission checks the current user's role against the manager's
// permission table. Logged out always yields false.
func (m *Manager) HasPermission(perm string) bool {
	r, ok := m.currentRole()
	return ok && m.perms.RoleHas(r, perm)
}
