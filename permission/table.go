package permission

import (
	"errors"
	"sort"
	"sync"
)

// Table maps role names to their granted permission sets. It follows a
// register-then-freeze lifecycle: Grant during construction, Freeze before
// first use, read-only afterwards.
type Table struct {
	mu     sync.RWMutex
	roles  map[string]map[string]struct{}
	frozen bool
}

// New creates an empty Table.
func New() *Table {
	return &Table{
		roles: make(map[string]map[string]struct{}),
	}
}

// Grant adds permissions to a role. Granting the same permission twice is a
// no-op. Must be called before Freeze.
func (t *Table) Grant(role string, perms ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return errors.New("permission table frozen")
	}
	if role == "" {
		return errors.New("role name empty")
	}

	set, ok := t.roles[role]
	if !ok {
		set = make(map[string]struct{}, len(perms))
		t.roles[role] = set
	}
	for _, p := range perms {
		if p == "" {
			return errors.New("permission name empty")
		}
		set[p] = struct{}{}
	}
	return nil
}

// Freeze prevents further grants. Must be called before the table is used
// for checks.
func (t *Table) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frozen = true
}

// RoleHas reports whether the role is granted the permission. Unknown roles
// hold no permissions.
func (t *Table) RoleHas(role, perm string) bool {
	if t == nil {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	set, ok := t.roles[role]
	if !ok {
		return false
	}
	_, ok = set[perm]
	return ok
}

// Roles returns the registered role names, sorted.
func (t *Table) Roles() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.roles))
	for r := range t.roles {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of registered roles.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.roles)
}
