package entity

const (
	RoleIDUser  = 1
	RoleIDAdmin = 2

	AuthorityUser  = "USER"
	AuthorityAdmin = "ADMIN"
)

// Role represents an authority granted to a user.
// Two roles are the same role when both the id and the authority match.
type Role struct {
	ID        int
	Authority string
}

func NewRole(id int, authority string) Role {
	return Role{ID: id, Authority: authority}
}

// DefaultRole is granted to every new account.
func DefaultRole() Role {
	return Role{ID: RoleIDUser, Authority: AuthorityUser}
}

// RoleSet holds distinct roles in insertion order. The first role is the
// primary authority of the user.
type RoleSet struct {
	roles []Role
}

func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s = s.Add(r)
	}
	return s
}

// Add returns a new set containing r. Adding an existing role is a no-op.
func (s RoleSet) Add(r Role) RoleSet {
	if s.Contains(r) {
		return s
	}
	out := make([]Role, len(s.roles), len(s.roles)+1)
	copy(out, s.roles)
	return RoleSet{roles: append(out, r)}
}

func (s RoleSet) Contains(r Role) bool {
	for _, existing := range s.roles {
		if existing == r {
			return true
		}
	}
	return false
}

// HasAuthority reports whether any role carries the given authority.
func (s RoleSet) HasAuthority(authority string) bool {
	for _, r := range s.roles {
		if r.Authority == authority {
			return true
		}
	}
	return false
}

// Primary returns the first role, or false on an empty set.
func (s RoleSet) Primary() (Role, bool) {
	if len(s.roles) == 0 {
		return Role{}, false
	}
	return s.roles[0], true
}

// Roles returns a copy of the roles.
func (s RoleSet) Roles() []Role {
	out := make([]Role, len(s.roles))
	copy(out, s.roles)
	return out
}

func (s RoleSet) Len() int { return len(s.roles) }
