package domain

// Role is the closed set of account roles.
type Role string

const (
	RoleTourist Role = "tourist"
	RoleGuide   Role = "guide"
	RoleAdmin   Role = "admin"
)

// DefaultRole is the least-privileged role.
const DefaultRole = RoleTourist

func (r Role) Valid() bool {
	switch r {
	case RoleTourist, RoleGuide, RoleAdmin:
		return true
	}
	return false
}

// SelfAssignable reports whether a registrant may pick r for themselves.
func (r Role) SelfAssignable() bool {
	return r == RoleTourist || r == RoleGuide
}

// RoleSet is a membership predicate over roles.
type RoleSet []Role

func (s RoleSet) Contains(r Role) bool {
	for _, allowed := range s {
		if allowed == r {
			return true
		}
	}
	return false
}

func (s RoleSet) Strings() []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = string(r)
	}
	return out
}
