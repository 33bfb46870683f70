package domain

import "fmt"

// Role is the fixed company ladder. Comparisons go through Rank, never
// string order.
type Role string

const (
	RoleStaff    Role = "staff"
	RoleLeader   Role = "leader"
	RoleManager  Role = "manager"
	RoleDirector Role = "director"
	RoleVP       Role = "vp"
	RoleCEO      Role = "ceo"
)

var roleRanks = map[Role]int{
	RoleStaff:    0,
	RoleLeader:   1,
	RoleManager:  2,
	RoleDirector: 3,
	RoleVP:       4,
	RoleCEO:      5,
}

func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the role's position on the ladder, lowest first. Unknown
// roles rank below staff.
func (r Role) Rank() int {
	rank, ok := roleRanks[r]
	if !ok {
		return -1
	}
	return rank
}

func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.Rank() >= min.Rank()
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func Roles() []Role {
	return []Role{RoleStaff, RoleLeader, RoleManager, RoleDirector, RoleVP, RoleCEO}
}
