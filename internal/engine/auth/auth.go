package auth

import (
	"fmt"

	"consite/internal/config"
	"consite/internal/domain"
)

// PermissionError indicates an actor's role is below the required rank.
type PermissionError struct {
	ActorID string
	Role    domain.Role
	Action  string
}

func (e PermissionError) Error() string {
	return fmt.Sprintf("role %s may not %s", e.Role, e.Action)
}

// Gates holds the minimum role per guarded action. Checks are pure rank
// comparisons; no SQL lookups.
type Gates struct {
	Approve   domain.Role
	Checklist domain.Role
	Confirm   domain.Role
}

func DefaultGates() Gates {
	return Gates{
		Approve:   domain.RoleLeader,
		Checklist: domain.RoleLeader,
		Confirm:   domain.RoleManager,
	}
}

// GatesFromConfig applies configured thresholds, keeping defaults for
// unset or unknown role names.
func GatesFromConfig(cfg *config.Config) Gates {
	g := DefaultGates()
	if cfg == nil {
		return g
	}
	if r, err := domain.ParseRole(cfg.Thresholds.Approve); err == nil {
		g.Approve = r
	}
	if r, err := domain.ParseRole(cfg.Thresholds.Checklist); err == nil {
		g.Checklist = r
	}
	if r, err := domain.ParseRole(cfg.Thresholds.Confirm); err == nil {
		g.Confirm = r
	}
	return g
}

func (g Gates) CanApprove(role domain.Role) bool {
	return role.AtLeast(g.Approve)
}

func (g Gates) CanManageChecklist(role domain.Role) bool {
	return role.AtLeast(g.Checklist)
}

func (g Gates) CanConfirm(role domain.Role) bool {
	return role.AtLeast(g.Confirm)
}

// IsAssigneeClass reports whether a role can be assigned checklist items.
// Only field roles qualify.
func IsAssigneeClass(role domain.Role) bool {
	return role == domain.RoleStaff || role == domain.RoleLeader
}
