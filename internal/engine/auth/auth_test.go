package auth

import (
	"testing"

	"consite/internal/config"
	"consite/internal/domain"
)

func TestDefaultGates(t *testing.T) {
	g := DefaultGates()
	if g.CanApprove(domain.RoleStaff) {
		t.Fatal("staff approved")
	}
	if !g.CanApprove(domain.RoleLeader) || !g.CanApprove(domain.RoleCEO) {
		t.Fatal("leader and above must approve")
	}
	if g.CanConfirm(domain.RoleLeader) {
		t.Fatal("leader confirmed below threshold")
	}
	if !g.CanConfirm(domain.RoleManager) {
		t.Fatal("manager must confirm")
	}
}

func TestGatesFromConfig(t *testing.T) {
	cfg := config.Default("x")
	cfg.Thresholds.Approve = "manager"
	cfg.Thresholds.Confirm = "director"
	cfg.Thresholds.Checklist = "not-a-role" // falls back to default

	g := GatesFromConfig(cfg)
	if g.Approve != domain.RoleManager || g.Confirm != domain.RoleDirector {
		t.Fatalf("thresholds not applied: %+v", g)
	}
	if g.Checklist != domain.RoleLeader {
		t.Fatalf("bad threshold should keep default, got %s", g.Checklist)
	}

	if g := GatesFromConfig(nil); g != DefaultGates() {
		t.Fatalf("nil config should give defaults: %+v", g)
	}
}

func TestAssigneeClass(t *testing.T) {
	if !IsAssigneeClass(domain.RoleStaff) || !IsAssigneeClass(domain.RoleLeader) {
		t.Fatal("field roles must be assignable")
	}
	for _, r := range []domain.Role{domain.RoleManager, domain.RoleDirector, domain.RoleVP, domain.RoleCEO} {
		if IsAssigneeClass(r) {
			t.Fatalf("%s should not be assignable", r)
		}
	}
}
