package domain

import "testing"

func TestRoleLadder(t *testing.T) {
	roles := Roles()
	for i := 1; i < len(roles); i++ {
		if roles[i].Rank() <= roles[i-1].Rank() {
			t.Fatalf("ladder out of order at %s", roles[i])
		}
	}
	if !RoleCEO.AtLeast(RoleStaff) {
		t.Fatal("ceo should outrank staff")
	}
	if RoleStaff.AtLeast(RoleLeader) {
		t.Fatal("staff should not reach leader")
	}
	if !RoleManager.AtLeast(RoleManager) {
		t.Fatal("AtLeast must be inclusive")
	}
}

func TestUnknownRole(t *testing.T) {
	if Role("intern").Valid() {
		t.Fatal("unknown role validated")
	}
	if Role("intern").AtLeast(RoleStaff) {
		t.Fatal("unknown role passed a gate")
	}
	if _, err := ParseRole("intern"); err == nil {
		t.Fatal("ParseRole accepted unknown role")
	}
	r, err := ParseRole("vp")
	if err != nil || r != RoleVP {
		t.Fatalf("ParseRole(vp) = %v, %v", r, err)
	}
}
