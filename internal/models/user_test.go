package models

import "testing"

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("admin"); err != nil || r != RoleAdmin {
		t.Fatalf("admin: got %q, %v", r, err)
	}
	if r, err := ParseRole("employee"); err != nil || r != RoleEmployee {
		t.Fatalf("employee: got %q, %v", r, err)
	}
	for _, bad := range []string{"", "Admin", "superuser", "owner"} {
		if _, err := ParseRole(bad); err == nil {
			t.Errorf("%q: expected error", bad)
		}
	}
}

func TestUserName(t *testing.T) {
	u := &User{Username: "jdoe", DisplayName: "Jane Doe"}
	if u.Name() != "Jane Doe" {
		t.Fatalf("expected display name, got %q", u.Name())
	}
	u.DisplayName = ""
	if u.Name() != "jdoe" {
		t.Fatalf("expected username fallback, got %q", u.Name())
	}
}
