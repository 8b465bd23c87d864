package models

import "testing"

func TestOwner_Namespace(t *testing.T) {
	tests := []struct {
		name     string
		owner    Owner
		expected string
	}{
		{name: "user", owner: UserOwner("u1"), expected: "users/u1"},
		{name: "organization", owner: OrganizationOwner("o1"), expected: "organizations/o1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.owner.Namespace(); got != tt.expected {
				t.Fatalf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestOwner_IsZero(t *testing.T) {
	if !(Owner{}).IsZero() {
		t.Fatal("zero owner must report IsZero")
	}
	if UserOwner("u1").IsZero() {
		t.Fatal("user owner must not report IsZero")
	}
}
