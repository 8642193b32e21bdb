package models

import "testing"

func TestDirectKey(t *testing.T) {
	// Both directions of a pair produce the same key.
	if DirectKey("t1", "alice", "bob") != DirectKey("t1", "bob", "alice") {
		t.Fatal("direct key must be order-independent")
	}
	if got := DirectKey("t1", "bob", "alice"); got != "t1:alice:bob" {
		t.Fatalf("unexpected key %q", got)
	}

	// Tenant participates in the identity.
	if DirectKey("t1", "alice", "bob") == DirectKey("t2", "alice", "bob") {
		t.Fatal("keys must differ across tenants")
	}
}
