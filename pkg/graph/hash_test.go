package graph

import "testing"

func TestResourceHashIgnoresID(t *testing.T) {
	r1 := validResource("node1")
	r2 := validResource("node2")
	if r1.ComputeHash() != r2.ComputeHash() {
		t.Error("expected hash to depend only on kind/apiVersion/manifest/applyPolicy, not id")
	}
}

func TestResourceHashChangesWithApplyPolicy(t *testing.T) {
	r1 := validResource("node1")
	r2 := validResource("node1")
	r2.ApplyPolicy.Mode = ApplyModeAdopt

	if r1.ComputeHash() == r2.ComputeHash() {
		t.Error("expected hash to change when apply policy changes")
	}
}
