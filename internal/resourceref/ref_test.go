package resourceref

import "testing"

func TestRefEqual(t *testing.T) {
	a := Ref{Plugin: "neo-one", ResourceType: "wallet", Name: "net1/w1"}
	b := Ref{Plugin: "neo-one", ResourceType: "wallet", Name: "net1/w1"}
	c := Ref{Plugin: "neo-one", ResourceType: "wallet", Name: "net1/w2"}

	if !a.Equal(b) {
		t.Fatalf("expected a == b")
	}
	if a.Equal(c) {
		t.Fatalf("expected a != c")
	}
}

func TestDedup(t *testing.T) {
	refs := []Ref{
		{Plugin: "p", ResourceType: "t", Name: "a"},
		{Plugin: "p", ResourceType: "t", Name: "b"},
		{Plugin: "p", ResourceType: "t", Name: "a"},
	}

	got := Dedup(refs)
	if len(got) != 2 {
		t.Fatalf("expected 2 unique refs, got %d: %v", len(got), got)
	}
	if got[0].Name != "a" || got[1].Name != "b" {
		t.Fatalf("expected order preserved, got %v", got)
	}
}
