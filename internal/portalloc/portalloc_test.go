package portalloc

import (
	"testing"

	"github.com/nupi-ai/privnet/internal/resourceref"
)

func TestReserveIsStableAndRelease(t *testing.T) {
	a := NewLoopback()
	scope := resourceref.Ref{Plugin: "neo-one", ResourceType: "node", Name: "alice"}

	p1, err := a.Reserve(scope)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if p1 == 0 {
		t.Fatalf("expected non-zero port")
	}

	p2, err := a.Reserve(scope)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if p1 != p2 {
		t.Fatalf("expected stable port across Reserve calls, got %d and %d", p1, p2)
	}

	if err := a.Release(scope); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := a.Release(scope); err != nil {
		t.Fatalf("Release should be idempotent: %v", err)
	}
}

func TestReserveDifferentScopesGetDifferentPorts(t *testing.T) {
	a := NewLoopback()
	s1 := resourceref.Ref{Plugin: "p", ResourceType: "t", Name: "one"}
	s2 := resourceref.Ref{Plugin: "p", ResourceType: "t", Name: "two"}

	p1, err := a.Reserve(s1)
	if err != nil {
		t.Fatalf("Reserve s1: %v", err)
	}
	p2, err := a.Reserve(s2)
	if err != nil {
		t.Fatalf("Reserve s2: %v", err)
	}
	if p1 == p2 {
		t.Fatalf("expected distinct ports, got %d for both", p1)
	}
}
