package depstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nupi-ai/privnet/internal/resourceref"
)

func TestMissingFileReturnsEmptySlice(t *testing.T) {
	s := New(t.TempDir())

	deps, err := s.Dependencies("alice")
	if err != nil {
		t.Fatalf("Dependencies: %v", err)
	}
	if len(deps) != 0 {
		t.Fatalf("expected empty slice, got %v", deps)
	}

	dependents, err := s.Dependents("alice")
	if err != nil {
		t.Fatalf("Dependents: %v", err)
	}
	if len(dependents) != 0 {
		t.Fatalf("expected empty slice, got %v", dependents)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := New(t.TempDir())

	deps := []resourceref.Ref{
		{Plugin: "neo-one", ResourceType: "network", Name: "net1"},
	}
	if err := s.WriteDependencies("net1/alice", deps); err != nil {
		t.Fatalf("WriteDependencies: %v", err)
	}

	got, err := s.Dependencies("net1/alice")
	if err != nil {
		t.Fatalf("Dependencies: %v", err)
	}
	if len(got) != 1 || !got[0].Equal(deps[0]) {
		t.Fatalf("Dependencies = %v, want %v", got, deps)
	}
}

func TestDeleteRemovesFile(t *testing.T) {
	s := New(t.TempDir())

	if err := s.WriteDependents("alice", []resourceref.Ref{{Plugin: "p", ResourceType: "t", Name: "alice/w1"}}); err != nil {
		t.Fatalf("WriteDependents: %v", err)
	}
	if err := s.DeleteDependents("alice"); err != nil {
		t.Fatalf("DeleteDependents: %v", err)
	}

	got, err := s.Dependents("alice")
	if err != nil {
		t.Fatalf("Dependents: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty after delete, got %v", got)
	}
}

func TestDeleteToleratesMissing(t *testing.T) {
	s := New(t.TempDir())
	if err := s.DeleteDependencies("never-written"); err != nil {
		t.Fatalf("expected no error deleting missing file: %v", err)
	}
}

func TestFingerprintStableAndSensitive(t *testing.T) {
	a := []resourceref.Ref{{Plugin: "p", ResourceType: "t", Name: "a"}}
	b := []resourceref.Ref{{Plugin: "p", ResourceType: "t", Name: "b"}}

	fa1, err := Fingerprint(a)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	fa2, err := Fingerprint(a)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fa1 != fa2 {
		t.Fatalf("fingerprint not stable: %q vs %q", fa1, fa2)
	}

	fb, err := Fingerprint(b)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	if fa1 == fb {
		t.Fatalf("expected different fingerprints for different content")
	}
}

func TestVerifyDependenciesFingerprintTrustsUnfingerprintedFile(t *testing.T) {
	s := New(t.TempDir())

	ok, err := s.VerifyDependenciesFingerprint("alice")
	if err != nil {
		t.Fatalf("VerifyDependenciesFingerprint: %v", err)
	}
	if !ok {
		t.Fatalf("expected an unwritten dependencies file to be trusted")
	}
}

func TestVerifyDependenciesFingerprintDetectsTamper(t *testing.T) {
	s := New(t.TempDir())
	deps := []resourceref.Ref{{Plugin: "p", ResourceType: "t", Name: "a"}}
	if err := s.WriteDependencies("alice", deps); err != nil {
		t.Fatalf("WriteDependencies: %v", err)
	}

	ok, err := s.VerifyDependenciesFingerprint("alice")
	if err != nil {
		t.Fatalf("VerifyDependenciesFingerprint: %v", err)
	}
	if !ok {
		t.Fatalf("expected freshly written dependencies file to verify")
	}

	tamperedPath := filepath.Join(s.dependenciesDir, "alice.json")
	if err := os.WriteFile(tamperedPath, []byte(`[{"Plugin":"p","ResourceType":"t","Name":"b"}]`), 0o644); err != nil {
		t.Fatalf("tamper write: %v", err)
	}

	ok, err = s.VerifyDependenciesFingerprint("alice")
	if err != nil {
		t.Fatalf("VerifyDependenciesFingerprint: %v", err)
	}
	if ok {
		t.Fatalf("expected tampered dependencies file to fail verification")
	}
}
