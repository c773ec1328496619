// Package depstore persists the dependency and direct-dependent edges a
// ResourcesManager records for each of its resources.
package depstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"

	"github.com/nupi-ai/privnet/internal/resourceref"
)

// Store persists dependencies/<name>.json and dependents/<name>.json under
// a manager's dataPath.
type Store struct {
	dependenciesDir string
	dependentsDir   string
}

// New returns a Store rooted at dataPath.
func New(dataPath string) *Store {
	return &Store{
		dependenciesDir: filepath.Join(dataPath, "dependencies"),
		dependentsDir:   filepath.Join(dataPath, "dependents"),
	}
}

// Dependencies returns name's recorded dependencies, or [] if none were ever written.
func (s *Store) Dependencies(name string) ([]resourceref.Ref, error) {
	return readEdges(s.dependenciesDir, name)
}

// WriteDependencies overwrites name's dependencies file atomically, along
// with a sidecar blake2b fingerprint used by VerifyDependenciesFingerprint
// to detect an externally-edited file at init time.
func (s *Store) WriteDependencies(name string, deps []resourceref.Ref) error {
	if deps == nil {
		deps = []resourceref.Ref{}
	}
	if err := writeEdges(s.dependenciesDir, name, deps); err != nil {
		return err
	}
	return writeFingerprint(s.dependenciesDir, name, deps)
}

// DeleteDependencies removes name's dependencies file and fingerprint, if any.
func (s *Store) DeleteDependencies(name string) error {
	if err := deleteEdges(s.dependenciesDir, name); err != nil {
		return err
	}
	return deleteFingerprint(s.dependenciesDir, name)
}

// VerifyDependenciesFingerprint reports whether name's on-disk dependencies
// file still matches the fingerprint recorded when it was last written by
// this store. A resource whose dependencies file was never fingerprinted
// (no sidecar present) is trusted, since it predates this check or was
// never overwritten externally.
func (s *Store) VerifyDependenciesFingerprint(name string) (bool, error) {
	deps, err := s.Dependencies(name)
	if err != nil {
		return false, err
	}

	fpPath := filepath.Join(s.dependenciesDir, name+".fp")
	recorded, err := os.ReadFile(fpPath)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("depstore: read fingerprint %s: %w", fpPath, err)
	}

	want, err := Fingerprint(deps)
	if err != nil {
		return false, err
	}
	return string(recorded) == want, nil
}

// Dependents returns name's recorded direct dependents, or [] if none were ever written.
func (s *Store) Dependents(name string) ([]resourceref.Ref, error) {
	return readEdges(s.dependentsDir, name)
}

// WriteDependents overwrites name's dependents file atomically.
func (s *Store) WriteDependents(name string, deps []resourceref.Ref) error {
	return writeEdges(s.dependentsDir, name, deps)
}

// DeleteDependents removes name's dependents file, if any.
func (s *Store) DeleteDependents(name string) error {
	return deleteEdges(s.dependentsDir, name)
}

// Fingerprint returns a short blake2b digest of the serialized edges, so a
// caller can detect whether a persisted edge file changed between two reads
// without re-diffing the whole slice.
func Fingerprint(deps []resourceref.Ref) (string, error) {
	data, err := json.Marshal(deps)
	if err != nil {
		return "", fmt.Errorf("depstore: marshal for fingerprint: %w", err)
	}
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("%x", sum[:8]), nil
}

func readEdges(dir, name string) ([]resourceref.Ref, error) {
	path := filepath.Join(dir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []resourceref.Ref{}, nil
		}
		return nil, fmt.Errorf("depstore: read %s: %w", path, err)
	}

	var deps []resourceref.Ref
	if err := json.Unmarshal(data, &deps); err != nil {
		return nil, fmt.Errorf("depstore: decode %s: %w", path, err)
	}
	return deps, nil
}

func writeEdges(dir, name string, deps []resourceref.Ref) error {
	if deps == nil {
		deps = []resourceref.Ref{}
	}

	path := filepath.Join(dir, name+".json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("depstore: mkdir for %s: %w", path, err)
	}

	data, err := json.Marshal(deps)
	if err != nil {
		return fmt.Errorf("depstore: marshal %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("depstore: write temp %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("depstore: rename temp to %s: %w", path, err)
	}
	return nil
}

func deleteEdges(dir, name string) error {
	path := filepath.Join(dir, name+".json")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("depstore: delete %s: %w", path, err)
	}
	return nil
}

func writeFingerprint(dir, name string, deps []resourceref.Ref) error {
	sum, err := Fingerprint(deps)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, name+".fp")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("depstore: mkdir for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sum), 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("depstore: write temp fingerprint %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("depstore: rename temp fingerprint to %s: %w", path, err)
	}
	return nil
}

func deleteFingerprint(dir, name string) error {
	path := filepath.Join(dir, name+".fp")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("depstore: delete fingerprint %s: %w", path, err)
	}
	return nil
}
