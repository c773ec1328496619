// Package portalloc defines the PortAllocator contract a ResourcesManager
// uses on delete, plus a minimal loopback-TCP default. The production
// allocator is an out-of-scope collaborator (see SPEC_FULL.md); this one
// exists so the core is usable standalone and in tests.
package portalloc

import (
	"fmt"
	"net"
	"sync"

	"github.com/nupi-ai/privnet/internal/resourceref"
)

// Allocator reserves and releases ports scoped by (plugin, resourceType, name).
type Allocator interface {
	Reserve(scope resourceref.Ref) (int, error)
	// Release is idempotent: releasing an unreserved scope is not an error.
	Release(scope resourceref.Ref) error
}

// Loopback hands out OS-assigned free loopback TCP ports.
type Loopback struct {
	mu    sync.Mutex
	ports map[resourceref.Ref]int
}

// NewLoopback returns an empty Loopback allocator.
func NewLoopback() *Loopback {
	return &Loopback{ports: make(map[resourceref.Ref]int)}
}

// Reserve returns the port previously handed to scope, or allocates a new
// free one.
func (l *Loopback) Reserve(scope resourceref.Ref) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if port, ok := l.ports[scope]; ok {
		return port, nil
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("portalloc: reserve %+v: %w", scope, err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	l.ports[scope] = port
	return port, nil
}

// Release forgets scope's port, if any.
func (l *Loopback) Release(scope resourceref.Ref) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ports, scope)
	return nil
}
