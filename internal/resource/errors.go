package resource

import "fmt"

// NoStartError is raised synchronously from ResourcesManager.Start or .Stop
// when the resource type's CRUD does not declare a start operation (Start
// and Stop are required together, so .Stop raises this when Start is the
// half that's missing).
type NoStartError struct {
	ResourceType string
}

func (e *NoStartError) Error() string {
	return fmt.Sprintf("resource: %s does not support start", e.ResourceType)
}

// Code implements tasklist.CodedError.
func (e *NoStartError) Code() string { return "no_start" }

// NoStopError is raised synchronously from ResourcesManager.Start or .Stop
// when the resource type's CRUD does not declare a stop operation (Start
// and Stop are required together, so .Start raises this when Stop is the
// half that's missing).
type NoStopError struct {
	ResourceType string
}

func (e *NoStopError) Error() string {
	return fmt.Sprintf("resource: %s does not support stop", e.ResourceType)
}

// Code implements tasklist.CodedError.
func (e *NoStopError) Code() string { return "no_stop" }

// NotFoundError is raised synchronously from getResourceAdapter and similar
// lookups when name has no installed adapter.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource: %q does not exist", e.Name)
}

// Code implements tasklist.CodedError.
func (e *NotFoundError) Code() string { return "not_found" }

// InitError records why a single resource failed to rehydrate during
// Manager.Init. It is collected, never returned as a fatal init error —
// per invariant I6, one bad resource must not abort the whole init.
type InitError struct {
	Name string
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("resource: init %q: %v", e.Name, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }
