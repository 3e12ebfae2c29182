package bridge

import (
	"fmt"
)

// DuplicateNameError is returned when a server name is already taken.
type DuplicateNameError struct {
	Name string
}

func (r *DuplicateNameError) Error() string {
	return fmt.Sprintf("server %q already exists", r.Name)
}

// NotFoundError is returned for operations on an unknown server name.
type NotFoundError struct {
	Name string
}

func (r *NotFoundError) Error() string {
	return fmt.Sprintf("server %q not found", r.Name)
}

// NotRunningError is returned when an operation requires a live connection.
type NotRunningError struct {
	Name string
}

func (r *NotRunningError) Error() string {
	return fmt.Sprintf("server %q is not running", r.Name)
}

// LaunchError is returned when the child process or container failed to start.
type LaunchError struct {
	Name string
	Err  error
}

func (r *LaunchError) Error() string {
	return fmt.Sprintf("failed to start server %q: %v", r.Name, r.Err)
}

func (r *LaunchError) Unwrap() error {
	return r.Err
}

// RuntimeUnavailableError is returned when the container engine is missing.
type RuntimeUnavailableError struct {
	Err error
}

func (r *RuntimeUnavailableError) Error() string {
	return fmt.Sprintf("container runtime not available: %v", r.Err)
}

func (r *RuntimeUnavailableError) Unwrap() error {
	return r.Err
}

// InvocationError is returned when a child server returned an error or the
// transport failed mid-call.
type InvocationError struct {
	Server string
	Tool   string
	Err    error
}

func (r *InvocationError) Error() string {
	return fmt.Sprintf("tool %q on server %q: %v", r.Tool, r.Server, r.Err)
}

func (r *InvocationError) Unwrap() error {
	return r.Err
}
