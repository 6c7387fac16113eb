package reconciler

import (
	"fmt"
	"sort"
	"strings"
)

// HostOperationError indicates a host-level write or control operation
// failed. It is fatal for that project's apply; the previously active site
// stays untouched.
type HostOperationError struct {
	// Project names the project whose apply failed.
	Project string
	// Step names the apply step that failed.
	Step string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface; every fatal error names the project
// and the step that failed.
func (e *HostOperationError) Error() string {
	return fmt.Sprintf("project %s: %s: %v", e.Project, e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *HostOperationError) Unwrap() error { return e.Err }

// Is allows errors.Is() to match any HostOperationError.
func (e *HostOperationError) Is(target error) bool {
	_, ok := target.(*HostOperationError)
	return ok
}

// IssuanceError indicates certificate issuance failed. It is recoverable:
// the project keeps serving HTTP-only and issuance is retried on the next
// apply.
type IssuanceError struct {
	Project string
	Domain  string
	Err     error
}

// Error implements the error interface.
func (e *IssuanceError) Error() string {
	return fmt.Sprintf("IssuanceError: project %s: certificate issuance for %s failed: %v", e.Project, e.Domain, e.Err)
}

// Unwrap returns the underlying error.
func (e *IssuanceError) Unwrap() error { return e.Err }

// Is allows errors.Is() to match any IssuanceError.
func (e *IssuanceError) Is(target error) bool {
	_, ok := target.(*IssuanceError)
	return ok
}

// ReloadError indicates reverse proxy validation or reload failed. It is
// fatal: a site whose configuration does not validate must never be
// activated, so the pre-operation serving state is restored.
type ReloadError struct {
	Err error
}

// Error implements the error interface.
func (e *ReloadError) Error() string {
	return fmt.Sprintf("reverse proxy reload failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ReloadError) Unwrap() error { return e.Err }

// Is allows errors.Is() to match any ReloadError.
func (e *ReloadError) Is(target error) bool {
	_, ok := target.(*ReloadError)
	return ok
}

// BatchError aggregates per-project failures from a batch apply. One
// project's failure never aborts processing of the others.
type BatchError struct {
	// Failures maps project name to its failure.
	Failures map[string]error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	names := make([]string, 0, len(e.Failures))
	for name := range e.Failures {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %v", name, e.Failures[name]))
	}
	return fmt.Sprintf("%d project(s) failed: %s", len(names), strings.Join(parts, "; "))
}
