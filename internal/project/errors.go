package project

import "fmt"

// NotFoundError indicates no descriptor file exists for the requested project.
type NotFoundError struct {
	// Project is the requested project name.
	Project string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("project %s not found", e.Project)
}

// Is allows errors.Is() to match any NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// InvalidDescriptorError indicates a descriptor file exists but fails
// validation. It is fatal for that project only; batch operations skip the
// project and continue.
type InvalidDescriptorError struct {
	// Project is the descriptor's project name (or file name when the
	// NAME field itself is at fault).
	Project string
	// Field names the offending descriptor field.
	Field string
	// Reason describes why the field is invalid.
	Reason string
}

// Error implements the error interface.
func (e *InvalidDescriptorError) Error() string {
	return fmt.Sprintf("invalid descriptor for project %s: field %s: %s", e.Project, e.Field, e.Reason)
}

// Is allows errors.Is() to match any InvalidDescriptorError.
func (e *InvalidDescriptorError) Is(target error) bool {
	_, ok := target.(*InvalidDescriptorError)
	return ok
}
