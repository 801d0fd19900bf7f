package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownRole matches any UnknownRoleError via errors.Is.
	ErrUnknownRole = errors.New("unknown role")
	// ErrInvalidRole matches any InvalidRoleError via errors.Is.
	ErrInvalidRole = errors.New("invalid role")
)

// UnknownRoleError is returned when a role name is not in the catalog.
type UnknownRoleError struct {
	Name  string
	Known []string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown role %q (available: %s)", e.Name, strings.Join(e.Known, ", "))
}

func (e *UnknownRoleError) Is(target error) bool {
	return target == ErrUnknownRole
}

// InvalidRoleError is returned when a catalog definition is malformed.
type InvalidRoleError struct {
	Name   string
	Reason string
}

func (e *InvalidRoleError) Error() string {
	if e.Name == "" {
		return "invalid role: " + e.Reason
	}
	return fmt.Sprintf("invalid role %q: %s", e.Name, e.Reason)
}

func (e *InvalidRoleError) Is(target error) bool {
	return target == ErrInvalidRole
}

// FieldError is a single schema violation in a catalog file.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SchemaError is returned when a catalog file does not match the catalog schema.
type SchemaError struct {
	Path   string
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return fmt.Sprintf("catalog %s failed schema validation: %s", e.Path, strings.Join(parts, "; "))
}
