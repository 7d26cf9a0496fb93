package service

import "fmt"

// NotFoundError represents a resource not found error. Resources are
// addressed by numeric ID; templates can also be looked up by handle.
type NotFoundError struct {
	Resource string
	ID       int
	Handle   string
}

func (e *NotFoundError) Error() string {
	if e.Handle != "" {
		return fmt.Sprintf("%s with handle %q not found", e.Resource, e.Handle)
	}
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

// ValidationError represents a validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// BusinessLogicError represents an operation the campaign lifecycle
// does not allow, such as sending a completed campaign
type BusinessLogicError struct {
	Message string
}

func (e *BusinessLogicError) Error() string {
	return fmt.Sprintf("business logic error: %s", e.Message)
}

// ConflictError represents a uniqueness conflict, such as a template
// handle that is already taken
type ConflictError struct {
	Resource string
	Message  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict with %s: %s", e.Resource, e.Message)
}
