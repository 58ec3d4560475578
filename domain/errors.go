package domain

import "fmt"

// ValidationError reports user input that breaks a model rule. It is raised
// before any store call is made, so a validation failure never reaches the
// network.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// NotFoundError reports a referenced board, user, column or card that does
// not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ConnectionError wraps a document-store transport failure.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: store unreachable: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// NotEmptyError blocks deletion of a column that still holds cards.
type NotEmptyError struct {
	Count int
}

func (e *NotEmptyError) Error() string {
	return fmt.Sprintf("column still holds %d cards", e.Count)
}

// AlreadyMemberError reports an attempt to add a user who already has access
// to the board.
type AlreadyMemberError struct {
	UID string
}

func (e *AlreadyMemberError) Error() string {
	return fmt.Sprintf("user %s is already a participant", e.UID)
}

// ProtectedColumnError reports a rename/delete/insert attempt on the Done or
// Archive columns. Callers refuse these operations without a user-facing
// message.
type ProtectedColumnError struct {
	ID int
}

func (e *ProtectedColumnError) Error() string {
	return fmt.Sprintf("column %d is protected", e.ID)
}
