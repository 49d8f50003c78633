package core

import "fmt"

// InputError is a client-side validation failure, raised before any
// network or storage work happens.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

// StorageError wraps a persistence-transaction failure, after rollback.
// Distinct from upstream errors so callers can tell "your content could
// not be scored" apart from "it was scored but not saved".
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage failure: %v", e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }
