package quiz

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyMastered rejects a new attempt on a topic the user passed.
	ErrAlreadyMastered = errors.New("topic already mastered")

	// ErrNoActiveSession means a submission arrived with no live session.
	ErrNoActiveSession = errors.New("no active quiz session")

	// ErrNotFound means no completed session or record exists.
	ErrNotFound = errors.New("no completed assessment found")

	// ErrInvalidKey rejects an empty user or topic.
	ErrInvalidKey = errors.New("user and topic are required")

	// ErrSessionCompleted rejects mutation of a completed session.
	ErrSessionCompleted = errors.New("quiz session already completed")
)

// PersistenceError wraps a storage-layer failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a *PersistenceError unless it is nil or already one.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
