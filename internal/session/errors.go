package session

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIncorrectPin is returned by Unlock when the attempt does not match.
	ErrIncorrectPin = errors.New("incorrect PIN")
	// ErrLocked is returned by every mutation while the session is locked.
	ErrLocked = errors.New("session is locked")
)

// DeserializationError reports a persisted blob that could not be decoded.
type DeserializationError struct {
	Key string
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Key, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// PersistError collects per-key write failures of a single Save or Clear.
type PersistError struct {
	Keys []string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", strings.Join(e.Keys, ", "), e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
