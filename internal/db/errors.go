package db

import (
	"errors"
	"fmt"
)

// Sentinels reported by Store implementations. Callers branch with
// errors.Is; everything else arrives wrapped in *Error.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrKeyExists     = errors.New("db: key already exists")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
)

// Error records the server command that failed and, when a single key was
// involved, which one.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("db: %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("db: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
