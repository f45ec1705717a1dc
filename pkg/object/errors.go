package object

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an object is absent from the store.
	ErrNotFound = errors.New("not found")
	// ErrMalformed is returned for undecodable headers, payloads and hashes.
	ErrMalformed = errors.New("malformed")
	// ErrNotACommit is returned when a commit was expected but another
	// object type was found.
	ErrNotACommit = errors.New("not a commit")
)

// NotACommitError names the object that failed to decode as a commit.
type NotACommitError struct {
	Hash Hash
	Type ObjectType
}

func (e *NotACommitError) Error() string {
	return fmt.Sprintf("object %s is not a commit (found %s)", e.Hash, e.Type)
}

func (e *NotACommitError) Is(target error) bool {
	return target == ErrNotACommit
}
