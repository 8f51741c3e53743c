package store

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Callers match them with errors.Is.
var (
	// ErrNotFound indicates the requested item does not exist.
	ErrNotFound = errors.New("item not found")

	// ErrInvalid indicates malformed input such as an unknown kind tag or
	// a string that is not valid UTF-8.
	ErrInvalid = errors.New("invalid input")

	// ErrStorage indicates the database failed to read or write.
	// The core does not retry.
	ErrStorage = errors.New("storage failure")

	// ErrMigration indicates the schema could not be brought up to date.
	// It is fatal for the open call.
	ErrMigration = errors.New("migration failure")
)

// Error carries the operation context of a failure together with its kind.
type Error struct {
	// Op is the operation that failed, e.g. "delete" or "migrate".
	Op string

	// ID is the target item, if any.
	ID int64

	// Path is the target file, if any.
	Path string

	// Kind is one of ErrNotFound, ErrInvalid, ErrStorage or ErrMigration.
	Kind error

	// Err is the underlying cause. May be nil.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.ID != 0 {
		fmt.Fprintf(&b, " item %d", e.ID)
	}
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFound builds the error returned for an absent id.
func NotFound(op string, id int64) error {
	return &Error{Op: op, ID: id, Kind: ErrNotFound}
}

// Storage wraps a database failure.
func Storage(op string, id int64, err error) error {
	return &Error{Op: op, ID: id, Kind: ErrStorage, Err: err}
}

// Invalid wraps a validation failure.
func Invalid(op string, err error) error {
	return &Error{Op: op, Kind: ErrInvalid, Err: err}
}

// Migration wraps a schema migration failure for the store at path.
func Migration(path string, err error) error {
	return &Error{Op: "migrate", Path: path, Kind: ErrMigration, Err: err}
}
