package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFile is returned for a zero-byte upload.
	ErrEmptyFile = errors.New("empty file: no data to convert")

	// ErrNoHeader is returned when a file has bytes but no non-blank record.
	ErrNoHeader = errors.New("missing header: no header row found")

	// ErrNoFile is returned when a request carries no upload.
	ErrNoFile = errors.New("no file provided")

	// ErrStoreUnavailable is returned by Import and Export when the service
	// runs without a ProductStore.
	ErrStoreUnavailable = errors.New("product store is not configured")
)

// ParseError reports input that is not valid delimited text. It is fatal:
// nothing is emitted for a file that fails to parse.
type ParseError struct {
	Line   int   // 1-based line of the offending record
	Column int   // 1-based column, 0 when unknown
	Offset int64 // byte offset into the decoded input
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column > 0 {
		return fmt.Sprintf("invalid csv at line %d, column %d (byte %d): %v", e.Line, e.Column, e.Offset, e.Err)
	}
	return fmt.Sprintf("invalid csv at line %d (byte %d): %v", e.Line, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
