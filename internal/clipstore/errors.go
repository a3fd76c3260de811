package clipstore

import "errors"

// Error classification.
//
// Implementations MAY wrap these errors with additional context via
// fmt.Errorf("...: %w", ...). Callers MUST classify errors using errors.Is.
var (
	// ErrInvalid indicates a malformed snip file: wrong size, bad alignment,
	// or an inconsistent header. Fatal at Open.
	ErrInvalid = errors.New("clipstore: invalid store file")

	// ErrNotExist indicates a requested content hash has no content file.
	ErrNotExist = errors.New("clipstore: content not found")

	// ErrRange indicates an ordinal argument is out of bounds.
	ErrRange = errors.New("clipstore: ordinal out of range")

	// ErrClosed indicates an operation on a Store or Content after Close.
	ErrClosed = errors.New("clipstore: closed")
)
