package types

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

// Sentinel errors shared by the walker, hasher, pipeline and writers.
// Check them with errors.Is().
var (
	// Fatal, reported before any work starts
	ErrPathNotFound = errors.New("path not found")
	// ErrNotDirectory also matches ErrPathNotFound.
	ErrNotDirectory = fmt.Errorf("%w: not a directory", ErrPathNotFound)

	// Per-file, recoverable unless fail-fast is set
	ErrFileNotFound = errors.New("file not found")
	ErrAccessDenied = errors.New("access denied")
	ErrExpectedFile = errors.New("expected file, got directory")

	ErrCancelled            = errors.New("cancelled")
	ErrWriterFailure        = errors.New("writer failure")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// The run finished but some files could not be hashed.
	ErrIncomplete = errors.New("incomplete run")
)

// FileError records a failure tied to a single path.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Classify maps OS and context errors onto the package sentinels so callers
// can match them with errors.Is. Errors that already carry a sentinel, and
// errors with no mapping, are returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrCancelled),
		errors.Is(err, ErrFileNotFound),
		errors.Is(err, ErrAccessDenied):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Cancelled(err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrFileNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	default:
		return err
	}
}

// Cancelled wraps cause so that it matches both ErrCancelled and the cause.
func Cancelled(cause error) error {
	switch {
	case cause == nil:
		return ErrCancelled
	case errors.Is(cause, ErrCancelled):
		return cause
	default:
		return fmt.Errorf("%w: %w", ErrCancelled, cause)
	}
}

// CtxErr returns a cancellation error if ctx is done, nil otherwise.
func CtxErr(ctx context.Context) error {
	if ctx.Err() == nil {
		return nil
	}
	return Cancelled(context.Cause(ctx))
}

// IsCancelled reports whether err stems from cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
