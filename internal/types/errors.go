package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrInvalidID       = errors.New("invalid product id")
	ErrBlocked         = errors.New("blocked by bot challenge")
	ErrTimeout         = errors.New("worker timed out")
	ErrNoOutput        = errors.New("worker produced no output")
	ErrMalformedOutput = errors.New("worker output is not valid JSON")
	ErrParseFailure    = errors.New("product page could not be parsed")
	ErrNotFound        = errors.New("not found")
	ErrUnknownCommand  = errors.New("unknown worker command")
)

// FetchError wraps errors that occur while retrieving a page.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WorkerError is an {error, message} document reported by a worker process.
type WorkerError struct {
	Code    string
	Message string
}

func (e *WorkerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("worker error %q", e.Code)
	}
	return fmt.Sprintf("worker error %q: %s", e.Code, e.Message)
}

// Unwrap maps well-known worker codes back onto sentinel errors.
func (e *WorkerError) Unwrap() error {
	switch e.Code {
	case CodeBlocked:
		return ErrBlocked
	case CodeParseFailed:
		return ErrParseFailure
	case CodeInvalidID:
		return ErrInvalidID
	case CodeUnknownCommand:
		return ErrUnknownCommand
	default:
		return nil
	}
}

// Worker error codes written in the "error" field of a failure document.
const (
	CodeFetchFailed      = "fetch_failed"
	CodeBlocked          = "blocked"
	CodeParseFailed      = "parse_failed"
	CodeScreenshotFailed = "screenshot_failed"
	CodeInvalidID        = "invalid_id"
	CodeUnknownCommand   = "unknown_command"
)

// ParseError wraps errors that occur during extraction.
type ParseError struct {
	URL   string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s (field=%q): %v", e.URL, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the product pipeline.
type PipelineError struct {
	Stage string
	ID    string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q for %s: %v", e.Stage, e.ID, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
