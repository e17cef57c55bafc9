package unhold

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/shopify-unhold/pkg/orderid"
)

// Common errors returned while talking to the remote side.
var (
	// ErrNoJob is returned when the release mutation reports neither a job nor user errors.
	ErrNoJob = errors.New("release returned neither a job nor user errors")

	// ErrMissingJobResult is returned when a finished job carries no result.
	ErrMissingJobResult = errors.New("job finished without a result")

	// ErrMissingCursor is returned when a page reports more results without a cursor.
	ErrMissingCursor = errors.New("page reports more results but no cursor")

	// ErrJobNotFound is returned when the job query resolves to null.
	ErrJobNotFound = errors.New("job not found")
)

// Kind classifies the outcome of a run.
type Kind int

const (
	// KindNone is a successful run.
	KindNone Kind = iota

	// KindFormat is a malformed order name argument.
	KindFormat

	// KindNotFound is a requested order name without an on-hold fulfillment order.
	KindNotFound

	// KindUserErrors is a release rejected by business rules.
	KindUserErrors

	// KindUnmodified is a finished job that did not release every submitted order.
	KindUnmodified

	// KindJobTimeout is a job that was not done within the poll budget.
	KindJobTimeout

	// KindCancelled is a run stopped by its context.
	KindCancelled

	// KindUnexpected is any other failure: transport, malformed responses.
	KindUnexpected
)

var kindNames = map[Kind]string{
	KindNone:       "ok",
	KindFormat:     "format",
	KindNotFound:   "not_found",
	KindUserErrors: "user_errors",
	KindUnmodified: "unmodified",
	KindJobTimeout: "job_timeout",
	KindCancelled:  "cancelled",
	KindUnexpected: "unexpected",
}

// String returns the kind name, suitable as a metric label.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// KindOf classifies err.
func KindOf(err error) Kind {
	var (
		notFound   *NotFoundError
		userErrors *UserErrorsError
		unmodified *UnmodifiedOrdersError
		timeout    *JobTimeoutError
	)

	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, orderid.ErrInvalidFormat):
		return KindFormat
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &userErrors):
		return KindUserErrors
	case errors.As(err, &unmodified):
		return KindUnmodified
	case errors.As(err, &timeout):
		return KindJobTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	default:
		return KindUnexpected
	}
}

// NotFoundError reports requested order names with no on-hold fulfillment order.
type NotFoundError struct {
	Names []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no held fulfillment orders found for %d order names", len(e.Names))
}

// UserErrorsError reports a release rejected by the remote side. No job was created.
type UserErrorsError struct {
	Errors []UserError
}

// Error implements the error interface.
func (e *UserErrorsError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		messages = append(messages, ue.Message)
	}
	return fmt.Sprintf("user errors were present in the response: %s", strings.Join(messages, "; "))
}

// UnmodifiedOrdersError reports fulfillment orders still on hold after the job finished.
type UnmodifiedOrdersError struct {
	JobID string
	IDs   []string
}

// Error implements the error interface.
func (e *UnmodifiedOrdersError) Error() string {
	return fmt.Sprintf("job %s finished but %d fulfillment orders were not released", e.JobID, len(e.IDs))
}

// JobTimeoutError reports a job that was still running after the last poll.
type JobTimeoutError struct {
	JobID    string
	Attempts int
}

// Error implements the error interface.
func (e *JobTimeoutError) Error() string {
	return fmt.Sprintf("job %s not done after %d polls", e.JobID, e.Attempts)
}
