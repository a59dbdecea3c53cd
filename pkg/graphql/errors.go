package graphql

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Operation kinds reported by TransportError
const (
	OpRequest = "request"
	OpUpload  = "upload"
)

// TransportError is returned for non-2xx HTTP responses
type TransportError struct {
	Op         string
	StatusCode int
	Body       string // first bytes of the response body, for logs
}

func (e *TransportError) Error() string {
	if e.Op == OpUpload {
		return fmt.Sprintf("Upload failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("GraphQL request failed with status %d", e.StatusCode)
}

// GraphQLError carries every operation-level error the server reported, in order
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return strings.Join(e.Messages, "\n")
}

// ProtocolError is a successful HTTP exchange whose body breaks the envelope contract
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// CancellationError reports that the caller's context ended before the
// operation completed
type CancellationError struct {
	Err error
}

func (e *CancellationError) Error() string {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return "graphql: request timed out"
	}
	return "graphql: request canceled"
}

func (e *CancellationError) Unwrap() error {
	return e.Err
}

// IsCanceled reports whether err stems from a cancelled or expired context
func IsCanceled(err error) bool {
	var ce *CancellationError
	if errors.As(err, &ce) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

const msgMissingData = "GraphQL response missing data"

// canceled converts err into a CancellationError when ctx is done
func canceled(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return &CancellationError{Err: ctxErr}
	}
	return err
}
