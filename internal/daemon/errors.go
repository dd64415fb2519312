package daemon

import (
	"context"
	"errors"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/client"
)

// Error records which daemon call failed. Err is the client error as
// returned, its text is what callers get to see.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind is the internal classification of a daemon failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindConflict
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Classify inspects an error returned by the daemon client.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var connErr *ConnectionError
	switch {
	case cerrdefs.IsNotFound(err):
		return KindNotFound
	case cerrdefs.IsConflict(err):
		return KindConflict
	case errors.As(err, &connErr),
		client.IsErrConnectionFailed(err),
		cerrdefs.IsUnavailable(err),
		cerrdefs.IsDeadlineExceeded(err),
		errors.Is(err, context.DeadlineExceeded):
		return KindUnavailable
	default:
		return KindUnknown
	}
}
