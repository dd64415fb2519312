package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/EternisAI/dockpanel/internal/daemon"
)

const (
	ModeCoarse  = "coarse"
	ModePrecise = "precise"
)

var ErrUnknownMode = errors.New("unknown error mapping mode")

// APIError is the only error shape that leaves the service.
type APIError struct {
	Status      int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Description)
}

func Unauthorized() *APIError {
	return &APIError{Status: http.StatusUnauthorized, Description: "unauthorized"}
}

func BadRequest(description string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Description: description}
}

// StatusPolicy picks the transport status for a classified daemon failure.
type StatusPolicy func(daemon.Kind) int

// Coarse reports every daemon failure as an internal error.
func Coarse(daemon.Kind) int {
	return http.StatusInternalServerError
}

func Precise(kind daemon.Kind) int {
	switch kind {
	case daemon.KindNotFound:
		return http.StatusNotFound
	case daemon.KindConflict:
		return http.StatusConflict
	case daemon.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Mapper translates daemon client errors into APIErrors. The description is
// always the daemon's own message.
type Mapper struct {
	policy StatusPolicy
}

func NewMapper(mode string) (*Mapper, error) {
	switch mode {
	case "", ModeCoarse:
		return &Mapper{policy: Coarse}, nil
	case ModePrecise:
		return &Mapper{policy: Precise}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

func (m *Mapper) FromDaemon(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	description := err.Error()
	var daemonErr *daemon.Error
	if errors.As(err, &daemonErr) {
		description = daemonErr.Err.Error()
	}
	return &APIError{
		Status:      m.policy(daemon.Classify(err)),
		Description: description,
	}
}
