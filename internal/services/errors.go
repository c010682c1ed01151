package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

var (
	// ErrConfigMissing means no generator credential is configured. It is returned
	// before any network request is attempted.
	ErrConfigMissing = errors.New("generator configuration missing")

	// ErrMediaUnavailable is returned by the no-op media services.
	ErrMediaUnavailable = errors.New("media generation not configured")

	ErrEmptyResponse = errors.New("generator returned an empty response")
)

// StatusError is a non-success HTTP response from a provider.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Provider, e.Code, e.Body)
}

// Classify maps a generator error onto the error kinds shown to the player.
func Classify(err error) state.ErrorKind {
	if err == nil {
		return state.ErrorKindNone
	}
	if errors.Is(err, ErrConfigMissing) {
		return state.ErrorKindConfig
	}

	var se *StatusError
	if errors.As(err, &se) {
		return classifyStatus(se.Code)
	}
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		return classifyStatus(ge.Code)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return state.ErrorKindNetwork
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return state.ErrorKindNetwork
	}
	return state.ErrorKindGenerator
}

func classifyStatus(code int) state.ErrorKind {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return state.ErrorKindConfig
	case code == http.StatusRequestTimeout || code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout:
		return state.ErrorKindNetwork
	default:
		return state.ErrorKindGenerator
	}
}
