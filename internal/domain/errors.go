package domain

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Error types for consistent error handling across the BFA.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrRemote carries the human-readable message a collaborator returned
// with a non-2xx status ({"mensaje": ...} or {"error": ...}).
type ErrRemote struct {
	Status  int
	Message string
}

func (e *ErrRemote) Error() string {
	return e.Message
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("servicio %s no disponible temporalmente", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict indicates the request conflicts with the current state.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrInvalidTransition indicates an event that the current wizard mode
// does not accept (e.g. confirm while idle).
type ErrInvalidTransition struct {
	Mode  string
	Event string
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("event %q not accepted in mode %q", e.Event, e.Mode)
}

var (
	// ErrBusy is returned when a wizard already has a collaborator call in flight.
	ErrBusy = errors.New("wizard is processing a previous action")

	// ErrMissingDecision signals proceed_route was reached without a decision result.
	// The mode is unreachable without one, so this is a programming error.
	ErrMissingDecision = errors.New("payment route requested without a decision result")
)

// UserMessage extracts the message shown to the operator from a collaborator error.
// Only the human-readable string survives; codes are not introspected.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var remote *ErrRemote
	if errors.As(err, &remote) {
		return remote.Message
	}
	var open *ErrCircuitOpen
	if errors.As(err, &open) {
		return open.Error()
	}
	var ext *ErrExternalService
	if errors.As(err, &ext) && ext.Err != nil {
		if isTransport(ext.Err) {
			return fmt.Sprintf("servicio %s no disponible", ext.Service)
		}
		return ext.Err.Error()
	}
	if isTransport(err) {
		return "servicio no disponible"
	}
	return err.Error()
}

// isTransport identifica falhas de rede e de contexto, cujo texto expõe URLs internas.
func isTransport(err error) bool {
	var uerr *url.Error
	return errors.As(err, &uerr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
