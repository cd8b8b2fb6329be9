package domain

import "fmt"

// Error types for consistent error handling across the gateway.

// ErrValidation indicates malformed constructor or setter input.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrPrecondition indicates an operation was attempted before the
// fields it depends on were set.
type ErrPrecondition struct {
	Operation string
	Message   string
}

func (e *ErrPrecondition) Error() string {
	return fmt.Sprintf("precondition failed [%s]: %s", e.Operation, e.Message)
}

// ErrProtocol is raised when the authorization network answers with an
// <erro> document. Code is kept verbatim ("032"), leading zeros included.
type ErrProtocol struct {
	Code    string
	Message string
}

func (e *ErrProtocol) Error() string {
	return fmt.Sprintf("cielo error %s: %s", e.Code, e.Message)
}

// ErrExternalService indicates a failure in an external service call.
// It is the transport error of the gateway: the core treats it as opaque.
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

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrUnknownMapping indicates an unrecognized brand, indicator, ECI or
// status code.
type ErrUnknownMapping struct {
	Kind  string
	Value string
}

func (e *ErrUnknownMapping) Error() string {
	return fmt.Sprintf("unknown %s: %s", e.Kind, e.Value)
}

// ErrUnexpectedDocument indicates a response whose root element is neither
// an error, a tid return nor a transaction, or that is not XML at all.
type ErrUnexpectedDocument struct {
	Root string
	Err  error
}

func (e *ErrUnexpectedDocument) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected response document: %v", e.Err)
	}
	return fmt.Sprintf("unexpected response document: root <%s>", e.Root)
}

func (e *ErrUnexpectedDocument) Unwrap() error {
	return e.Err
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
