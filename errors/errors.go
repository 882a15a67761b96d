/*
 * MIT License
 *
 * Copyright (c) 2022-2025 Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package errors defines the error taxonomy of goinvoke.
//
// Three families of failure exist:
//   - AppError: the callee implementation raised a business error. It travels
//     back to the caller as a valid reply.
//   - FrameworkError: transport error, timeout, serialization failure or an
//     invoker internal fault. It is classified by Kind.
//   - BootstrapError: exporting a service failed because the implementation
//     and its protocol stub cannot be paired. It aborts the export.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNoExecutionUnit is returned when a go context does not carry an execution unit.
	ErrNoExecutionUnit = errors.New("no execution unit bound to context")

	// ErrContextAlreadyBound is returned when an invocation context is attached to a unit
	// while it is still bound to another unit.
	ErrContextAlreadyBound = errors.New("invocation context is already bound to another unit")

	// ErrProtocolNotSupported is returned when no bootstrap strategy is registered for a protocol tag.
	ErrProtocolNotSupported = errors.New("protocol is not supported")

	// ErrServiceNotFound is returned when an inbound call targets a service that is not exported.
	ErrServiceNotFound = errors.New("service not found")

	// ErrMethodNotFound is returned when an inbound call targets a method the service does not expose.
	ErrMethodNotFound = errors.New("method not found")

	// ErrAlreadyExported is returned when a service key is exported twice on the same server.
	ErrAlreadyExported = errors.New("service is already exported")

	// ErrServerNotStarted is returned when exporting on a server that is not running.
	ErrServerNotStarted = errors.New("server is not started")
	// ErrServerNotRestartable is returned when restarting a server whose listeners were supplied by the caller.
	ErrServerNotRestartable = errors.New("server listeners cannot be served again once closed")

	// ErrDispatcherStopped is returned when a callback call is issued on a stopped dispatcher.
	ErrDispatcherStopped = errors.New("callback dispatcher is stopped")

	// ErrInvalidConfig is returned when a configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUndefinedCallback is returned when a callback style call has no response callback.
	ErrUndefinedCallback = errors.New("response callback is not defined")

	// ErrInvalidPayload is returned when a payload cannot be packed or unpacked.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrTimeout matches any FrameworkError of KindTimeout.
	ErrTimeout = errors.New("invocation timed out")

	// ErrTransport matches any FrameworkError of KindTransport.
	ErrTransport = errors.New("transport failure")

	// ErrSerialization matches any FrameworkError of KindSerialization.
	ErrSerialization = errors.New("serialization failure")

	// ErrInvoker matches any FrameworkError of KindInvoker.
	ErrInvoker = errors.New("invoker failure")

	// ErrCanceled matches any FrameworkError of KindCanceled.
	ErrCanceled = errors.New("invocation canceled")

	// ErrShutdown matches any FrameworkError of KindShutdown.
	ErrShutdown = errors.New("dispatcher shut down")

	// ErrRouting matches any FrameworkError of KindRouting.
	ErrRouting = errors.New("routing failure")
)

// Kind classifies framework level failures
type Kind int

const (
	// KindTransport is a transport I/O failure
	KindTransport Kind = iota
	// KindTimeout is a deadline expiry
	KindTimeout
	// KindSerialization is an encoding or decoding failure
	KindSerialization
	// KindInvoker is a fault raised inside the provider invoker itself
	KindInvoker
	// KindCanceled is a call canceled by its issuer
	KindCanceled
	// KindShutdown is a call still pending when the dispatcher stopped
	KindShutdown
	// KindRouting is a call that could not be routed to an exported service
	KindRouting
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindSerialization:
		return "serialization"
	case KindInvoker:
		return "invoker"
	case KindCanceled:
		return "canceled"
	case KindShutdown:
		return "shutdown"
	case KindRouting:
		return "routing"
	default:
		return "unknown"
	}
}

// ParseKind returns the Kind whose name is s. Unknown names map to KindTransport.
func ParseKind(s string) Kind {
	switch s {
	case "timeout":
		return KindTimeout
	case "serialization":
		return KindSerialization
	case "invoker":
		return KindInvoker
	case "canceled":
		return KindCanceled
	case "shutdown":
		return KindShutdown
	case "routing":
		return KindRouting
	default:
		return KindTransport
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindTimeout:
		return ErrTimeout
	case KindSerialization:
		return ErrSerialization
	case KindInvoker:
		return ErrInvoker
	case KindCanceled:
		return ErrCanceled
	case KindShutdown:
		return ErrShutdown
	case KindRouting:
		return ErrRouting
	default:
		return ErrTransport
	}
}

// AppError is a business level failure raised by a callee implementation.
type AppError struct {
	// Method is the method that raised the error
	Method string
	// Message is the error message produced by the callee
	Message string
	// Type is an optional type name for the error, useful to callers that map errors back to types
	Type string
}

var _ error = (*AppError)(nil)

// NewAppError creates an AppError from the error returned by a callee
func NewAppError(method string, err error) *AppError {
	if err == nil {
		return nil
	}
	appErr := &AppError{Method: method, Message: err.Error()}
	var typed interface{ ErrorType() string }
	if errors.As(err, &typed) {
		appErr.Type = typed.ErrorType()
	}
	return appErr
}

// Error implements error
func (e *AppError) Error() string {
	return e.Message
}

// FrameworkError is a framework level failure: the call did not complete a valid
// business round trip.
type FrameworkError struct {
	// Kind classifies the failure
	Kind Kind
	// Method is the method being invoked when the failure happened
	Method string
	// Cause is the underlying error, may be nil
	Cause error
	// Fields holds the metadata received out-of-band with the failure.
	// Only forced response baggage is ever read from it.
	Fields map[string]string
}

var _ error = (*FrameworkError)(nil)

// NewFrameworkError creates a FrameworkError of the given kind
func NewFrameworkError(kind Kind, method string, cause error) *FrameworkError {
	return &FrameworkError{Kind: kind, Method: method, Cause: cause}
}

// Error implements error
func (e *FrameworkError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: method=(%s)", e.Kind.sentinel().Error(), e.Method)
	}
	return fmt.Sprintf("%s: method=(%s): %v", e.Kind.sentinel().Error(), e.Method, e.Cause)
}

// Unwrap returns the underlying cause
func (e *FrameworkError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel matching the error kind
func (e *FrameworkError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// WithFields returns the error carrying the given out-of-band fields
func (e *FrameworkError) WithFields(fields map[string]string) *FrameworkError {
	e.Fields = fields
	return e
}

// AsFrameworkError converts any error into a FrameworkError. Errors that are not
// already framework errors are classified as the given kind.
func AsFrameworkError(err error, kind Kind, method string) *FrameworkError {
	if err == nil {
		return nil
	}
	var frameworkErr *FrameworkError
	if errors.As(err, &frameworkErr) {
		if frameworkErr.Method == "" {
			frameworkErr.Method = method
		}
		return frameworkErr
	}
	return NewFrameworkError(kind, method, err)
}

// BootstrapError is a fatal export failure: the rebinding hook exists on the
// implementation but could not be applied.
type BootstrapError struct {
	// Protocol is the protocol tag of the bootstrap strategy
	Protocol string
	// Target describes the implementation being exported
	Target string
	// Cause is the underlying error
	Cause error
}

var _ error = (*BootstrapError)(nil)

// Error implements error
func (e *BootstrapError) Error() string {
	return fmt.Sprintf("failed to bind dispatch proxy to target=(%s) protocol=(%s), make sure the stub and the implementation are paired: %v",
		e.Target, e.Protocol, e.Cause)
}

// Unwrap returns the underlying cause
func (e *BootstrapError) Unwrap() error {
	return e.Cause
}

// NewErrServiceNotFound formats an ErrServiceNotFound with the given service key.
func NewErrServiceNotFound(service string) error {
	return fmt.Errorf("(service=%s) %w", service, ErrServiceNotFound)
}

// NewErrMethodNotFound formats an ErrMethodNotFound with the given service and method.
func NewErrMethodNotFound(service, method string) error {
	return fmt.Errorf("(service=%s, method=%s) %w", service, method, ErrMethodNotFound)
}

// NewErrProtocolNotSupported formats an ErrProtocolNotSupported with the given tag.
func NewErrProtocolNotSupported(protocol string) error {
	return fmt.Errorf("(protocol=%s) %w", protocol, ErrProtocolNotSupported)
}

// NewErrAlreadyExported formats an ErrAlreadyExported with the given service key.
func NewErrAlreadyExported(service string) error {
	return fmt.Errorf("(service=%s) %w", service, ErrAlreadyExported)
}

// NewErrInvalidConfig wraps a validation error with ErrInvalidConfig.
func NewErrInvalidConfig(err error) error {
	return errors.Join(ErrInvalidConfig, err)
}
