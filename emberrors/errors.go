package emberrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Class classifies an error by how the caller should react to it.
type Class int

const (
	// Transient errors may succeed if retried.
	Transient Class = iota
	// Invalid errors stem from caller misuse or malformed peer data.
	Invalid
	// Fatal errors mean the session cannot continue.
	Fatal
)

// String returns the human-readable name of the class.
func (c Class) String() string {
	switch c {
	case Transient:
		return "transient"
	case Invalid:
		return "invalid"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Sentinel errors for the kinds named in the session engine spec.
var (
	// ErrTransport covers a failed byte stream: connect, read, or write.
	ErrTransport = errors.New("transport error")
	// ErrFrame covers an S101 frame rejected by CRC, escaping, or length.
	ErrFrame = errors.New("frame error")
	// ErrDecode covers a BER tag mismatch, truncated input, or unknown structure.
	ErrDecode = errors.New("decode error")
	// ErrTimeout covers a request whose deadline expired before a matching response arrived.
	ErrTimeout = errors.New("request timeout")
	// ErrInvalidRequest covers caller misuse: setValue on a non-parameter, an
	// out-of-range matrix connection, or a nil node.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrAccessDenied covers a peer-reported write-denied on a read-only parameter.
	ErrAccessDenied = errors.New("access denied")
	// ErrPathNotFound covers a tree walk that exhausted discovery without
	// finding the requested path.
	ErrPathNotFound = errors.New("path not found")
	// ErrConnectionClosed covers a disconnect while waiters were pending.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrInvalidConnection covers a matrix connect/disconnect/set request
	// whose target or source id falls outside the matrix's declared
	// targetCount/sourceCount.
	ErrInvalidConnection = errors.New("invalid connection")
)

// ClassifiedError wraps an error with its classification and the
// component/operation that produced it.
type ClassifiedError struct {
	Class     Class
	Err       error
	Message   string
	Component string
	Operation string
}

func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

func newClassified(class Class, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap produces a standardized error message: "component.operation: action failed: %w".
func Wrap(err error, component, operation, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, operation, action, err)
}

// WrapTransient wraps err as a Transient classified error.
func WrapTransient(err error, component, operation, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, operation, action)
	return newClassified(Transient, wrapped, component, operation, wrapped.Error())
}

// WrapFatal wraps err as a Fatal classified error.
func WrapFatal(err error, component, operation, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, operation, action)
	return newClassified(Fatal, wrapped, component, operation, wrapped.Error())
}

// WrapInvalid wraps err as an Invalid classified error.
func WrapInvalid(err error, component, operation, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, operation, action)
	return newClassified(Invalid, wrapped, component, operation, wrapped.Error())
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == Transient
	}

	if errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrFrame) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	low := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "connection", "network", "temporary", "unavailable"} {
		if strings.Contains(low, pattern) {
			return true
		}
	}
	return false
}

// IsFatal reports whether err should stop the session entirely.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == Fatal
	}
	return errors.Is(err, ErrConnectionClosed)
}

// IsInvalid reports whether err stems from caller misuse or malformed peer data.
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == Invalid
	}
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrDecode) || errors.Is(err, ErrInvalidConnection)
}

// Classify returns the error's class, defaulting to Transient for unknown errors.
func Classify(err error) Class {
	switch {
	case err == nil:
		return Transient
	case IsFatal(err):
		return Fatal
	case IsInvalid(err):
		return Invalid
	default:
		return Transient
	}
}
