package models

import (
	"errors"
	"fmt"
)

var (
	// ErrAttributeNotFound is returned for attribute-style access to a reserved name.
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrUnsupported is returned for driver features the in-memory store does not model.
	ErrUnsupported = errors.New("not implemented")

	ErrInvalidArgumentType  = errors.New("invalid argument type")
	ErrInvalidArgumentValue = errors.New("invalid argument value")
	ErrInvalidName          = errors.New("invalid name")

	ErrOperationFailure = errors.New("operation failure")
	ErrDuplicateKey     = errors.New("duplicate key error")
)

// Server error codes reported by OperationFailure.
const (
	CodeIllegalOperation     = 20
	CodeIndexOptionsConflict = 85
	CodeNamespaceNotFound    = 10026
	CodeNamespaceExists      = 10027
	CodeDuplicateKey         = 11000
)

// OperationFailure is a failed operation with the server error code it maps to.
type OperationFailure struct {
	Code    int
	Message string
}

// NewOperationFailure builds an OperationFailure with a formatted message.
func NewOperationFailure(code int, format string, args ...interface{}) *OperationFailure {
	return &OperationFailure{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *OperationFailure) Error() string {
	return fmt.Sprintf("%s, full error: {'ok': 0.0, 'errmsg': '%s', 'code': %d}", e.Message, e.Message, e.Code)
}

// Unwrap lets errors.Is match ErrOperationFailure, and ErrDuplicateKey for
// duplicate key failures.
func (e *OperationFailure) Unwrap() []error {
	if e.Code == CodeDuplicateKey {
		return []error{ErrOperationFailure, ErrDuplicateKey}
	}
	return []error{ErrOperationFailure}
}

// Unsupported wraps ErrUnsupported with a description of the feature.
func Unsupported(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}
