// Package services provides the workflow store and run stub operations plus their error types.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidGraph   = models.ErrInvalidGraph

	// Store failures (500).
	ErrPersistence = errors.New("persistence failure")
)

// Error codes carried by ServiceError.
const (
	CodeValidation  = "validation_error"
	CodePersistence = "persistence_error"
	CodeConflict    = "version_conflict"
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidGraph)
}

// IsPersistenceError checks if an error is a store failure that should return HTTP 500.
func IsPersistenceError(err error) bool {
	return errors.Is(err, ErrPersistence)
}

// IsNotFound checks if an error names a missing workflow, version or run.
func IsNotFound(err error) bool {
	return persistence.IsNotFound(err)
}

// IsConflictError checks if an error is an append that kept losing the race (HTTP 409).
func IsConflictError(err error) bool {
	return errors.Is(err, persistence.ErrVersionConflict)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    CodeValidation,
		Message: message,
		Err:     err,
	}
}

// NewPersistenceError marks err as a store failure of op.
func NewPersistenceError(op string, err error) *ServiceError {
	return &ServiceError{
		Op:   op,
		Code: CodePersistence,
		Err:  fmt.Errorf("%w: %w", ErrPersistence, err),
	}
}

// storeError passes not-found errors through and classifies everything else as persistence,
// logging the underlying failure since callers only see the classification.
func storeError(ctx context.Context, logger *slog.Logger, op string, err error) error {
	if persistence.IsNotFound(err) {
		return err
	}

	logger.ErrorContext(ctx, "store operation failed", "op", op, "error", err)

	return NewPersistenceError(op, err)
}
