package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Jenis error yang dikembalikan service; controller memetakan ke HTTP status.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

// ServiceError membawa jenis error dan pesan untuk user.
type ServiceError struct {
	Kind    error
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Kind
}

func notFound(format string, args ...interface{}) error {
	return &ServiceError{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...interface{}) error {
	return &ServiceError{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...interface{}) error {
	return &ServiceError{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// lookupErr turns gorm's record-not-found into ErrNotFound and wraps anything else.
func lookupErr(err error, entity string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("%s %v not found", entity, id)
	}
	return fmt.Errorf("failed to find %s: %w", entity, err)
}
