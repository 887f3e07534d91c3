package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUntrained is returned when scoring is attempted before a successful train.
	ErrUntrained = errors.New("untrained classifier")
	// ErrEmptyTrainingSet is returned when the corpus has no documents or a single label.
	ErrEmptyTrainingSet = errors.New("no trainable data")
	ErrMalformedState   = errors.New("malformed classifier state")
	ErrPersistence      = errors.New("persistence failure")
)
