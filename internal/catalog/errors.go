package catalog

import "errors"

// Repository errors.
var (
	ErrProductNotFound = errors.New("product not found")
)

// Validation errors.
var (
	ErrInvalidInput = errors.New("invalid input")
)
