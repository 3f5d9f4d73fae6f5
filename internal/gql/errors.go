package gql

import (
	"context"
	"errors"

	"github.com/inventa/inventory-api/internal/catalog"
	"github.com/inventa/inventory-api/internal/identity"
	"github.com/inventa/inventory-api/internal/pkg/ctxlog"
)

// Code is the machine readable error code returned in extensions.code.
type Code string

// Error codes.
const (
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeConflict     Code = "CONFLICT"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInternal     Code = "INTERNAL_SERVER_ERROR"
)

// ErrorMapping defines how a domain error maps to a GraphQL error.
type ErrorMapping struct {
	Error   error
	Code    Code
	Message string // if empty, uses err.Error()
}

var errorMappings = []ErrorMapping{
	{Error: identity.ErrInvalidInput, Code: CodeInvalidInput},
	{Error: catalog.ErrInvalidInput, Code: CodeInvalidInput},
	{Error: identity.ErrUserExists, Code: CodeConflict},
	{Error: identity.ErrInvalidCredentials, Code: CodeUnauthorized},
	{Error: identity.ErrInvalidToken, Code: CodeUnauthorized, Message: identity.ErrUnauthorized.Error()},
	{Error: identity.ErrUnauthorized, Code: CodeUnauthorized},
	{Error: catalog.ErrProductNotFound, Code: CodeNotFound},
}

// Error is a resolver error carrying an extensions code.
type Error struct {
	Message string
	Code    Code
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions implements gqlerrors.ExtendedError.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": string(e.Code)}
}

// toError maps a domain error to a GraphQL error.
// Unmapped errors are logged and hidden behind a generic message.
func toError(ctx context.Context, err error) error {
	var gqlErr *Error
	if errors.As(err, &gqlErr) {
		return gqlErr
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.Error) {
			msg := m.Message
			if msg == "" {
				msg = err.Error()
			}
			return &Error{Message: msg, Code: m.Code}
		}
	}

	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	return &Error{Message: "internal error", Code: CodeInternal}
}
