// internal/graph/errors.go
package graph

import (
	"context"
	"log/slog"

	"roamly/internal/domain/auth"
	apperrors "roamly/pkg/errors"
)

const (
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeConflict        = "CONFLICT"
	CodeNotFound        = "NOT_FOUND"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

var errLoginRequired = apperrors.NewAuthenticationError("You need to be logged in!")

// Error is what resolvers hand back to the engine; Extensions surfaces the
// code in the response's errors[].extensions.
type Error struct {
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

func (r *Resolver) fail(ctx context.Context, op string, err error) *Error {
	switch e := err.(type) {
	case *apperrors.ValidationError, *apperrors.BadRequestError:
		return &Error{Message: e.Error(), Code: CodeBadUserInput}
	case *apperrors.AuthenticationError:
		return &Error{Message: e.Error(), Code: CodeUnauthenticated}
	case *apperrors.ConflictError:
		return &Error{Message: e.Error(), Code: CodeConflict}
	case *apperrors.NotFoundError:
		return &Error{Message: e.Error(), Code: CodeNotFound}
	default:
		attrs := []any{"operation", op, "error", err}
		if id, ok := auth.IdentityFrom(ctx); ok {
			attrs = append(attrs, "user_id", id.UserID)
		}
		r.logger.Log(ctx, slog.LevelError, "resolver failed", attrs...)
		return &Error{Message: apperrors.NewInternalError().Error(), Code: CodeInternal}
	}
}
