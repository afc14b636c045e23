package rest

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/dmitrijs2005/taskflow/internal/logging"
	"github.com/gofiber/fiber/v2"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// requestValidationError carries per-field details and matches
// common.ErrValidation with errors.Is.
type requestValidationError struct {
	fields []FieldError
}

func (e *requestValidationError) Error() string {
	parts := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *requestValidationError) Unwrap() error { return common.ErrValidation }

// ErrorHandler turns errors returned by handlers into the JSON error shape.
// It is the only place where domain errors become HTTP status codes.
func ErrorHandler(logger logging.Logger, hideForeign bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		ctx := c.UserContext()

		var fe *fiber.Error
		var ve *requestValidationError

		switch {
		case errors.As(err, &ve):
			return errorJSON(c, fiber.StatusBadRequest, ErrCodeValidation, "validation failed", ve.fields)

		case errors.Is(err, common.ErrValidation):
			return errorJSON(c, fiber.StatusBadRequest, ErrCodeValidation, validationMessage(err), nil)

		case errors.Is(err, common.ErrUnauthorized):
			return errorJSON(c, fiber.StatusUnauthorized, ErrCodeUnauthorized, "incorrect email or password", nil)

		case errors.Is(err, common.ErrTokenExpired):
			return errorJSON(c, fiber.StatusUnauthorized, ErrCodeUnauthorized, "token has expired", nil)

		case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrUserNotFound):
			return errorJSON(c, fiber.StatusUnauthorized, ErrCodeUnauthorized, "could not validate credentials", nil)

		case errors.Is(err, common.ErrForbidden):
			if hideForeign {
				return errorJSON(c, fiber.StatusNotFound, ErrCodeNotFound, "task not found", nil)
			}
			return errorJSON(c, fiber.StatusForbidden, ErrCodeForbidden, "not authorized to access this task", nil)

		case errors.Is(err, common.ErrNotFound):
			return errorJSON(c, fiber.StatusNotFound, ErrCodeNotFound, "task not found", nil)

		case errors.Is(err, common.ErrAlreadyExists):
			return errorJSON(c, fiber.StatusConflict, ErrCodeConflict, conflictMessage(err), nil)

		case errors.As(err, &fe):
			return errorJSON(c, fe.Code, codeForStatus(fe.Code), fe.Message, nil)
		}

		logger.Error(ctx, "Unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, ErrCodeInternalError, "internal server error", nil)
	}
}

// validationMessage drops the sentinel prefix from a wrapped validation error.
func validationMessage(err error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, common.ErrValidation.Error()+": "); ok {
		return rest
	}
	return msg
}

// conflictMessage keeps the detail a service attached to ErrAlreadyExists.
func conflictMessage(err error) string {
	if detail, ok := strings.CutPrefix(err.Error(), common.ErrAlreadyExists.Error()+": "); ok {
		return detail
	}
	return "resource already exists"
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return ErrCodeBadRequest
	case fiber.StatusUnauthorized:
		return ErrCodeUnauthorized
	case fiber.StatusForbidden:
		return ErrCodeForbidden
	case fiber.StatusNotFound:
		return ErrCodeNotFound
	case fiber.StatusConflict:
		return ErrCodeConflict
	}
	if status >= 500 {
		return ErrCodeInternalError
	}
	return ErrCodeBadRequest
}
