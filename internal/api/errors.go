package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"mapping-editor/internal/apperr"
	"mapping-editor/internal/collab"
	"mapping-editor/internal/editor"
	"mapping-editor/internal/logger"
	"mapping-editor/internal/mapping"
	"mapping-editor/internal/session"
)

// toAppError maps editor failures onto the API error envelope. It returns nil
// for errors it does not know.
func toAppError(err error) *apperr.AppError {
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var collabErr *collab.Error
	switch {
	case errors.Is(err, session.ErrNotFound):
		return apperr.New("SESSION_NOT_FOUND", 404, err.Error())
	case errors.Is(err, mapping.ErrFieldNotFound):
		return apperr.New("FIELD_NOT_FOUND", 404, err.Error())
	case errors.Is(err, mapping.ErrFieldExists):
		return apperr.Conflict("FIELD_EXISTS", err.Error())
	case errors.Is(err, mapping.ErrLocked):
		return apperr.Conflict("EDIT_LOCKED", err.Error())
	case errors.Is(err, mapping.ErrNotEditing):
		return apperr.Conflict("NOT_EDITING", err.Error())
	case errors.Is(err, editor.ErrClosed):
		return apperr.Conflict("SESSION_CLOSED", err.Error())
	case errors.Is(err, mapping.ErrUnpaired):
		return apperr.Unprocessable("UNPAIRED_FRAGMENTS", err.Error())
	case errors.Is(err, mapping.ErrUnknownInput), errors.Is(err, mapping.ErrInvalidValue):
		return apperr.Unprocessable("INVALID_VALUE", err.Error())
	case errors.Is(err, editor.ErrUnknownCategory), errors.Is(err, collab.ErrUnknownCategory):
		return apperr.Unprocessable("UNKNOWN_CATEGORY", err.Error())
	case errors.Is(err, editor.ErrNotGeneratable):
		return apperr.Unprocessable("NOT_GENERATABLE", err.Error())
	case errors.Is(err, editor.ErrNoDataFile):
		return apperr.Unprocessable("NO_DATA_FILE", err.Error())
	case errors.Is(err, editor.ErrInvalidFilter):
		return apperr.Unprocessable("INVALID_FILTER", err.Error())
	case errors.Is(err, collab.ErrMissingFileRef):
		return apperr.Unprocessable("MISSING_FILE_REF", err.Error())
	case errors.Is(err, editor.ErrNoHandler):
		return apperr.New("UNKNOWN_EVENT", 400, err.Error())
	case errors.As(err, &collabErr):
		return apperr.Upstream(collabErr.Error())
	}
	return nil
}

// ErrorHandler renders every handler error as an ErrorResponse.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		return c.Status(code).JSON(apperr.ErrorResponse{
			Error: apperr.New("HTTP_ERROR", code, fiberErr.Message),
		})
	}

	if appErr := toAppError(err); appErr != nil {
		return c.Status(appErr.Status).JSON(apperr.ErrorResponse{Error: appErr})
	}

	logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(code).JSON(apperr.ErrorResponse{
		Error: &apperr.AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
