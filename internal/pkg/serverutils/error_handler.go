package serverutils

import (
	"errors"

	"docvault-be/internal/dto"
	"docvault-be/pkg/dialogue/scope"
	"docvault-be/pkg/dialogue/session"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain error variants to HTTP statuses so
// controllers can simply return errors.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var accessDenied *dto.AccessDeniedError
		if errors.As(err, &accessDenied) || errors.Is(err, scope.ErrDenied) {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Access denied"))
		}

		var conflict *dto.SessionConflictError
		if errors.As(err, &conflict) || errors.Is(err, session.ErrBusy) {
			return ctx.Status(fiber.StatusConflict).JSON(ErrorResponse(fiber.StatusConflict, "Conversation is busy, retry shortly"))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
	}
}
