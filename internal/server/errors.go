package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/spigell/hr-gpt/internal/ai"
	"github.com/spigell/hr-gpt/internal/document"
	"github.com/spigell/hr-gpt/internal/report"
	"github.com/spigell/hr-gpt/internal/workflow"
	"go.uber.org/zap"
)

// requestError carries the user-facing message stored in the session view next to the cause.
type requestError struct {
	message string
	err     error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func withView(err error, v workflow.View) error {
	if err == nil || v.Error == "" {
		return err
	}
	return &requestError{message: v.Error, err: err}
}

func statusOf(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, errSessionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, workflow.ErrValidation), errors.Is(err, workflow.ErrTooManyResumes),
		errors.Is(err, document.ErrRead):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrBusy), errors.Is(err, workflow.ErrPhase),
		errors.Is(err, workflow.ErrStale), errors.Is(err, workflow.ErrNoReport):
		return fiber.StatusConflict
	case errors.Is(err, ai.ErrRequest), errors.Is(err, report.ErrUnparsable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusOf(err)

		body := fiber.Map{"error": err.Error(), "code": code}
		var re *requestError
		if errors.As(err, &re) {
			body["message"] = re.message
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("request failed", zap.String("path", c.Path()), zap.Int("status", code), zap.Error(err))
		} else {
			logger.Debug("request rejected", zap.String("path", c.Path()), zap.Int("status", code), zap.Error(err))
		}

		return c.Status(code).JSON(body)
	}
}
