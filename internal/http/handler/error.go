package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"civireport/internal/capture"
	"civireport/internal/http/middleware"
	"civireport/internal/repository"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeCaptureError maps a typed capture pipeline error onto the standard
// envelope. The capture code is passed through so the client can phrase a
// localized message per condition.
func writeCaptureError(c *fiber.Ctx, err error) error {
	if errors.Is(err, capture.ErrSubmitInFlight) {
		return writeError(c, fiber.StatusConflict, "SUBMIT_IN_FLIGHT", "a submission is already in progress")
	}
	if errors.Is(err, capture.ErrDraftClosed) {
		return writeError(c, fiber.StatusConflict, "DRAFT_CLOSED", "this draft was already submitted")
	}
	// The repository re-checks required fields independently of the capture
	// gate; its sentinel maps to the same envelope code.
	if errors.Is(err, repository.ErrMissingRequiredFields) {
		return writeError(c, fiber.StatusUnprocessableEntity,
			string(capture.CodeMissingRequiredFields), err.Error())
	}

	var ce *capture.Error
	if !errors.As(err, &ce) {
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}

	status := fiber.StatusInternalServerError
	switch ce.Code {
	case capture.CodeMissingRequiredFields,
		capture.CodePermissionDenied,
		capture.CodeDeviceUnsupported,
		capture.CodePositionUnavailable,
		capture.CodeTimeout:
		status = fiber.StatusUnprocessableEntity
	case capture.CodeInvalidMediaType:
		status = fiber.StatusUnsupportedMediaType
	case capture.CodeFileTooLarge:
		status = fiber.StatusRequestEntityTooLarge
	case capture.CodeDestinationMissing:
		status = fiber.StatusServiceUnavailable
	case capture.CodeTransportFailure:
		status = fiber.StatusBadGateway
	}
	return writeError(c, status, string(ce.Code), ce.Message)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
