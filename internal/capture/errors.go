package capture

import "errors"

// Code is a machine-readable capture failure code. Handlers translate codes
// into HTTP statuses and localized messages; the pipeline never phrases
// user-facing text itself.
type Code string

const (
	CodePermissionDenied      Code = "PERMISSION_DENIED"
	CodeDeviceUnsupported     Code = "DEVICE_UNSUPPORTED"
	CodePositionUnavailable   Code = "POSITION_UNAVAILABLE"
	CodeTimeout               Code = "TIMEOUT"
	CodeInvalidMediaType      Code = "INVALID_MEDIA_TYPE"
	CodeFileTooLarge          Code = "FILE_TOO_LARGE"
	CodeMissingRequiredFields Code = "MISSING_REQUIRED_FIELDS"
	CodeDestinationMissing    Code = "DESTINATION_MISSING"
	CodeTransportFailure      Code = "TRANSPORT_FAILURE"
	CodeUnexpected            Code = "UNEXPECTED_ERROR"
)

// Error carries a typed code through the pipeline. Device and media errors
// are produced by the controller that owns the resource and kept as state;
// upload/persist errors abort submission and reach the caller unchanged.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a typed capture error.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError builds a typed capture error around an underlying cause.
func WrapError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the capture code from err, or CodeUnexpected when err does
// not carry one.
func CodeOf(err error) Code {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeUnexpected
}
