package apperrors

import "errors"

// =============================================================================
// Error Codes
// =============================================================================

type ErrorCode string

const (
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
	ErrorCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrorCodeConfigError       ErrorCode = "CONFIG_ERROR"
	ErrorCodeProtocolViolation ErrorCode = "PROTOCOL_VIOLATION"
	ErrorCodeAuthInvalid       ErrorCode = "AUTH_INVALID"
	ErrorCodeUnknownRequest    ErrorCode = "UNKNOWN_REQUEST"
	ErrorCodeRemoteCallFailed  ErrorCode = "REMOTE_CALL_FAILED"
	ErrorCodeMappingError      ErrorCode = "MAPPING_ERROR"
	ErrorCodeConnectionLost    ErrorCode = "CONNECTION_LOST"
	ErrorCodeNotConnected      ErrorCode = "NOT_CONNECTED"
	ErrorCodeNotSupported      ErrorCode = "NOT_SUPPORTED"
)

// ErrorType categorizes errors for the status API.
type ErrorType string

const (
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	ErrorTypeAPIError       ErrorType = "api_error"
	ErrorTypeBridgeError    ErrorType = "bridge_error"
)

// ErrorBody is the serialized error payload.
// Format: {"type": "invalid_request_error", "code": "NOT_FOUND", "message": "..."}
type ErrorBody struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// AppError is the base error type shared by the bridge core and the status API.
type AppError struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
	Err        error
}

func (err *AppError) Error() string {
	if err.Err != nil {
		return err.Message + ": " + err.Err.Error()
	}
	return err.Message
}

func (err *AppError) Unwrap() error {
	return err.Err
}

// ErrorBody returns the error in the status API format.
func (err *AppError) ErrorBody() ErrorBody {
	errType := ErrorTypeAPIError
	switch {
	case err.StatusCode >= 400 && err.StatusCode < 500:
		errType = ErrorTypeInvalidRequest
	case err.StatusCode == 502 || err.StatusCode == 503:
		errType = ErrorTypeBridgeError
	}

	return ErrorBody{
		Type:    errType,
		Code:    string(err.Code),
		Message: err.Message,
		Details: err.Details,
	}
}

func NewAppError(code ErrorCode, message string, statusCode int, details map[string]any) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Wrap attaches a cause to a new AppError.
func Wrap(code ErrorCode, message string, cause error) *AppError {
	err := NewAppError(code, message, statusForCode(code), nil)
	err.Err = cause
	return err
}

func statusForCode(code ErrorCode) int {
	switch code {
	case ErrorCodeNotFound:
		return 404
	case ErrorCodeConfigError, ErrorCodeMappingError:
		return 400
	case ErrorCodeNotSupported:
		return 501
	case ErrorCodeNotConnected:
		return 503
	case ErrorCodeProtocolViolation, ErrorCodeAuthInvalid, ErrorCodeConnectionLost,
		ErrorCodeRemoteCallFailed, ErrorCodeUnknownRequest:
		return 502
	default:
		return 500
	}
}

func NewNotFoundResource(resource, id string) *AppError {
	message := resource + " not found"
	details := map[string]any{
		"resource": resource,
	}
	if id != "" {
		message = resource + " not found: " + id
		details["id"] = id
	}
	return NewAppError(ErrorCodeNotFound, message, 404, details)
}

func NewInternalError(message string) *AppError {
	return NewAppError(ErrorCodeInternalError, message, 500, nil)
}

func NewConfigError(message string) *AppError {
	return NewAppError(ErrorCodeConfigError, message, 400, nil)
}

// NewProtocolViolation reports an unexpected message during the handshake.
func NewProtocolViolation(message string, details map[string]any) *AppError {
	return NewAppError(ErrorCodeProtocolViolation, message, 502, details)
}

func NewAuthInvalidError(message string) *AppError {
	return NewAppError(ErrorCodeAuthInvalid, message, 502, nil)
}

func NewUnknownRequestError(id int64) *AppError {
	return NewAppError(ErrorCodeUnknownRequest, "no pending request for result", 502, map[string]any{"id": id})
}

func NewRemoteCallFailed(message string, details map[string]any) *AppError {
	return NewAppError(ErrorCodeRemoteCallFailed, message, 502, details)
}

// NewMappingError reports a value with no counterpart in a translation table.
func NewMappingError(field, value string) *AppError {
	return NewAppError(ErrorCodeMappingError, "unmapped "+field+" value: "+value, 400, map[string]any{
		"field": field,
		"value": value,
	})
}

func NewConnectionLost(cause error) *AppError {
	return Wrap(ErrorCodeConnectionLost, "connection lost", cause)
}

func NewNotConnectedError() *AppError {
	return NewAppError(ErrorCodeNotConnected, "not connected to Home Assistant", 503, nil)
}

func NewNotSupportedError(operation string) *AppError {
	return NewAppError(ErrorCodeNotSupported, operation+" is not supported", 501, map[string]any{"operation": operation})
}

// EnsureAppError converts an arbitrary error into an AppError.
func EnsureAppError(err error) *AppError {
	if err == nil {
		return NewInternalError("Unknown error")
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError("Internal server error")
}

// Is reports whether err is an AppError carrying code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}
