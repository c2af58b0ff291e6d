package frontdesk

import (
	"fmt"
	"strings"
	"time"
)

// Error codes as constants
const (
	ErrCodePermissionDenied  = "PERMISSION_DENIED"
	ErrCodeDeviceUnavailable = "DEVICE_UNAVAILABLE"
	ErrCodeTransport         = "TRANSPORT_ERROR"
	ErrCodeDecode            = "DECODE_ERROR"
	ErrCodeNotConnected      = "NOT_CONNECTED"
	ErrCodeTokenGeneration   = "TOKEN_GENERATION_FAILED"
	ErrCodeTokenDecode       = "TOKEN_DECODE_FAILED"
	ErrCodeConfigInvalid     = "CONFIG_INVALID"
	ErrCodeUnknown           = "UNKNOWN_ERROR"
)

// SessionError carries a message, a stable code, and optional context.
type SessionError struct {
	Message   string
	Code      string
	Details   map[string]interface{}
	Timestamp time.Time
}

func (e *SessionError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%s)", e.Message, e.Code))
	if len(e.Details) > 0 {
		sb.WriteString(":")
		for k, v := range e.Details {
			sb.WriteString(fmt.Sprintf(" %s=%v", k, v))
		}
	}
	return sb.String()
}

func NewSessionError(message, code string) *SessionError {
	return &SessionError{
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// Specific error creators with common codes
func NewPermissionError(message string) *SessionError {
	return NewSessionError(message, ErrCodePermissionDenied)
}

func NewDeviceError(message string) *SessionError {
	return NewSessionError(message, ErrCodeDeviceUnavailable)
}

func NewTransportError(message string) *SessionError {
	return NewSessionError(message, ErrCodeTransport)
}

func NewDecodeError(message string) *SessionError {
	return NewSessionError(message, ErrCodeDecode)
}

func NewConfigError(message string) *SessionError {
	return NewSessionError(message, ErrCodeConfigInvalid)
}

// Helper to wrap any error as SessionError
func WrapError(err error, code string) *SessionError {
	if err == nil {
		return nil
	}
	sErr := NewSessionError(err.Error(), code)
	sErr.AddDetail("original_error", err.Error())
	return sErr
}

// Helper to check if error has specific code
func IsErrorCode(err *SessionError, code string) bool {
	if err == nil {
		return false
	}
	return err.Code == code
}

// Helper to add details to existing SessionError
func (e *SessionError) AddDetail(key string, value interface{}) *SessionError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Helper to get error details
func (e *SessionError) GetDetail(key string) (interface{}, bool) {
	if e.Details == nil {
		return nil, false
	}
	value, exists := e.Details[key]
	return value, exists
}

// IsDeviceError reports whether the error is one of the microphone
// acquisition failures that must surface to the caller.
func IsDeviceError(err *SessionError) bool {
	if err == nil {
		return false
	}
	return err.Code == ErrCodePermissionDenied || err.Code == ErrCodeDeviceUnavailable
}
