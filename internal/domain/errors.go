package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies failures surfaced to the user.
type ErrorCode string

const (
	ErrCodeNoAPIKey           ErrorCode = "NO_API_KEY"
	ErrCodeDecryptionFailed   ErrorCode = "DECRYPTION_FAILED"
	ErrCodeUnknownCommand     ErrorCode = "UNKNOWN_COMMAND"
	ErrCodeNetworkOrAPI       ErrorCode = "NETWORK_OR_API_ERROR"
	ErrCodeMalformedResponse  ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeInvalidCommand     ErrorCode = "INVALID_COMMAND"
	ErrCodeCommandConflict    ErrorCode = "COMMAND_CONFLICT"
	ErrCodeInvalidSettings    ErrorCode = "INVALID_SETTINGS"
	ErrCodeHostDisabled       ErrorCode = "HOST_DISABLED"
	ErrCodeCommandNotFound    ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeBuiltinNotEditable ErrorCode = "BUILTIN_NOT_EDITABLE"
)

// Error is a structured error with a stable code.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]any
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err, or anything it wraps, is an *Error with code.
func IsCode(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ""
}

// NewNoAPIKey reports a provider without a stored key.
func NewNoAPIKey(p ProviderID) *Error {
	return &Error{
		Code:    ErrCodeNoAPIKey,
		Message: fmt.Sprintf("%s API key is not set; run `askpage config key %s`", p.DisplayName(), p),
		Details: map[string]any{"provider": string(p)},
	}
}

// NewDecryptionFailed reports a stored key that cannot be opened.
func NewDecryptionFailed(p ProviderID, cause error) *Error {
	return &Error{
		Code:    ErrCodeDecryptionFailed,
		Message: fmt.Sprintf("stored %s API key could not be decrypted; set it again", p.DisplayName()),
		Details: map[string]any{"provider": string(p)},
		Err:     cause,
	}
}

// NewUnknownCommand reports a slash command with no definition. available
// lists the triggers the user could have meant.
func NewUnknownCommand(raw string, available []string) *Error {
	msg := fmt.Sprintf("unknown command: %s", raw)
	if len(available) > 0 {
		msg += "; available commands: " + strings.Join(available, ", ")
	}
	return &Error{
		Code:    ErrCodeUnknownCommand,
		Message: msg,
		Details: map[string]any{"command": raw, "available": available},
	}
}

// NewNetworkOrAPI reports a transport failure or a non-2xx backend response.
func NewNetworkOrAPI(msg string, cause error) *Error {
	return &Error{
		Code:    ErrCodeNetworkOrAPI,
		Message: msg,
		Err:     cause,
	}
}

// NewMalformedResponse reports a 2xx body missing the expected fields.
func NewMalformedResponse(p ProviderID, cause error) *Error {
	return &Error{
		Code:    ErrCodeMalformedResponse,
		Message: fmt.Sprintf("%s returned an unexpected response: %s", p.DisplayName(), FallbackAnswer),
		Details: map[string]any{"provider": string(p)},
		Err:     cause,
	}
}

// NewInvalidCommand reports a trigger or prompt that fails validation.
func NewInvalidCommand(msg string) *Error {
	return &Error{Code: ErrCodeInvalidCommand, Message: msg}
}

// NewCommandConflict reports a trigger already taken.
func NewCommandConflict(trigger string) *Error {
	return &Error{
		Code:    ErrCodeCommandConflict,
		Message: fmt.Sprintf("command %s already exists", trigger),
		Details: map[string]any{"trigger": trigger},
	}
}

// NewCommandNotFound reports an edit or delete of a missing command.
func NewCommandNotFound(identifier string) *Error {
	return &Error{
		Code:    ErrCodeCommandNotFound,
		Message: fmt.Sprintf("command not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewBuiltinNotEditable reports an attempt to modify a fixed built-in.
func NewBuiltinNotEditable(trigger string) *Error {
	return &Error{
		Code:    ErrCodeBuiltinNotEditable,
		Message: fmt.Sprintf("built-in command %s cannot be modified", trigger),
		Details: map[string]any{"trigger": trigger},
	}
}

// NewInvalidSettings reports bad settings input.
func NewInvalidSettings(msg string) *Error {
	return &Error{Code: ErrCodeInvalidSettings, Message: msg}
}

// NewHostDisabled reports a page whose host is on the disabled list.
func NewHostDisabled(host string) *Error {
	return &Error{
		Code:    ErrCodeHostDisabled,
		Message: fmt.Sprintf("AskPage is disabled on %s", host),
		Details: map[string]any{"host": host},
	}
}
