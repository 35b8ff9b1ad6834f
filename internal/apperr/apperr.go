// Package apperr defines the closed set of error codes that every
// outward-visible failure in the daemon must carry, per spec section 3.
package apperr

import "fmt"

// Code is one of a closed set of tool-layer error codes.
type Code string

const (
	CodeForbiddenPath  Code = "FORBIDDEN_PATH"
	CodePathNotFound   Code = "PATH_NOT_FOUND"
	CodeInvalidPath    Code = "INVALID_PATH"
	CodeCommandDenied  Code = "COMMAND_DENIED"
	CodePatchFailed    Code = "PATCH_FAILED"
	CodeVCSError       Code = "VCS_ERROR"
	CodeCommandFailed  Code = "COMMAND_FAILED"
	CodeCommandTimeout Code = "COMMAND_TIMEOUT"
	CodeApprovalReq    Code = "APPROVAL_REQUIRED"
	CodeApprovalDenied Code = "APPROVAL_DENIED"
	CodeApprovalTimeout Code = "APPROVAL_TIMEOUT"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodePayloadTooLarge Code = "PAYLOAD_TOO_LARGE"
	CodeMethodNotFound Code = "METHOD_NOT_FOUND"
	CodeInternalError  Code = "INTERNAL_ERROR"

	// Wire-level codes, never produced by the tool layer, only by the
	// session frame decoder.
	CodeParseError      Code = "PARSE_ERROR"
	CodeInvalidRequest  Code = "INVALID_REQUEST"
	CodeAuthFailed      Code = "AUTH_FAILED"
)

// Error is a tool-layer error value carrying exactly one closed-set code.
// Messages are plain English and safe to log; Details may carry structured
// context but must never include file contents or the bearer token.
type Error struct {
	Code    Code
	Message string
	Details interface{}
}

func (e *Error) Error() string {
	return e.Message
}

// New builds an *Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds an *Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches structured, loggable context to the error.
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// As extracts an *Error from err, or returns (nil, false).
func As(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	ae, ok := err.(*Error)
	return ae, ok
}
