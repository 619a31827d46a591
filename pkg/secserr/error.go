// Package secserr defines the unified error taxonomy shared by every layer of
// the library: transports, codecs, session state machines and the SML
// front-end all report failures as a *secserr.Error carrying one of the
// categories and codes below, rather than ad-hoc error strings.
package secserr

import (
	"errors"
	"fmt"
)

// Category groups codes by the subsystem that raised them.
type Category string

const (
	CategoryCore      Category = "core"
	CategorySECSII    Category = "secs.ii"
	CategorySECS1     Category = "secs.secs1"
	CategoryHSMS      Category = "secs.hsms"
	CategorySMLLexer  Category = "sml.lexer"
	CategorySMLParser Category = "sml.parser"
	CategorySMLRender Category = "sml.render"
)

// Code is a short machine-readable identifier, unique within its Category.
type Code string

// core
const (
	CodeOK                Code = "ok"
	CodeTimeout           Code = "timeout"
	CodeCancelled         Code = "cancelled"
	CodeBufferOverflow    Code = "buffer_overflow"
	CodeInvalidArgument   Code = "invalid_argument"
	CodeOutOfMemory       Code = "out_of_memory"
	CodeResourceExhausted Code = "resource_exhausted"
)

// secs.ii
const (
	CodeTruncated      Code = "truncated"
	CodeInvalidHeader  Code = "invalid_header"
	CodeLimitExceeded  Code = "limit_exceeded"
)

// secs.secs1
const (
	CodeInvalidBlock    Code = "invalid_block"
	CodeChecksumError   Code = "checksum_error"
	CodeNakExhausted    Code = "nak_exhausted"
	CodeProtocolError   Code = "protocol_error"
	CodeReassemblyError Code = "reassembly_error"
)

// secs.hsms
const (
	CodeRejectReceived Code = "reject_received"
	CodeSelectFailed   Code = "select_failed"
	CodeNotSelected    Code = "not_selected"
)

// sml.lexer / sml.parser
const (
	CodeUnterminatedString Code = "unterminated_string"
	CodeUnterminatedItem   Code = "unclosed_item"
	CodeInvalidToken       Code = "invalid_token"
	CodeInvalidStreamFunc  Code = "invalid_stream_function"
	CodeSyntaxError        Code = "syntax_error"
)

// sml.render
const (
	CodeMissingVariable Code = "missing_variable"
	CodeTypeMismatch    Code = "type_mismatch"
)

// Error is the concrete error type returned by every fallible operation in
// this module. Parser-originated errors additionally carry source
// coordinates.
type Error struct {
	Category Category
	Code     Code
	Message  string

	// Line and Column are 1-based source coordinates; zero when not
	// applicable (i.e. outside the SML lexer/parser).
	Line   int
	Column int

	// Wrapped is the underlying cause, if any.
	Wrapped error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: Ln %d, Col %d: %s", e.Code, e.Line, e.Column, e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a *Error with the same Code, so that callers
// can match with errors.Is(err, secserr.New(secserr.CategoryCore, secserr.CodeTimeout, "")).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// New constructs an *Error.
func New(category Category, code Code, message string) *Error {
	return &Error{Category: category, Code: code, Message: message}
}

// Newf constructs an *Error with a formatted message.
func Newf(category Category, code Code, format string, args ...interface{}) *Error {
	return New(category, code, fmt.Sprintf(format, args...))
}

// At attaches source coordinates to an error, used by the SML lexer/parser.
func At(category Category, code Code, line, col int, message string) *Error {
	return &Error{Category: category, Code: code, Message: message, Line: line, Column: col}
}

// Wrap attaches a cause to a new *Error of the given category/code.
func Wrap(category Category, code Code, cause error) *Error {
	return &Error{Category: category, Code: code, Message: cause.Error(), Wrapped: cause}
}

// CodeOf extracts the Code from err, if err is (or wraps) a *Error.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// Sentinels for the most commonly compared core codes. Prefer
// errors.Is(err, secserr.ErrTimeout) over string comparisons.
var (
	ErrTimeout           = New(CategoryCore, CodeTimeout, "operation timed out")
	ErrCancelled         = New(CategoryCore, CodeCancelled, "operation cancelled")
	ErrInvalidArgument   = New(CategoryCore, CodeInvalidArgument, "invalid argument")
	ErrBufferOverflow    = New(CategoryCore, CodeBufferOverflow, "buffer overflow")
	ErrResourceExhausted = New(CategoryCore, CodeResourceExhausted, "resource exhausted")
)
