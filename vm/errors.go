package vm

import (
	"errors"
	"fmt"
	"strings"
)

// Kind enumerates the VM's error kinds (spec section 4.8). These are
// kinds, not Go types -- callers test them with the Is* predicates
// below, which see through the StackTraceError wrapper exactly as the
// original VmError::is_* helpers do.
type Kind int

const (
	KindRuntime Kind = iota
	KindHalt
	KindStackOverflow
	KindUndefinedCell
	KindRegisterOutOfBounds
	KindToolError
	KindTypeError
	KindNoModule
	KindArithmeticOverflow
	KindDivisionByZero
	KindInstructionLimitExceeded
	KindFuelExhausted
)

func (k Kind) String() string {
	switch k {
	case KindRuntime:
		return "Runtime"
	case KindHalt:
		return "Halt"
	case KindStackOverflow:
		return "StackOverflow"
	case KindUndefinedCell:
		return "UndefinedCell"
	case KindRegisterOutOfBounds:
		return "RegisterOutOfBounds"
	case KindToolError:
		return "ToolError"
	case KindTypeError:
		return "TypeError"
	case KindNoModule:
		return "NoModule"
	case KindArithmeticOverflow:
		return "ArithmeticOverflow"
	case KindDivisionByZero:
		return "DivisionByZero"
	case KindInstructionLimitExceeded:
		return "InstructionLimitExceeded"
	case KindFuelExhausted:
		return "FuelExhausted"
	default:
		return "Unknown"
	}
}

// Error is the VM's base error type: a Kind plus a message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// StackFrameInfo is one entry of a captured stack trace: the cell name
// and the instruction pointer active in that frame at the moment the
// error crossed the dispatch-loop boundary.
type StackFrameInfo struct {
	CellName string
	IP       int
}

// StackTraceError wraps an Error with the frame stack captured the
// first time it propagates out of the dispatch loop. Re-wrapping is a
// no-op (mirrors VmError::with_stack_trace's "don't double-wrap").
type StackTraceError struct {
	Base   *Error
	Frames []StackFrameInfo
}

func (e *StackTraceError) Error() string {
	var b strings.Builder
	b.WriteString(e.Base.Error())
	b.WriteString("\nStack trace (most recent call first):")
	for i := len(e.Frames) - 1; i >= 0; i-- {
		f := e.Frames[i]
		fmt.Fprintf(&b, "\n  #%d: %s (instruction %d)", len(e.Frames)-1-i, f.CellName, f.IP)
	}
	return b.String()
}

func (e *StackTraceError) Unwrap() error { return e.Base }

// WithStackTrace attaches frames to err, unless it is already a
// StackTraceError (in which case it is returned unchanged) or frames
// is empty.
func WithStackTrace(err error, frames []StackFrameInfo) error {
	if err == nil || len(frames) == 0 {
		return err
	}
	var existing *StackTraceError
	if errors.As(err, &existing) {
		return err
	}
	base, ok := AsError(err)
	if !ok {
		base = &Error{Kind: KindRuntime, Message: err.Error()}
	}
	return &StackTraceError{Base: base, Frames: frames}
}

// AsError unwraps err to the VM's base *Error, seeing through
// StackTraceError.
func AsError(err error) (*Error, bool) {
	var base *Error
	if errors.As(err, &base) {
		return base, true
	}
	return nil, false
}

// StackFrames returns the captured frames of a StackTraceError, or nil
// for any other error.
func StackFrames(err error) []StackFrameInfo {
	var st *StackTraceError
	if errors.As(err, &st) {
		return st.Frames
	}
	return nil
}

func kindIs(err error, k Kind) bool {
	base, ok := AsError(err)
	return ok && base.Kind == k
}

func IsDivisionByZero(err error) bool           { return kindIs(err, KindDivisionByZero) }
func IsArithmeticOverflow(err error) bool        { return kindIs(err, KindArithmeticOverflow) }
func IsInstructionLimitExceeded(err error) bool  { return kindIs(err, KindInstructionLimitExceeded) }
func IsFuelExhausted(err error) bool             { return kindIs(err, KindFuelExhausted) }
func IsRegisterOutOfBounds(err error) bool       { return kindIs(err, KindRegisterOutOfBounds) }
func IsTypeError(err error) bool                 { return kindIs(err, KindTypeError) }
func IsToolError(err error) bool                 { return kindIs(err, KindToolError) }
func IsStackOverflow(err error) bool             { return kindIs(err, KindStackOverflow) }
func IsUndefinedCell(err error) bool             { return kindIs(err, KindUndefinedCell) }
func IsHalt(err error) bool                      { return kindIs(err, KindHalt) }
func IsNoModule(err error) bool                  { return kindIs(err, KindNoModule) }

// MessageContains reports whether err's rendered message contains
// needle, looking through the StackTraceError wrapper.
func MessageContains(err error, needle string) bool {
	if err == nil {
		return false
	}
	if st, ok := err.(*StackTraceError); ok {
		return strings.Contains(st.Base.Error(), needle)
	}
	return strings.Contains(err.Error(), needle)
}
