package command

import (
	"fmt"
	"strings"
)

// EventKind names a failure event variant
type EventKind string

const (
	KindExecution      EventKind = "execution"
	KindPanic          EventKind = "panic"
	KindSetup          EventKind = "setup"
	KindUnknownCommand EventKind = "unknown_command"
	KindArgument       EventKind = "argument"
	KindCheck          EventKind = "check"
)

// FailureEvent is raised once per failure. The set of implementations is
// closed: ExecutionFailure, PanicFailure, SetupFailure, and the unclassified
// UnknownCommand, ArgumentFailure and CheckFailure.
type FailureEvent interface {
	Kind() EventKind
	// Invocation returns the active invocation, or nil when the failure
	// happened outside of one.
	Invocation() *Context
	String() string
	failureEvent()
}

// ExecutionFailure is raised when a handler returns an error
type ExecutionFailure struct {
	Err error
	Ctx *Context
}

// PanicFailure is raised when a handler panics. Payload is set when the
// recovered value was a string or an error.
type PanicFailure struct {
	Payload *string
	Stack   []byte
	Ctx     *Context
}

// SetupFailure is raised when framework setup fails. It is always fatal.
type SetupFailure struct {
	Err error
}

// UnknownCommand is raised for a prefixed message naming no command
type UnknownCommand struct {
	Name string
	Ctx  *Context
}

// ArgumentFailure is raised when a command rejects its arguments
type ArgumentFailure struct {
	Err error
	Ctx *Context
}

// CheckFailure is raised when the invoker may not run the command
type CheckFailure struct {
	Reason string
	Ctx    *Context
}

func (*ExecutionFailure) Kind() EventKind { return KindExecution }
func (*PanicFailure) Kind() EventKind     { return KindPanic }
func (*SetupFailure) Kind() EventKind     { return KindSetup }
func (*UnknownCommand) Kind() EventKind   { return KindUnknownCommand }
func (*ArgumentFailure) Kind() EventKind  { return KindArgument }
func (*CheckFailure) Kind() EventKind     { return KindCheck }

func (e *ExecutionFailure) Invocation() *Context { return e.Ctx }
func (e *PanicFailure) Invocation() *Context     { return e.Ctx }
func (*SetupFailure) Invocation() *Context       { return nil }
func (e *UnknownCommand) Invocation() *Context   { return e.Ctx }
func (e *ArgumentFailure) Invocation() *Context  { return e.Ctx }
func (e *CheckFailure) Invocation() *Context     { return e.Ctx }

func (*ExecutionFailure) failureEvent() {}
func (*PanicFailure) failureEvent()     {}
func (*SetupFailure) failureEvent()     {}
func (*UnknownCommand) failureEvent()   {}
func (*ArgumentFailure) failureEvent()  {}
func (*CheckFailure) failureEvent()     {}

func (e *ExecutionFailure) String() string {
	return fmt.Sprintf("command %s failed: %v", invokedName(e.Ctx), e.Err)
}

func (e *PanicFailure) String() string {
	if e.Payload == nil {
		return fmt.Sprintf("command %s panicked", invokedName(e.Ctx))
	}
	return fmt.Sprintf("command %s panicked: %s", invokedName(e.Ctx), *e.Payload)
}

func (e *SetupFailure) String() string {
	return fmt.Sprintf("setup failed: %v", e.Err)
}

func (e *UnknownCommand) String() string {
	return fmt.Sprintf("unknown command %q", e.Name)
}

func (e *ArgumentFailure) String() string {
	return fmt.Sprintf("bad arguments for %s: %v", invokedName(e.Ctx), e.Err)
}

func (e *CheckFailure) String() string {
	return fmt.Sprintf("check failed for %s: %s", invokedName(e.Ctx), e.Reason)
}

func invokedName(c *Context) string {
	if c == nil || c.InvokedName == "" {
		return "<no command>"
	}
	return c.InvokedName
}

// ArgumentError is returned by handlers to reject their input. The framework
// raises it as an ArgumentFailure instead of an ExecutionFailure.
type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string {
	return e.Msg
}

// ArgErrorf builds an ArgumentError
func ArgErrorf(format string, args ...any) error {
	return &ArgumentError{Msg: fmt.Sprintf(format, args...)}
}

// MissingArgument reports a required argument that was not given
func MissingArgument(name string) error {
	return &ArgumentError{Msg: fmt.Sprintf("missing required argument '%s'", name)}
}

// RequireArg trims args and fails with MissingArgument when nothing is left.
func RequireArg(args, name string) (string, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", MissingArgument(name)
	}
	return args, nil
}
