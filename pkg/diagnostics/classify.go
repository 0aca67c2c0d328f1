package diagnostics

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/oliviabot/oliviabot/pkg/command"
)

// PanicMessage is the short message of every panic report
const PanicMessage = "Command panicked"

// ErrorDetail is the error half of a report. Empty fields are absent.
type ErrorDetail struct {
	Short     string
	Detailed  string
	Backtrace string
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Classify maps a failure event to its severity and error fields. Events it
// does not classify yield Notice with no error fields.
func Classify(ev command.FailureEvent) (Severity, ErrorDetail) {
	switch e := ev.(type) {
	case *command.ExecutionFailure:
		return Degraded, describe(e.Err)
	case *command.PanicFailure:
		d := ErrorDetail{Short: PanicMessage}
		if e.Payload != nil {
			d.Backtrace = *e.Payload
		}
		return Degraded, d
	case *command.SetupFailure:
		return Critical, describe(e.Err)
	default:
		return Notice, ErrorDetail{}
	}
}

func describe(err error) ErrorDetail {
	if err == nil {
		return ErrorDetail{}
	}
	return ErrorDetail{
		Short:     err.Error(),
		Detailed:  detail(err),
		Backtrace: backtrace(err),
	}
}

// detail renders the error and every distinct cause below it.
func detail(err error) string {
	var sb strings.Builder
	sb.WriteString(err.Error())

	var causes []string
	prev := err.Error()
	for cause := errors.Unwrap(err); cause != nil; cause = errors.Unwrap(cause) {
		msg := cause.Error()
		// pkg/errors adds withStack layers that repeat the message
		if msg == prev {
			continue
		}
		causes = append(causes, msg)
		prev = msg
	}
	if len(causes) > 0 {
		sb.WriteString("\n\nCaused by:")
		for i, c := range causes {
			fmt.Fprintf(&sb, "\n    %d: %s", i, c)
		}
	}
	return sb.String()
}

// backtrace returns the innermost stack recorded anywhere in the chain.
func backtrace(err error) string {
	var st errors.StackTrace
	for e := err; e != nil; e = errors.Unwrap(e) {
		if t, ok := e.(stackTracer); ok {
			st = t.StackTrace()
		}
	}
	if len(st) == 0 {
		return ""
	}
	return strings.TrimPrefix(fmt.Sprintf("%+v", st), "\n")
}
