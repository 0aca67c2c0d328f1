package command

import "fmt"

// Acknowledge sends the framework's short user-facing reply for a failure.
// Details of the failure are never echoed back to the invoker.
func Acknowledge(ev FailureEvent) error {
	c := ev.Invocation()
	if c == nil || c.platform == nil {
		return nil
	}

	var text string
	switch e := ev.(type) {
	case *ExecutionFailure, *PanicFailure:
		text = fmt.Sprintf("Something went wrong while running `%s`.", c.InvokedName)
	case *ArgumentFailure:
		text = fmt.Sprintf("Bad arguments for `%s`: %v", c.InvokedName, e.Err)
		if c.Command != nil && c.Command.Usage != "" {
			text += fmt.Sprintf("\nUsage: `%s`", c.Command.Usage)
		}
	case *CheckFailure:
		text = fmt.Sprintf("You can't use `%s` here.", c.InvokedName)
	default:
		return nil
	}

	return c.Say(text)
}
