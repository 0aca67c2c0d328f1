// Package diagnostics turns command framework failure events into operator
// reports and delivers them to a webhook.
//
// Each event flows through four steps on the goroutine that raised it:
//
//	Classify        event   -> Severity, ErrorDetail
//	ExtractContext  context -> ErrorContext
//	Report.Payload  report  -> webhook.Payload
//	Handler         payload -> Sink
//
// Every step degrades missing data to absent fields. The Handler never
// panics or returns an error to the framework; delivery failures are
// logged together with the original failure and dropped.
//
// A SetupFailure is fatal: after delivery is attempted the handler
// triggers process shutdown.
package diagnostics
