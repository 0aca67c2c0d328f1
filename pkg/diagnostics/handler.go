package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oliviabot/oliviabot/pkg/command"
	"github.com/oliviabot/oliviabot/pkg/lifecycle"
	"github.com/oliviabot/oliviabot/pkg/logger"
	"github.com/oliviabot/oliviabot/pkg/webhook"
)

// Sink delivers a rendered report
type Sink interface {
	Execute(ctx context.Context, p webhook.Payload) error
}

// Acknowledger replies to the invoker of a failed command
type Acknowledger func(ev command.FailureEvent) error

// HandlerConfig configures a Handler
type HandlerConfig struct {
	// Sink is resolved once at startup. A nil sink only logs.
	Sink Sink

	// Shutdown is triggered after a SetupFailure has been reported.
	Shutdown lifecycle.Shutdowner

	// Acknowledge replies to the user for non-setup failures. Defaults to
	// command.Acknowledge.
	Acknowledge Acknowledger

	Logger *logger.Logger

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Handler is the framework's failure callback
type Handler struct {
	sink     Sink
	shutdown lifecycle.Shutdowner
	ack      Acknowledger
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewHandler creates a diagnostics handler
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		sink:     cfg.Sink,
		shutdown: cfg.Shutdown,
		ack:      cfg.Acknowledge,
		log:      cfg.Logger,
		now:      cfg.Now,
		newID:    cfg.NewID,
	}
	if h.ack == nil {
		h.ack = command.Acknowledge
	}
	if h.log == nil {
		h.log = logger.Global().WithComponent("diagnostics")
	}
	if h.now == nil {
		h.now = func() time.Time { return time.Now().UTC() }
	}
	if h.newID == nil {
		h.newID = func() string { return uuid.NewString() }
	}
	return h
}

// Build classifies ev and captures its context into a report
func (h *Handler) Build(ev command.FailureEvent) Report {
	severity, detail := Classify(ev)
	return Report{
		ID:        h.newID(),
		Severity:  severity,
		Error:     detail,
		Context:   ExtractContext(ev.Invocation()),
		Timestamp: h.now(),
	}
}

// OnError handles one failure event. It never panics and never returns an
// error. Pass it as command.Options.OnError.
func (h *Handler) OnError(ev command.FailureEvent) {
	if ev == nil {
		return
	}

	if _, fatal := ev.(*command.SetupFailure); fatal {
		defer h.triggerShutdown(ev)
	}
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("diagnostics handler panicked",
				"panic", fmt.Sprint(r),
				"kind", string(ev.Kind()),
				"failure", ev.String(),
			)
		}
	}()

	if unknown, ok := ev.(*command.UnknownCommand); ok {
		// typos stay in the local log
		failureEvents.WithLabelValues(string(ev.Kind()), Notice.String()).Inc()
		reportsDelivered.WithLabelValues("suppressed").Inc()
		h.log.Debug("unknown command", "name", unknown.Name)
		return
	}

	report := h.Build(ev)
	log := h.log.WithReportID(report.ID)
	if report.Context.CommandName != "" {
		log = log.WithCommand(report.Context.CommandName)
	}

	failureEvents.WithLabelValues(string(ev.Kind()), report.Severity.String()).Inc()
	attrs := []any{
		"kind", string(ev.Kind()),
		"severity", report.Severity.String(),
		"failure", ev.String(),
	}
	if p, ok := ev.(*command.PanicFailure); ok && len(p.Stack) > 0 {
		attrs = append(attrs, "stack", string(p.Stack))
	}
	log.Warn("command failure", attrs...)

	if ev.Kind() != command.KindSetup {
		if err := h.ack(ev); err != nil {
			log.Warn("failed to acknowledge failure", "error", err)
		}
	}

	h.deliver(log, ev, report)
}

func (h *Handler) deliver(log *logger.Logger, ev command.FailureEvent, report Report) {
	if h.sink == nil {
		reportsDelivered.WithLabelValues("skipped").Inc()
		return
	}

	// no deadline beyond the sink's own transport timeout
	err := h.sink.Execute(context.Background(), report.Payload())
	if errors.Is(err, webhook.ErrRateLimited) {
		reportsDelivered.WithLabelValues("dropped").Inc()
		log.Warn("diagnostic report dropped by rate limit",
			"original_error", ev.String(),
			"kind", string(ev.Kind()),
		)
		return
	}
	if err != nil {
		reportsDelivered.WithLabelValues("failed").Inc()
		log.Error("failed to deliver diagnostic report",
			"original_error", ev.String(),
			"kind", string(ev.Kind()),
			"delivery_error", err,
			"detail", report.Error.Detailed,
		)
		return
	}
	reportsDelivered.WithLabelValues("delivered").Inc()
}

func (h *Handler) triggerShutdown(ev command.FailureEvent) {
	if h.shutdown == nil {
		h.log.Error("setup failed with no shutdown hook configured", "failure", ev.String())
		return
	}
	h.shutdown.Shutdown(ev.String())
}
