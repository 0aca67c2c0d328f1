package command

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/oliviabot/oliviabot/pkg/discord"
	"github.com/oliviabot/oliviabot/pkg/logger"
)

// Options configures a Framework
type Options struct {
	Prefix   string
	Owners   []string
	Platform Platform
	Cache    Cache
	Logger   *logger.Logger

	// OnError receives every failure event. It is called on the goroutine
	// that handled the invocation.
	OnError func(FailureEvent)
}

// Framework dispatches invocations to registered commands
type Framework struct {
	registry *Registry
	opts     Options
	log      *logger.Logger
}

// New creates a framework over a registry
func New(registry *Registry, opts Options) *Framework {
	if opts.Prefix == "" {
		opts.Prefix = "!"
	}
	log := opts.Logger
	if log == nil {
		log = logger.Global().WithComponent("framework")
	}
	return &Framework{registry: registry, opts: opts, log: log}
}

// Registry returns the command table
func (f *Framework) Registry() *Registry {
	return f.registry
}

// Prefix returns the prefix for text commands
func (f *Framework) Prefix() string {
	return f.opts.Prefix
}

// Setup runs fn. A returned error is raised as a SetupFailure and returned.
func (f *Framework) Setup(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		f.raise(&SetupFailure{Err: err})
		return err
	}
	return nil
}

// HandleMessage dispatches a prefixed text message
func (f *Framework) HandleMessage(ctx context.Context, msg discord.Message) {
	if msg.Author.Bot || !strings.HasPrefix(msg.Content, f.opts.Prefix) {
		return
	}

	rest := strings.TrimSpace(strings.TrimPrefix(msg.Content, f.opts.Prefix))
	name, args, _ := strings.Cut(rest, " ")
	if name == "" {
		return
	}
	// allow a newline directly after the name
	if i := strings.IndexAny(name, "\n\t"); i >= 0 {
		args = name[i+1:] + " " + args
		name = name[:i]
	}

	created := msg.Timestamp
	if created.IsZero() {
		created, _ = discord.SnowflakeTime(msg.ID)
	}

	c := &Context{
		ctx:         ctx,
		platform:    f.opts.Platform,
		cache:       f.opts.Cache,
		registry:    f.registry,
		prefix:      f.opts.Prefix,
		InvokedName: name,
		Invocation:  msg.Content,
		Author:      msg.Author,
		ChannelID:   msg.ChannelID,
		GuildID:     msg.GuildID,
		CreatedAt:   created,
		Message:     &msg,
	}

	cmd, ok := f.registry.Find(name)
	if !ok || !cmd.Invocable(Prefix) {
		f.raise(&UnknownCommand{Name: name, Ctx: c})
		return
	}
	c.Command = cmd
	f.run(c, strings.TrimSpace(args))
}

// HandleInteraction dispatches a slash command interaction
func (f *Framework) HandleInteraction(ctx context.Context, in discord.Interaction) {
	if in.Type != discord.InteractionApplicationCommand {
		return
	}

	var values []string
	for _, opt := range in.Data.Options {
		if opt.Value != nil {
			values = append(values, fmt.Sprint(opt.Value))
		}
	}
	args := strings.Join(values, " ")
	invocation := "/" + in.Data.Name
	if args != "" {
		invocation += " " + args
	}

	created, ok := discord.SnowflakeTime(in.ID)
	if !ok {
		created = time.Now().UTC()
	}

	c := &Context{
		ctx:         ctx,
		platform:    f.opts.Platform,
		cache:       f.opts.Cache,
		registry:    f.registry,
		prefix:      f.opts.Prefix,
		InvokedName: in.Data.Name,
		Invocation:  invocation,
		Author:      in.Author(),
		ChannelID:   in.ChannelID,
		GuildID:     in.GuildID,
		CreatedAt:   created,
		Interaction: &in,
	}

	cmd, ok := f.registry.Find(in.Data.Name)
	if !ok || !cmd.Invocable(Slash) {
		f.raise(&UnknownCommand{Name: in.Data.Name, Ctx: c})
		return
	}
	c.Command = cmd
	f.run(c, args)
}

func (f *Framework) run(c *Context, args string) {
	commandsInvoked.WithLabelValues(c.Command.Name).Inc()

	defer func() {
		if r := recover(); r != nil {
			f.raise(&PanicFailure{Payload: panicPayload(r), Stack: debug.Stack(), Ctx: c})
		}
	}()

	if c.Command.OwnerOnly && !slices.Contains(f.opts.Owners, c.Author.ID) {
		f.raise(&CheckFailure{Reason: "owner only", Ctx: c})
		return
	}

	if err := c.Command.Handler(c, args); err != nil {
		var argErr *ArgumentError
		if errors.As(err, &argErr) {
			f.raise(&ArgumentFailure{Err: err, Ctx: c})
			return
		}
		f.raise(&ExecutionFailure{Err: err, Ctx: c})
	}
}

func (f *Framework) raise(ev FailureEvent) {
	if f.opts.OnError == nil {
		f.log.Error("unhandled failure event", "kind", string(ev.Kind()), "event", ev.String())
		return
	}
	f.opts.OnError(ev)
}

func panicPayload(r any) *string {
	switch v := r.(type) {
	case string:
		return &v
	case error:
		s := v.Error()
		return &s
	default:
		return nil
	}
}
