package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oliviabot/oliviabot/pkg/discord"
)

func newTestFramework(t *testing.T, cmds ...*Command) (*Framework, *fakePlatform, *eventSink) {
	t.Helper()
	var factories []Factory
	for _, cmd := range cmds {
		cmd := cmd
		factories = append(factories, func() *Command { return cmd })
	}
	platform := &fakePlatform{}
	sink := &eventSink{}
	fw := New(NewRegistry(factories...), Options{
		Prefix:   "!",
		Owners:   []string{"owner"},
		Platform: platform,
		OnError:  sink.OnError,
	})
	return fw, platform, sink
}

func message(content string) discord.Message {
	return discord.Message{
		ID:        "175928847299117063",
		ChannelID: "c1",
		GuildID:   "g1",
		Author:    discord.User{ID: "u1", Username: "olivia"},
		Content:   content,
	}
}

func TestFramework_DispatchesWithArgs(t *testing.T) {
	var gotArgs string
	var gotCtx *Context
	fw, _, sink := newTestFramework(t, &Command{
		Name:    "source",
		Aliases: []string{"src"},
		Handler: func(c *Context, args string) error {
			gotArgs = args
			gotCtx = c
			return nil
		},
	})

	fw.HandleMessage(context.Background(), message("!src   help me "))

	assert.Empty(t, sink.all())
	assert.Equal(t, "help me", gotArgs)
	require.NotNil(t, gotCtx)
	assert.Equal(t, "src", gotCtx.InvokedName)
	assert.Equal(t, "source", gotCtx.Command.Name)
	assert.Equal(t, "!src   help me ", gotCtx.Invocation)
	assert.True(t, gotCtx.IsPrefix())
	assert.False(t, gotCtx.CreatedAt.IsZero())
}

func TestFramework_IgnoresBotsAndUnprefixed(t *testing.T) {
	called := false
	fw, _, sink := newTestFramework(t, &Command{Name: "help", Handler: func(*Context, string) error {
		called = true
		return nil
	}})

	fw.HandleMessage(context.Background(), message("help"))
	bot := message("!help")
	bot.Author.Bot = true
	fw.HandleMessage(context.Background(), bot)
	fw.HandleMessage(context.Background(), message("!"))

	assert.False(t, called)
	assert.Empty(t, sink.all())
}

func TestFramework_RaisesEvents(t *testing.T) {
	boom := errors.New("boom")
	fw, _, sink := newTestFramework(t,
		&Command{Name: "fail", Handler: func(*Context, string) error { return boom }},
		&Command{Name: "args", Handler: func(_ *Context, args string) error {
			_, err := RequireArg(args, "command")
			return err
		}},
		&Command{Name: "panic", Handler: func(*Context, string) error { panic("kaboom") }},
		&Command{Name: "panicnil", Handler: func(*Context, string) error { panic(42) }},
		&Command{Name: "owner", OwnerOnly: true, Handler: func(*Context, string) error { return nil }},
	)

	fw.HandleMessage(context.Background(), message("!fail"))
	fw.HandleMessage(context.Background(), message("!args"))
	fw.HandleMessage(context.Background(), message("!panic"))
	fw.HandleMessage(context.Background(), message("!panicnil"))
	fw.HandleMessage(context.Background(), message("!owner"))
	fw.HandleMessage(context.Background(), message("!bogus"))

	events := sink.all()
	require.Len(t, events, 6)

	exec, ok := events[0].(*ExecutionFailure)
	require.True(t, ok)
	assert.ErrorIs(t, exec.Err, boom)
	assert.Equal(t, "fail", exec.Invocation().InvokedName)

	assert.Equal(t, KindArgument, events[1].Kind())

	p, ok := events[2].(*PanicFailure)
	require.True(t, ok)
	require.NotNil(t, p.Payload)
	assert.Equal(t, "kaboom", *p.Payload)
	assert.NotEmpty(t, p.Stack)

	p, ok = events[3].(*PanicFailure)
	require.True(t, ok)
	assert.Nil(t, p.Payload)

	assert.Equal(t, KindCheck, events[4].Kind())

	unknown, ok := events[5].(*UnknownCommand)
	require.True(t, ok)
	assert.Equal(t, "bogus", unknown.Name)
	assert.Nil(t, unknown.Ctx.Command)
}

func TestFramework_OwnerPasses(t *testing.T) {
	called := false
	fw, _, sink := newTestFramework(t, &Command{Name: "owner", OwnerOnly: true, Handler: func(*Context, string) error {
		called = true
		return nil
	}})

	msg := message("!owner")
	msg.Author.ID = "owner"
	fw.HandleMessage(context.Background(), msg)

	assert.True(t, called)
	assert.Empty(t, sink.all())
}

func TestFramework_Interaction(t *testing.T) {
	var gotArgs string
	fw, platform, sink := newTestFramework(t, &Command{
		Name: "source",
		Kind: Prefix | Slash,
		Handler: func(c *Context, args string) error {
			gotArgs = args
			assert.False(t, c.IsPrefix())
			assert.Equal(t, "/source help", c.Invocation)
			return c.Say("ok")
		},
	})

	fw.HandleInteraction(context.Background(), discord.Interaction{
		ID:        "175928847299117063",
		Type:      discord.InteractionApplicationCommand,
		ChannelID: "c1",
		User:      &discord.User{ID: "u1"},
		Data: discord.InteractionData{
			Name:    "source",
			Options: []discord.InteractionOption{{Name: "command", Type: 3, Value: "help"}},
		},
	})

	assert.Empty(t, sink.all())
	assert.Equal(t, "help", gotArgs)
	require.Len(t, platform.responses, 1)
	assert.Equal(t, "ok", platform.responses[0].Content)
}

func TestFramework_SlashOnlyNotPrefixInvocable(t *testing.T) {
	fw, _, sink := newTestFramework(t, &Command{Name: "slashy", Kind: Slash, Handler: func(*Context, string) error { return nil }})

	fw.HandleMessage(context.Background(), message("!slashy"))

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, KindUnknownCommand, events[0].Kind())
}

func TestFramework_Setup(t *testing.T) {
	fw, _, sink := newTestFramework(t)
	setupErr := errors.New("cannot register")

	err := fw.Setup(context.Background(), func(context.Context) error { return setupErr })

	assert.ErrorIs(t, err, setupErr)
	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, KindSetup, events[0].Kind())
	assert.Nil(t, events[0].Invocation())

	require.NoError(t, fw.Setup(context.Background(), func(context.Context) error { return nil }))
	assert.Len(t, sink.all(), 1)
}

func TestAcknowledge(t *testing.T) {
	fw, platform, _ := newTestFramework(t, &Command{Name: "x", Usage: "!x <thing>"})
	c := &Context{ctx: context.Background(), platform: platform, InvokedName: "x", ChannelID: "c1"}
	c.Command, _ = fw.Registry().Find("x")

	require.NoError(t, Acknowledge(&ExecutionFailure{Err: errors.New("secret detail"), Ctx: c}))
	require.NoError(t, Acknowledge(&ArgumentFailure{Err: MissingArgument("thing"), Ctx: c}))
	require.NoError(t, Acknowledge(&CheckFailure{Reason: "owner only", Ctx: c}))
	require.NoError(t, Acknowledge(&UnknownCommand{Name: "x", Ctx: c}))
	require.NoError(t, Acknowledge(&SetupFailure{Err: errors.New("nope")}))

	sent := platform.contents()
	require.Len(t, sent, 3)
	assert.Equal(t, "Something went wrong while running `x`.", sent[0])
	assert.NotContains(t, sent[0], "secret detail")
	assert.Contains(t, sent[1], "missing required argument 'thing'")
	assert.Contains(t, sent[1], "Usage: `!x <thing>`")
	assert.Equal(t, "You can't use `x` here.", sent[2])
}

func TestEventStrings(t *testing.T) {
	payload := "bad"
	c := &Context{InvokedName: "cmd"}
	assert.Equal(t, "command cmd failed: e", (&ExecutionFailure{Err: errors.New("e"), Ctx: c}).String())
	assert.Equal(t, "command cmd panicked: bad", (&PanicFailure{Payload: &payload, Ctx: c}).String())
	assert.Equal(t, "command <no command> panicked", (&PanicFailure{}).String())
	assert.Equal(t, "setup failed: e", (&SetupFailure{Err: errors.New("e")}).String())
}
