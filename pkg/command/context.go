package command

import (
	"context"
	"time"

	"github.com/oliviabot/oliviabot/pkg/discord"
)

// Platform is the part of the chat client the framework writes through
type Platform interface {
	CreateMessage(ctx context.Context, channelID string, msg discord.MessageSend) (*discord.Message, error)
	EditMessage(ctx context.Context, channelID, messageID string, msg discord.MessageSend) (*discord.Message, error)
	RespondInteraction(ctx context.Context, in discord.Interaction, msg discord.MessageSend) error
}

// Cache resolves guilds and channels by ID
type Cache interface {
	Guild(ctx context.Context, id string) (discord.Guild, bool)
	Channel(ctx context.Context, id string) (discord.Channel, bool)
	GuildCount() int
}

// Context is one command invocation
type Context struct {
	ctx      context.Context
	platform Platform
	cache    Cache
	registry *Registry
	prefix   string

	// Command is nil when no registered command matched.
	Command     *Command
	InvokedName string
	Invocation  string
	Author      discord.User
	ChannelID   string
	GuildID     string
	CreatedAt   time.Time

	// Exactly one of Message and Interaction is set.
	Message     *discord.Message
	Interaction *discord.Interaction

	responded bool
}

// NewContext creates an invocation bound to a platform and cache. The
// framework fills the remaining fields; it is exported for callers that
// drive commands directly.
func NewContext(ctx context.Context, platform Platform, cache Cache) *Context {
	return &Context{ctx: ctx, platform: platform, cache: cache}
}

// Ctx returns the context.Context of the invocation
func (c *Context) Ctx() context.Context {
	return c.ctx
}

// IsPrefix reports whether the invocation came from a plain-text message
func (c *Context) IsPrefix() bool {
	return c.Message != nil
}

// Registry returns the command table the invocation was dispatched from
func (c *Context) Registry() *Registry {
	return c.registry
}

// Prefix returns the text command prefix
func (c *Context) Prefix() string {
	return c.prefix
}

// Send posts a message in the invocation's channel. The first send of a
// slash invocation is the interaction response and returns a nil message.
func (c *Context) Send(msg discord.MessageSend) (*discord.Message, error) {
	if c.Interaction != nil && !c.responded {
		c.responded = true
		return nil, c.platform.RespondInteraction(c.ctx, *c.Interaction, msg)
	}
	return c.platform.CreateMessage(c.ctx, c.ChannelID, msg)
}

// Say sends a plain text reply
func (c *Context) Say(text string) error {
	_, err := c.Send(discord.MessageSend{Content: text})
	return err
}

// Edit replaces a message previously sent by Send
func (c *Context) Edit(m *discord.Message, msg discord.MessageSend) (*discord.Message, error) {
	return c.platform.EditMessage(c.ctx, m.ChannelID, m.ID, msg)
}

// Guild resolves the guild the invocation happened in
func (c *Context) Guild() (discord.Guild, bool) {
	if c.cache == nil || c.GuildID == "" {
		return discord.Guild{}, false
	}
	return c.cache.Guild(c.ctx, c.GuildID)
}

// Channel resolves the channel the invocation happened in
func (c *Context) Channel() (discord.Channel, bool) {
	if c.cache == nil {
		return discord.Channel{}, false
	}
	return c.cache.Channel(c.ctx, c.ChannelID)
}

// GuildCount returns the number of guilds the bot is in
func (c *Context) GuildCount() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.GuildCount()
}
