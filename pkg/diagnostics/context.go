package diagnostics

import (
	"github.com/oliviabot/oliviabot/pkg/command"
	"github.com/oliviabot/oliviabot/pkg/discord"
	"github.com/oliviabot/oliviabot/pkg/logger"
)

// ErrorContext is what was known about the invocation when it failed. Every
// field is optional.
type ErrorContext struct {
	Invocation  string
	CommandName string
	Permalink   string

	// Author is a copy taken at failure time.
	Author  *discord.User
	Channel *discord.Channel
	Guild   *discord.Guild
}

// ExtractContext captures the ambient data of an invocation. A nil context
// yields an empty ErrorContext. Lookups that fail leave their field absent.
func ExtractContext(c *command.Context) ErrorContext {
	var ec ErrorContext
	if c == nil {
		return ec
	}

	ec.Invocation = c.Invocation
	ec.CommandName = c.InvokedName

	if c.Author.ID != "" {
		author := c.Author
		ec.Author = &author
	}

	if c.Message != nil && c.Message.ID != "" && c.ChannelID != "" {
		ec.Permalink = c.Message.Link()
	}

	guarded("channel", func() {
		if ch, ok := c.Channel(); ok {
			ec.Channel = &ch
		} else if c.ChannelID != "" {
			ec.Channel = &discord.Channel{ID: c.ChannelID, GuildID: c.GuildID}
		}
	})

	guarded("guild", func() {
		if g, ok := c.Guild(); ok {
			ec.Guild = &g
		}
	})

	return ec
}

// guarded runs one extraction step, dropping its result if it panics.
func guarded(field string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Global().WithComponent("diagnostics").Warn("context extraction failed",
				"field", field,
				"panic", r,
			)
		}
	}()
	fn()
}
