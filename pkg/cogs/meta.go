package cogs

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/oliviabot/oliviabot/pkg/command"
	"github.com/oliviabot/oliviabot/pkg/discord"
	"github.com/oliviabot/oliviabot/pkg/provenance"
)

const (
	maxCommitsShown        = 4
	shortSHALength         = 6
	maxCommitMessageLength = 50
)

func helpCommand() command.Factory {
	return func() *command.Command {
		return &command.Command{
			Name:        "help",
			Description: "Get help on the bot or a command",
			Usage:       "help [command]",
			Category:    "Meta",
			Kind:        command.Prefix | command.Slash,
			Options: []command.Option{
				{Name: "command", Description: "Command to get help for", Type: command.OptionString},
			},
			Handler: func(c *command.Context, args string) error {
				name := strings.TrimSpace(args)
				if name == "" {
					return c.Say(overview(c))
				}
				cmd, ok := c.Registry().Find(name)
				if !ok {
					return c.Say(fmt.Sprintf("No command called `%s` found", name))
				}
				return c.Say(describe(c.Prefix(), cmd))
			},
		}
	}
}

func overview(c *command.Context) string {
	reg := c.Registry()
	var sb strings.Builder
	sb.WriteString("```\n")
	for _, category := range reg.Categories() {
		fmt.Fprintf(&sb, "%s:\n", category)
		for _, cmd := range reg.Commands() {
			if cmd.Category != category {
				continue
			}
			fmt.Fprintf(&sb, "  %s%-12s %s\n", c.Prefix(), cmd.Name, cmd.Description)
		}
	}
	fmt.Fprintf(&sb, "\nType %shelp command for more info on a command.\n```", c.Prefix())
	return sb.String()
}

func describe(prefix string, cmd *command.Command) string {
	var sb strings.Builder
	sb.WriteString("```\n")
	usage := cmd.Usage
	if usage == "" {
		usage = cmd.Name
	}
	fmt.Fprintf(&sb, "%s%s\n", prefix, usage)
	if cmd.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", cmd.Description)
	}
	if len(cmd.Aliases) > 0 {
		fmt.Fprintf(&sb, "\nAliases: %s\n", strings.Join(cmd.Aliases, ", "))
	}
	sb.WriteString("```")
	return sb.String()
}

func sourceCommand(format string) command.Factory {
	return func() *command.Command {
		return &command.Command{
			Name:        "source",
			Aliases:     []string{"src"},
			Description: "Link to the source code of a command",
			Usage:       "source <command>",
			Category:    "Meta",
			Kind:        command.Prefix | command.Slash,
			Options: []command.Option{
				{Name: "command", Description: "Command to link", Type: command.OptionString, Required: true},
			},
			Handler: func(c *command.Context, args string) error {
				name, err := command.RequireArg(args, "command")
				if err != nil {
					return err
				}
				return c.Say(provenance.Describe(c.Registry(), name, format))
			},
		}
	}
}

func debugCommand(d Deps) command.Factory {
	return func() *command.Command {
		return &command.Command{
			Name:        "debug",
			Description: "Shows debug information about the bot",
			Category:    "Meta",
			Handler: func(c *command.Context, _ string) error {
				received := c.CreatedAt
				now := time.Now().UTC()

				commits, err := recentCommits(c, d.History)
				if err != nil {
					return err
				}

				var gateway time.Duration
				if d.Latency != nil {
					gateway = d.Latency()
				}

				embed := func(sent *time.Time) discord.Embed {
					return discord.Embed{
						Title:       "Recent commits",
						Description: commits,
						Color:       d.EmbedColor,
						Fields: []discord.EmbedField{
							{Name: "Stats", Value: fmt.Sprintf("%d servers\n", c.GuildCount()), Inline: true},
							{Name: "Ping", Value: formatPing(received, now, sent, gateway), Inline: true},
						},
					}
				}

				msg, err := c.Send(discord.MessageSend{Embeds: []discord.Embed{embed(nil)}})
				if err != nil {
					return errors.Wrap(err, "send debug message")
				}
				if msg == nil || msg.Timestamp.IsZero() {
					return nil
				}

				sent := msg.Timestamp
				if _, err := c.Edit(msg, discord.MessageSend{Embeds: []discord.Embed{embed(&sent)}}); err != nil {
					return errors.Wrap(err, "edit debug message")
				}
				return nil
			},
		}
	}
}

func recentCommits(c *command.Context, h History) (string, error) {
	if h == nil {
		return "*No Git repository found*", nil
	}
	commits, err := h.RecentCommits(c.Ctx(), maxCommitsShown)
	if err != nil {
		return "", errors.Wrap(err, "read recent commits")
	}

	var sb strings.Builder
	for _, commit := range commits {
		msg := []rune(strings.TrimSpace(commit.Message))
		if len(msg) > maxCommitMessageLength {
			msg = msg[:maxCommitMessageLength]
		}
		fmt.Fprintf(&sb, "\n[`%s`](%s) <t:%d:R>: %s",
			commit.Short(shortSHALength),
			h.CommitURL(commit.SHA),
			commit.Time.Unix(),
			string(msg),
		)
	}
	return sb.String(), nil
}

func formatPing(received, now time.Time, sent *time.Time, gateway time.Duration) string {
	back := "..."
	if sent != nil {
		back = sent.Sub(now).String()
	}
	return fmt.Sprintf("Discord -> Bot: %s\nBot -> Discord: %s\nGateway: %s",
		now.Sub(received), back, gateway)
}
