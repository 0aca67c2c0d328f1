package cogs

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/oliviabot/oliviabot/pkg/command"
	"github.com/oliviabot/oliviabot/pkg/discord"
	"github.com/oliviabot/oliviabot/pkg/store"
)

func neofetchCommand(d Deps) command.Factory {
	return func() *command.Command {
		return &command.Command{
			Name:        "neofetch",
			Description: "Shows a neofetch logo for a distro",
			Usage:       "neofetch [--mobile] [distro]",
			Category:    "Gadgets",
			Kind:        command.Prefix | command.Slash,
			Options: []command.Option{
				{Name: "distro", Description: "Distribution to show", Type: command.OptionString},
				{Name: "mobile", Description: "Use the narrow mobile logo", Type: command.OptionBool},
			},
			Handler: func(c *command.Context, args string) error {
				if d.Logos == nil {
					return errors.New("neofetch table is not configured")
				}

				distro, mobile := neofetchArgs(c, args)
				logo, err := d.Logos.Random(c.Ctx(), distro, mobile)
				if errors.Is(err, store.ErrNoMatch) {
					return command.ArgErrorf("No such distro found")
				}
				if err != nil {
					return errors.WithStack(err)
				}

				channel := "discord"
				if ch, ok := c.Channel(); ok && ch.Name != "" {
					channel = ch.Name
				}

				embed := discord.Embed{
					Description: fmt.Sprintf("```ansi\n%s\n```", logo.Logo),
					Color:       d.EmbedColor,
					Fields: []discord.EmbedField{{
						Name:  fmt.Sprintf("%s@%s", c.Author.Username, channel),
						Value: fmt.Sprintf("```\nOS: %s\nHost: Discord\n```", logo.Distro),
					}},
					Footer: &discord.EmbedFooter{Text: "Neofetch data last updated:"},
				}
				if updated := d.Logos.UpdatedAt(); !updated.IsZero() {
					embed.Timestamp = updated.UTC().Format(time.RFC3339)
				}

				_, err = c.Send(discord.MessageSend{Embeds: []discord.Embed{embed}})
				return err
			},
		}
	}
}

// neofetchArgs reads the distro and mobile flag from slash options, or from
// text arguments where "--mobile" may appear anywhere.
func neofetchArgs(c *command.Context, args string) (string, bool) {
	if c.Interaction != nil {
		distro, _ := c.Interaction.StringOption("distro")
		mobile := false
		for _, opt := range c.Interaction.Data.Options {
			if opt.Name == "mobile" {
				mobile, _ = opt.Value.(bool)
			}
		}
		return strings.TrimSpace(distro), mobile
	}

	var words []string
	mobile := false
	for _, w := range strings.Fields(args) {
		if w == "--mobile" || w == "-m" {
			mobile = true
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " "), mobile
}
