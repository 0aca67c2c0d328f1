package command

import (
	"context"
	"fmt"

	"github.com/oliviabot/oliviabot/pkg/discord"
)

// Discord rejects descriptions outside 1..100 characters
const maxSlashDescription = 100

// Registrar publishes application commands
type Registrar interface {
	BulkOverwriteGlobalCommands(ctx context.Context, appID string, cmds []discord.ApplicationCommand) ([]discord.ApplicationCommand, error)
}

// SlashCommands returns the application command definition of every
// slash-invocable command, in registration order.
func (r *Registry) SlashCommands() []discord.ApplicationCommand {
	var out []discord.ApplicationCommand
	for _, cmd := range r.commands {
		if !cmd.Invocable(Slash) {
			continue
		}
		ac := discord.ApplicationCommand{
			Type:        discord.ApplicationCommandChatInput,
			Name:        cmd.Name,
			Description: slashDescription(cmd.Description),
		}
		for _, opt := range cmd.Options {
			t := discord.OptionTypeString
			if opt.Type == OptionBool {
				t = discord.OptionTypeBoolean
			}
			ac.Options = append(ac.Options, discord.ApplicationCommandOption{
				Type:        t,
				Name:        opt.Name,
				Description: slashDescription(opt.Description),
				Required:    opt.Required,
			})
		}
		out = append(out, ac)
	}
	return out
}

func slashDescription(s string) string {
	if s == "" {
		return "No description"
	}
	if r := []rune(s); len(r) > maxSlashDescription {
		return string(r[:maxSlashDescription-1]) + "…"
	}
	return s
}

// RegisterGlobally replaces the application's global slash commands with
// the registry's. Call it from Setup so a failure is fatal.
func (f *Framework) RegisterGlobally(ctx context.Context, reg Registrar, appID string) error {
	cmds := f.registry.SlashCommands()
	if _, err := reg.BulkOverwriteGlobalCommands(ctx, appID, cmds); err != nil {
		return fmt.Errorf("register %d slash commands: %w", len(cmds), err)
	}
	f.log.Info("registered slash commands", "count", len(cmds), "application_id", appID)
	return nil
}
