// Package cogs holds the bot's commands, grouped by category. Every command
// factory is registered through provenance.Tagged so the source command can
// point at its definition.
package cogs

import (
	"context"
	"time"

	"github.com/oliviabot/oliviabot/pkg/command"
	"github.com/oliviabot/oliviabot/pkg/provenance"
	"github.com/oliviabot/oliviabot/pkg/repo"
	"github.com/oliviabot/oliviabot/pkg/store"
)

// LogoSource serves neofetch logos
type LogoSource interface {
	Random(ctx context.Context, distro string, mobile bool) (store.Logo, error)
	UpdatedAt() time.Time
}

// History reads recent commits of the running checkout
type History interface {
	RecentCommits(ctx context.Context, n int) ([]repo.Commit, error)
	CommitURL(sha string) string
}

// Deps are the collaborators commands read from. Nil fields disable the
// features that need them.
type Deps struct {
	Logos           LogoSource
	History         History
	Latency         func() time.Duration
	SourceURLFormat string
	EmbedColor      int
}

// Commands returns every command factory in registration order
func Commands(d Deps) []command.Factory {
	var factories []command.Factory
	factories = append(factories, Meta(d)...)
	factories = append(factories, Gadgets(d)...)
	return factories
}

// Meta returns the commands about the bot itself
func Meta(d Deps) []command.Factory {
	return []command.Factory{
		provenance.Tagged(helpCommand()),
		provenance.Tagged(sourceCommand(d.SourceURLFormat)),
		provenance.Tagged(debugCommand(d)),
	}
}

// Gadgets returns the toy commands
func Gadgets(d Deps) []command.Factory {
	return []command.Factory{
		provenance.Tagged(neofetchCommand(d)),
	}
}
