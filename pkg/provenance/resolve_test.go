package provenance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oliviabot/oliviabot/pkg/command"
)

func testRegistry(tagHelp bool) *command.Registry {
	help := command.Factory(helpFactory)
	if tagHelp {
		help = Wrap(At("cogs/meta", 112), help)
	}
	return command.NewRegistry(
		Wrap(At("cogs/meta", 140), func() *command.Command {
			return &command.Command{Name: "source", Aliases: []string{"src"}}
		}),
		help,
	)
}

func TestDescribe_TaggedCommand(t *testing.T) {
	reply := Describe(testRegistry(true), "help", DefaultLinkFormat)

	assert.Contains(t, reply, "line 112")
	assert.Contains(t, reply, "https://github.com/RocketRace/oliviabot/blob/main/cogs/meta#L112")
}

func TestDescribe_Alias(t *testing.T) {
	reply := Describe(testRegistry(true), "h", "https://example.com/%s?line=%d")
	assert.Contains(t, reply, "https://example.com/cogs/meta?line=112")
}

func TestDescribe_NotFoundIsIndistinguishable(t *testing.T) {
	bogus := Describe(testRegistry(true), "bogus", DefaultLinkFormat)
	untagged := Describe(testRegistry(false), "help", DefaultLinkFormat)

	assert.Equal(t, NotFound("bogus"), bogus)
	assert.Equal(t, NotFound("help"), untagged)
	// identical apart from the echoed name
	assert.Equal(t, bogus, Describe(testRegistry(false), "bogus", DefaultLinkFormat))
	assert.NotContains(t, untagged, "tag")
}

func TestLink_DefaultFormat(t *testing.T) {
	assert.Equal(t,
		"https://github.com/RocketRace/oliviabot/blob/main/pkg/cogs/meta.go#L3",
		Link("", At("pkg/cogs/meta.go", 3)))
}
