package provenance

import (
	"fmt"

	"github.com/oliviabot/oliviabot/pkg/command"
)

// DefaultLinkFormat renders a file and line as a repository URL.
const DefaultLinkFormat = "https://github.com/RocketRace/oliviabot/blob/main/%s#L%d"

// Resolve looks up name in the registry and returns the location carried by
// the outermost metadata of the matching command. Only a Tag at the head of
// the slot counts: a command without one resolves the same as a missing one.
func Resolve(reg *command.Registry, name string) (Location, bool) {
	cmd, ok := reg.Find(name)
	if !ok {
		return Location{}, false
	}
	tag, ok := cmd.CustomData.(*Tag)
	if !ok || tag == nil {
		return Location{}, false
	}
	return tag.Location, true
}

// Link renders loc with a format taking the file then the line.
func Link(format string, loc Location) string {
	if format == "" {
		format = DefaultLinkFormat
	}
	return fmt.Sprintf(format, loc.File, loc.Line)
}

// NotFound is the reply for a name that has no resolvable source.
func NotFound(name string) string {
	return fmt.Sprintf("couldn't find a command with that name `%s`", name)
}

// Describe produces the reply to a source lookup for name.
func Describe(reg *command.Registry, name, format string) string {
	loc, ok := Resolve(reg, name)
	if !ok {
		return NotFound(name)
	}
	return fmt.Sprintf("Source for `%s`: %s, line %d\n<%s>", name, loc.File, loc.Line, Link(format, loc))
}
