// Package command provides the command framework: descriptors, a registry
// built once at startup, dispatch of prefix messages and slash interactions,
// and the failure events raised when a command cannot complete.
package command

import "slices"

// Handler runs a command. args is the raw text after the invoked name.
type Handler func(c *Context, args string) error

// Kind selects how a command may be invoked
type Kind uint8

const (
	Prefix Kind = 1 << iota
	Slash
)

// Command describes one invocable command
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Category    string
	Kind        Kind
	OwnerOnly   bool
	Handler     Handler

	// Options declares the slash command options. Prefix invocations
	// receive the same values as raw text.
	Options []Option

	// CustomData is the extensible metadata slot. Layers that annotate a
	// command wrap the value already stored here instead of replacing it.
	CustomData any
}

// OptionType is the value type of a slash command option
type OptionType int

const (
	OptionString OptionType = iota
	OptionBool
)

// Option is one slash command option
type Option struct {
	Name        string
	Description string
	Type        OptionType
	Required    bool
}

// Factory produces a command descriptor
type Factory func() *Command

// Matches reports whether name is the command's name or one of its aliases.
func (c *Command) Matches(name string) bool {
	return c.Name == name || slices.Contains(c.Aliases, name)
}

// Invocable reports whether the command accepts the given invocation kind.
// A zero Kind means prefix-only.
func (c *Command) Invocable(k Kind) bool {
	kind := c.Kind
	if kind == 0 {
		kind = Prefix
	}
	return kind&k != 0
}
