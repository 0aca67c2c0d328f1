package command

// Registry is the command table. It is filled once by NewRegistry and is
// read-only afterwards, so it can be shared between goroutines freely.
type Registry struct {
	commands []*Command
}

// NewRegistry runs every factory once, in order, and stores the results.
func NewRegistry(factories ...Factory) *Registry {
	r := &Registry{commands: make([]*Command, 0, len(factories))}
	for _, f := range factories {
		if cmd := f(); cmd != nil {
			r.commands = append(r.commands, cmd)
		}
	}
	return r
}

// Find returns the first command, in registration order, whose name or
// aliases match name exactly.
func (r *Registry) Find(name string) (*Command, bool) {
	for _, cmd := range r.commands {
		if cmd.Matches(name) {
			return cmd, true
		}
	}
	return nil, false
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Categories returns the distinct categories in order of first appearance.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, cmd := range r.commands {
		if !seen[cmd.Category] {
			seen[cmd.Category] = true
			out = append(out, cmd.Category)
		}
	}
	return out
}

// Len returns the number of registered commands
func (r *Registry) Len() int {
	return len(r.commands)
}
