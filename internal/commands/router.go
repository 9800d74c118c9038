package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyCommandName = errors.New("command name is empty")
	ErrDuplicateCommand = errors.New("command already registered")
)

// Router resolves command names and aliases to commands.
type Router struct {
	commands map[string]Command
	aliases  map[string]string
}

func NewRouter() *Router {
	return &Router{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

func (r *Router) Register(cmd Command) error {
	if cmd == nil || cmd.Name() == "" {
		return ErrEmptyCommandName
	}
	name := strings.ToLower(cmd.Name())
	if _, exists := r.lookup(name); exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	for _, alias := range cmd.Aliases() {
		if _, exists := r.lookup(strings.ToLower(alias)); exists {
			return fmt.Errorf("%w: %s", ErrDuplicateCommand, alias)
		}
	}

	r.commands[name] = cmd
	for _, alias := range cmd.Aliases() {
		r.aliases[strings.ToLower(alias)] = name
	}
	return nil
}

func (r *Router) lookup(name string) (Command, bool) {
	if cmd, ok := r.commands[name]; ok {
		return cmd, true
	}
	if target, ok := r.aliases[name]; ok {
		return r.commands[target], true
	}
	return nil, false
}

// Resolve finds a command by name or alias, case-insensitively.
func (r *Router) Resolve(name string) (Command, bool) {
	return r.lookup(strings.ToLower(strings.TrimPrefix(name, "/")))
}

func (r *Router) Has(name string) bool {
	_, ok := r.Resolve(name)
	return ok
}

// Commands returns registered commands ordered by name.
func (r *Router) Commands() []Command {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Command, 0, len(names))
	for _, name := range names {
		result = append(result, r.commands[name])
	}
	return result
}

func (r *Router) Names() []string {
	cmds := r.Commands()
	names := make([]string, len(cmds))
	for i, cmd := range cmds {
		names[i] = cmd.Name()
	}
	return names
}
