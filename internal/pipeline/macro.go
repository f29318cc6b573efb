// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/kasbuild/kas/internal/app/execute"
)

type (
	// Command is one pipeline step.
	Command interface {
		// Name identifies the command in skip lists and logs.
		Name() string
		Execute(ctx context.Context, kc *execute.Context) error
	}

	// Macro is an ordered list of commands.
	Macro struct {
		commands []Command
	}

	// CommandError reports the command that failed a Macro run.
	CommandError struct {
		Command string
		Err     error
	}
)

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// NewMacro returns a Macro running cmds in order.
func NewMacro(cmds ...Command) *Macro {
	return &Macro{commands: cmds}
}

// Add appends cmd to the command list.
func (m *Macro) Add(cmd Command) {
	m.commands = append(m.commands, cmd)
}

// Names returns the command names in execution order.
func (m *Macro) Names() []string {
	names := make([]string, 0, len(m.commands))
	for _, cmd := range m.commands {
		names = append(names, cmd.Name())
	}
	return names
}

// Run executes every command whose name is not in skip. Side effects of
// commands that already ran are kept when a later one fails.
func (m *Macro) Run(ctx context.Context, kc *execute.Context, skip []string) error {
	for _, cmd := range m.commands {
		name := cmd.Name()
		if slices.Contains(skip, name) {
			slog.Debug("skip " + name)
			continue
		}
		if err := ctx.Err(); err != nil {
			return &CommandError{Command: name, Err: err}
		}
		slog.Debug("execute " + name)
		if err := cmd.Execute(ctx, kc); err != nil {
			return &CommandError{Command: name, Err: err}
		}
	}
	return nil
}

// Close releases resources held by commands, such as a temporary home
// directory or a still running ssh agent.
func (m *Macro) Close() error {
	var errs []error
	for _, cmd := range m.commands {
		if c, ok := cmd.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
