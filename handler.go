package decomp

import (
	"context"

	"github.com/Defacto2/decomp/command"
	"github.com/Defacto2/decomp/definition"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Package file handler.go contains the routines that run a resolved mode.

// Builtin is a handler routine provided by the package.
type Builtin int

const (
	External Builtin = iota // External is a handler function registered with WithHandler.
	Common                  // Common substitutes the argument template and runs the command.
	Rsync                   // Rsync mirrors the source to the destination, ignoring the template.
	Squashfs                // Squashfs is Common, but drops the architecture filter when there is no Arch.
)

func (b Builtin) String() string {
	switch b {
	case Common:
		return "common"
	case Rsync:
		return "rsync"
	case Squashfs:
		return "squashfs"
	case External:
	}
	return "external"
}

// ParseBuiltin returns the builtin handler for the func field of a definition.
// The names _common and _sqfs are accepted for Common and Squashfs.
func ParseBuiltin(name string) (Builtin, bool) {
	switch name {
	case "common", "_common":
		return Common, true
	case "rsync", "_rsync":
		return Rsync, true
	case "squashfs", "_sqfs", "sqfs":
		return Squashfs, true
	}
	return External, false
}

// HandlerFunc runs a resolved mode. The returned text is only used by Contents.
//
// A handler will usually call Call.Run, after any changes to the definition or parameters.
type HandlerFunc func(ctx context.Context, c Call) (string, error)

// Call is a single resolved operation handed to a handler.
// Every field is a copy, so a handler may change them freely.
type Call struct {
	Kind   definition.Kind       // Kind is the type of the definition table.
	Def    definition.Definition // Def is the definition of the resolved mode.
	Params Params                // Params with the resolved mode and the filename extension applied.
	Flavor definition.Flavor     // Flavor supplies the tar program option values.
	Env    map[string]string     // Env is the environment of the program.
	Runner command.Runner        // Runner runs the command line.
	Log    zerolog.Logger        // Log is the logger of the Map.
}

// Values returns the placeholder values of the call.
func (c Call) Values() map[string]string {
	return c.Params.Values(c.Def.Key, c.Flavor)
}

// Line substitutes the argument template of the definition and returns the complete command line.
func (c Call) Line() (string, error) {
	args, err := Args(c.Def, c.Values(), c.Params.Options)
	if err != nil {
		return "", err
	}
	return Line(c.Def.Command, args), nil
}

// Run substitutes the argument template and runs the command line.
// Listing calls return the program output.
func (c Call) Run(ctx context.Context) (string, error) {
	line, err := c.Line()
	if err != nil {
		return "", err
	}
	c.Log.Debug().Str("mode", c.Def.Key).Str("label", c.Def.Label).Str("line", line).Msg("run")
	if c.Runner == nil {
		return "", errors.Errorf("%s: %w: no runner", c.Def.Label, command.ErrSpawn)
	}
	if c.Kind == definition.Listing {
		return c.Runner.Output(ctx, line, c.Def.Label, c.Env)
	}
	return "", c.Runner.Run(ctx, line, c.Def.Label, c.Env)
}

func common(ctx context.Context, c Call) (string, error) {
	return c.Run(ctx)
}

func squashfs(ctx context.Context, c Call) (string, error) {
	if c.Params.Arch == "" {
		c.Def.Args = withoutArch(c.Def.Args)
	}
	return c.Run(ctx)
}

// RsyncDefinition is the fixed definition used by the rsync handler and Map.Rsync.
func RsyncDefinition() definition.Definition {
	return definition.Definition{
		Key:      "rsync",
		Handler:  Rsync.String(),
		Command:  command.Rsync,
		Args:     []string{"-a", "--delete", OtherOptions, "%(" + SourceKey + ")s", "%(" + DestinationKey + ")s"},
		Label:    "RSYNC",
		Binaries: []string{command.Rsync},
	}
}

func rsync(ctx context.Context, c Call) (string, error) {
	c.Def = RsyncDefinition()
	return c.Run(ctx)
}

// handler returns the routine for the func name of a definition.
func (m *Map) handler(name string) (HandlerFunc, error) {
	if b, ok := ParseBuiltin(name); ok {
		switch b {
		case Common:
			return common, nil
		case Rsync:
			return rsync, nil
		case Squashfs:
			return squashfs, nil
		case External:
		}
	}
	if fn, ok := m.handlers[name]; ok && fn != nil {
		return fn, nil
	}
	return nil, errors.Errorf("%w: %q", ErrHandler, name)
}
