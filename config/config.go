// Package config holds the settings of the decomp command,
// read from a YAML, HCL or JSON file.
//
// An example YAML file:
//
//	flavor: gnu
//	separator: "."
//	jobs: 4
//	inherit_env: true
//	definitions:
//	  decompress: /etc/decomp/decompress.yaml
//	search_order:
//	  decompress: [zstd, xz, gzip, tar]
//	env:
//	  LANG: C
//
// The same settings in HCL:
//
//	flavor      = "gnu"
//	jobs        = 4
//	inherit_env = true
//	env         = { LANG = "C" }
//
//	definitions {
//	  decompress = "/etc/decomp/decompress.yaml"
//	}
//
//	search_order {
//	  decompress = ["zstd", "xz", "gzip", "tar"]
//	}
package config

import (
	"context"
	"maps"
	"os"
	"runtime"
	"strings"

	"github.com/Defacto2/decomp"
	"github.com/Defacto2/decomp/command"
	"github.com/Defacto2/decomp/definition"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var ErrConfig = errors.New("invalid configuration")

// DefaultFile is the configuration file used when no path is given.
// It is not an error for the default file to be missing.
const DefaultFile = "decomp.yaml"

// Config is the configuration of the decomp command.
type Config struct {
	Definitions *Definitions      `json:"definitions,omitempty" yaml:"definitions,omitempty" hcl:"definitions,block"`
	SearchOrder *SearchOrder      `json:"search_order,omitempty" yaml:"search_order,omitempty" hcl:"search_order,block"`
	Flavor      string            `json:"flavor,omitempty" yaml:"flavor,omitempty" hcl:"flavor,optional"`
	Separator   string            `json:"separator,omitempty" yaml:"separator,omitempty" hcl:"separator,optional"`
	Env         map[string]string `json:"env,omitempty" yaml:"env,omitempty" hcl:"env,optional"`
	InheritEnv  *bool             `json:"inherit_env,omitempty" yaml:"inherit_env,omitempty" hcl:"inherit_env,optional"`
	Shell       string            `json:"shell,omitempty" yaml:"shell,omitempty" hcl:"shell,optional"`
	Debug       bool              `json:"debug,omitempty" yaml:"debug,omitempty" hcl:"debug,optional"`
	Jobs        int               `json:"jobs,omitempty" yaml:"jobs,omitempty" hcl:"jobs,optional"`

	location string
}

// Definitions are the paths of the definition files that replace the builtin tables.
type Definitions struct {
	Compress   string `json:"compress,omitempty" yaml:"compress,omitempty" hcl:"compress,optional"`
	Decompress string `json:"decompress,omitempty" yaml:"decompress,omitempty" hcl:"decompress,optional"`
	Contents   string `json:"contents,omitempty" yaml:"contents,omitempty" hcl:"contents,optional"`
}

// SearchOrder are the auto-detection mode orders that replace the defaults.
type SearchOrder struct {
	Compress   []string `json:"compress,omitempty" yaml:"compress,omitempty" hcl:"compress,optional"`
	Decompress []string `json:"decompress,omitempty" yaml:"decompress,omitempty" hcl:"decompress,optional"`
	Contents   []string `json:"contents,omitempty" yaml:"contents,omitempty" hcl:"contents,optional"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		Flavor:    definition.GNU.Name,
		Separator: decomp.Separator,
		Shell:     command.BashPath,
		Jobs:      runtime.GOMAXPROCS(0),
	}
}

// Location returns the path of the loaded file, or an empty string for the defaults.
func (c *Config) Location() string {
	return c.location
}

// defaults fills in the unset values.
func (c *Config) defaults() {
	d := Default()
	if c.Flavor == "" {
		c.Flavor = d.Flavor
	}
	if c.Separator == "" {
		c.Separator = d.Separator
	}
	if c.Shell == "" {
		c.Shell = d.Shell
	}
	if c.Jobs == 0 {
		c.Jobs = d.Jobs
	}
}

// Validate returns an error wrapping ErrConfig for the first invalid setting.
func Validate(ctx context.Context, c *Config) error {
	if c == nil {
		return errors.Errorf("%w: the config is nil", ErrConfig)
	}
	if _, err := definition.ParseFlavor(c.Flavor); err != nil {
		return errors.Errorf("%w: %v", ErrConfig, err)
	}
	if c.Jobs < 0 {
		return errors.Errorf("%w: jobs must not be negative, %d", ErrConfig, c.Jobs)
	}
	for key := range c.Env {
		if key == "" || strings.ContainsAny(key, "= ") {
			return errors.Errorf("%w: env has an invalid name %q", ErrConfig, key)
		}
	}
	if c.SearchOrder != nil {
		for _, order := range [][]string{c.SearchOrder.Compress, c.SearchOrder.Decompress, c.SearchOrder.Contents} {
			for _, mode := range order {
				if strings.TrimSpace(mode) == "" {
					return errors.Errorf("%w: search_order has an empty mode", ErrConfig)
				}
				if mode == decomp.Auto {
					return errors.Errorf("%w: search_order cannot contain the %q mode", ErrConfig, decomp.Auto)
				}
			}
		}
	}
	zerolog.Ctx(ctx).Debug().Str("config", c.location).Str("flavor", c.Flavor).Int("jobs", c.Jobs).Msg("config is valid")
	return nil
}

// Inherit returns true if the programs run with the environment of the current process,
// which is the default when inherit_env is not set.
func (c *Config) Inherit() bool {
	return c.InheritEnv == nil || *c.InheritEnv
}

// Environ returns the environment of the programs.
// When Inherit is true the current environment is used, and Env replaces any of its values.
func (c *Config) Environ() map[string]string {
	env := map[string]string{}
	if c.Inherit() {
		for _, kv := range os.Environ() {
			key, val, ok := strings.Cut(kv, "=")
			if !ok || key == "" {
				continue
			}
			env[key] = val
		}
	}
	maps.Copy(env, c.Env)
	return env
}

// Table returns the definitions of the kind, read from the configured file
// or the builtin table when there is none.
func (c *Config) Table(kind definition.Kind) (*definition.Table, error) {
	name := c.definitionFile(kind)
	if name == "" {
		tab := definition.Builtin(kind)
		if tab == nil {
			return nil, errors.Errorf("%w: %s", definition.ErrKind, kind)
		}
		return tab, nil
	}
	tab, err := definition.LoadFile(name)
	if err != nil {
		return nil, err
	}
	if tab.Kind() != kind {
		return nil, errors.Errorf("%w: %s is a %s table, not %s", ErrConfig, name, tab.Kind(), kind)
	}
	return tab, nil
}

func (c *Config) definitionFile(kind definition.Kind) string {
	if c.Definitions == nil {
		return ""
	}
	switch kind {
	case definition.Compression:
		return c.Definitions.Compress
	case definition.Decompression:
		return c.Definitions.Decompress
	case definition.Listing:
		return c.Definitions.Contents
	case definition.Unknown:
	}
	return ""
}

// Order returns the configured search order of the kind, or nil to use the default.
func (c *Config) Order(kind definition.Kind) []string {
	if c.SearchOrder == nil {
		return nil
	}
	switch kind {
	case definition.Compression:
		return c.SearchOrder.Compress
	case definition.Decompression:
		return c.SearchOrder.Decompress
	case definition.Listing:
		return c.SearchOrder.Contents
	case definition.Unknown:
	}
	return nil
}

// Map returns the dispatcher for the kind using the configured
// definitions, search order, tar flavor, environment and shell.
// The logger is taken from the context.
func (c *Config) Map(ctx context.Context, kind definition.Kind, opts ...decomp.Option) (*decomp.Map, error) {
	tab, err := c.Table(kind)
	if err != nil {
		return nil, err
	}
	flavor, err := definition.ParseFlavor(c.Flavor)
	if err != nil {
		return nil, errors.Errorf("%w: %v", ErrConfig, err)
	}
	logger := zerolog.Ctx(ctx).With().Stringer("kind", kind).Logger()
	base := []decomp.Option{
		decomp.WithLogger(logger),
		decomp.WithFlavor(flavor),
		decomp.WithEnv(c.Environ()),
		decomp.WithRunner(command.Shell{Path: c.Shell, Debug: c.Debug}),
	}
	if c.Separator != "" {
		base = append(base, decomp.WithSeparator(c.Separator))
	}
	if order := c.Order(kind); len(order) > 0 {
		base = append(base, decomp.WithSearchOrder(order...))
	}
	return decomp.New(tab, append(base, opts...)...), nil
}
