// Package decomp compresses, extracts and lists the content of archives by
// running external command line programs that are described by a definition table.
//
// Each mode of a table, such as "tar", "gzip" or "squashfs", names the
// program to run, its argument template, the file extensions it handles
// and the programs that must be installed for it to work.
// When the mode is "auto", the mode is chosen by the file extension of the archive,
// trying the modes of the search order in turn.
//
// The package uses following Linux terminal programs.
//
//  1. [tar] - GNU tar or [bsdtar]
//  2. [gzip], [bzip2], [lbzip2], [xz], [pixz] and [zstd] compressors used by tar
//  3. [mksquashfs] and [unsquashfs] - squashfs-tools
//  4. [isoinfo] - ISO 9660 image listing from cdrtools or genisoimage
//  5. [rsync] - fast incremental file transfer
//
// [tar]: https://www.gnu.org/software/tar/
// [bsdtar]: https://www.libarchive.org/
// [gzip]: https://www.gnu.org/software/gzip/
// [bzip2]: https://sourceware.org/bzip2/
// [lbzip2]: https://github.com/kjn/lbzip2
// [xz]: https://tukaani.org/xz/
// [pixz]: https://github.com/vasi/pixz
// [zstd]: https://facebook.github.io/zstd/
// [mksquashfs]: https://github.com/plougher/squashfs-tools
// [unsquashfs]: https://github.com/plougher/squashfs-tools
// [isoinfo]: https://linux.die.net/man/8/isoinfo
// [rsync]: https://rsync.samba.org/
package decomp

import (
	"maps"
	"slices"

	"github.com/Defacto2/decomp/command"
	"github.com/Defacto2/decomp/definition"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	// Auto is the mode that chooses the mode by the file extension of the archive.
	Auto = "auto"
	// Separator is the default separator between a filename and its extension.
	Separator = "."
	// Basedir is the default base directory used for compression.
	Basedir = "."
)

var (
	ErrHandler     = errors.New("mode handler is not known")
	ErrKind        = errors.New("operation does not match the definitions type")
	ErrNoMode      = errors.New("no mode was passed in or automatically detected")
	ErrSubstitute  = errors.New("argument placeholder has no value")
	ErrUnsupported = errors.New("mode is not supported")
)

// IsFatal returns true if the error means the host environment is broken,
// such as the shell could not be started, rather than a failed program or a bad request.
func IsFatal(err error) bool {
	return errors.Is(err, command.ErrSpawn)
}

// Map runs the modes of a single definition table.
// A Map is not modified after New returns, so it can be used by concurrent goroutines.
type Map struct {
	tab      *definition.Table
	log      zerolog.Logger
	runner   command.Runner
	env      map[string]string
	order    []string
	sep      string
	mode     string
	flavor   definition.Flavor
	avail    command.Set
	handlers map[string]HandlerFunc
}

// Option configures a Map.
type Option func(*Map)

// WithLogger sets the logger, the default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Map) {
		m.log = l
	}
}

// WithRunner sets the runner of the command lines, the default is a command.Shell.
func WithRunner(r command.Runner) Option {
	return func(m *Map) {
		m.runner = r
	}
}

// WithEnv sets the complete environment of the programs.
// The default is an empty environment, so a program given without a path
// is only found when env includes a PATH.
func WithEnv(env map[string]string) Option {
	return func(m *Map) {
		m.env = maps.Clone(env)
	}
}

// WithSearchOrder sets the modes tried in turn when the mode is auto.
// The default is definition.SearchOrder for the table kind, or the order
// of the table when it has none of those modes.
func WithSearchOrder(modes ...string) Option {
	return func(m *Map) {
		m.order = slices.Clone(modes)
	}
}

// WithSeparator sets the separator between a filename and the automatic extension.
func WithSeparator(sep string) Option {
	return func(m *Map) {
		m.sep = sep
	}
}

// WithDefaultMode sets the mode used when Params has no Mode, the default is Auto.
func WithDefaultMode(mode string) Option {
	return func(m *Map) {
		m.mode = mode
	}
}

// WithFlavor sets the tar program options, the default is definition.GNU.
func WithFlavor(f definition.Flavor) Option {
	return func(m *Map) {
		m.flavor = f.Clone()
	}
}

// WithAvailable sets the installed programs instead of probing the system.
func WithAvailable(set command.Set) Option {
	return func(m *Map) {
		m.avail = maps.Clone(set)
	}
}

// WithHandler registers a handler function for the modes that name it in their func field.
// The builtin handler names common, rsync and squashfs cannot be replaced.
func WithHandler(name string, fn HandlerFunc) Option {
	return func(m *Map) {
		if m.handlers == nil {
			m.handlers = map[string]HandlerFunc{}
		}
		m.handlers[name] = fn
	}
}

// New returns a Map for the definition table.
//
// Unless WithAvailable is used, the programs required by every
// mode of the table, plus rsync, are looked up once on the PATH.
//
//	func Extract() {
//	    m := decomp.New(definition.Decompress(),
//	        decomp.WithEnv(map[string]string{"PATH": os.Getenv("PATH")}))
//	    err := m.Extract(context.Background(), decomp.Params{
//	        Source:      "stage3.tar.xz",
//	        Destination: "/tmp/stage3",
//	    })
//	    if err != nil {
//	        fmt.Fprintf(os.Stderr, "error: %v\n", err)
//	    }
//	}
func New(tab *definition.Table, opts ...Option) *Map {
	if tab == nil {
		tab = &definition.Table{}
	}
	m := &Map{
		tab:    tab,
		log:    zerolog.Nop(),
		runner: command.Shell{},
		env:    map[string]string{},
		sep:    Separator,
		mode:   Auto,
		flavor: definition.GNU.Clone(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.order == nil {
		m.order = definition.SearchOrder(tab.Kind())
		if !slices.ContainsFunc(m.order, tab.Supported) {
			m.order = tab.Modes()
		}
	}
	for _, mode := range m.order {
		if !tab.Supported(mode) {
			m.log.Debug().Str("mode", mode).Stringer("kind", tab.Kind()).
				Msg("search order mode is not in the definitions and is ignored")
		}
	}
	m.log.Debug().Strs("order", m.order).Stringer("kind", tab.Kind()).Msg("search order")
	if m.avail == nil {
		m.avail = m.probe()
	}
	return m
}

func (m *Map) probe() command.Set {
	names := append(m.tab.Binaries(), command.Rsync)
	set := command.Available(names...)
	m.log.Debug().Strs("available", set.Names()).Msg("programs found")
	return set
}

// Refresh returns a copy of the Map with the installed programs looked up again.
func (m *Map) Refresh() *Map {
	c := *m
	c.avail = c.probe()
	return &c
}

// Kind returns the type of the definition table.
func (m *Map) Kind() definition.Kind {
	return m.tab.Kind()
}

// Supported returns true if the mode is in the definition table.
func (m *Map) Supported(mode string) bool {
	return m.tab.Supported(mode)
}

// Modes returns the modes of the definition table in order.
func (m *Map) Modes() []string {
	return m.tab.Modes()
}

// Lookup returns a copy of the definition of the mode.
func (m *Map) Lookup(mode string) (definition.Definition, bool) {
	return m.tab.Lookup(mode)
}

// Extension returns the default extension of the mode, or all of its extensions
// when all is true. Unsupported modes return nil.
func (m *Map) Extension(mode string, all bool) []string {
	exts := m.tab.Extensions(mode)
	if all || len(exts) == 0 {
		return exts
	}
	return exts[:1]
}

// SearchOrder returns the modes tried in turn when the mode is auto.
func (m *Map) SearchOrder() []string {
	return slices.Clone(m.order)
}

// Available returns the installed programs.
func (m *Map) Available() command.Set {
	return maps.Clone(m.avail)
}

// Enabled returns true if the mode is supported and every program it requires is installed.
func (m *Map) Enabled(mode string) bool {
	def, ok := m.tab.Lookup(mode)
	if !ok {
		return false
	}
	return def.Enabled(m.avail)
}
