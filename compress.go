package decomp

import (
	"context"
	"maps"

	"github.com/Defacto2/decomp/definition"
	"gitlab.com/tozd/go/errors"
)

// Package file compress.go contains the compression, extraction and rsync operations.

// Compress creates the Filename archive of the Source directory found in Basedir.
// The Map must use a Compression table.
//
// An empty Basedir is the current directory. When the mode is Auto,
// it is chosen by the extension of the Filename.
//
//	func Backup() {
//	    m := decomp.New(definition.Compress(),
//	        decomp.WithEnv(map[string]string{"PATH": os.Getenv("PATH")}))
//	    err := m.Compress(context.Background(), decomp.Params{
//	        Source:   "home",
//	        Basedir:  "/",
//	        Filename: "/var/backups/home",
//	        Mode:     "zstd",
//	        AutoExt:  true,
//	    })
//	    if err != nil {
//	        fmt.Fprintf(os.Stderr, "error: %v\n", err)
//	    }
//	}
func (m *Map) Compress(ctx context.Context, p Params) error {
	if p.Basedir == "" {
		p.Basedir = Basedir
	}
	_, err := m.operate(ctx, definition.Compression, p, p.Filename)
	return err
}

// Extract decompresses the Source archive into the Destination directory.
// The Map must use a Decompression table.
//
// When the mode is Auto, it is chosen by the extension of the Source.
func (m *Map) Extract(ctx context.Context, p Params) error {
	_, err := m.operate(ctx, definition.Decompression, p, p.Source)
	return err
}

// Rsync mirrors the Source to the Destination using rsync -a --delete
// and any Options. It works with every table kind, as the table is not used.
func (m *Map) Rsync(ctx context.Context, p Params) error {
	p = p.clone()
	p.Mode = "rsync"
	def := RsyncDefinition()
	c := m.call(def, p)
	c.Kind = definition.Compression
	if _, err := rsync(ctx, c); err != nil {
		return m.fail(err, p, def.Label)
	}
	return nil
}

// operate is the shared path of the table operations.
// The name is the file used to determine the mode when it is Auto.
func (m *Map) operate(ctx context.Context, kind definition.Kind, p Params, name string) (string, error) {
	p = p.clone()
	if m.tab.Kind() != kind {
		err := errors.Errorf("%w: %s operation with %s definitions", ErrKind, kind, m.tab.Kind())
		return "", m.fail(err, p, "")
	}
	if p.Mode == "" {
		p.Mode = m.mode
	}
	if p.Mode == "" || p.Mode == Auto {
		mode, ok := m.DetermineMode(name)
		if !ok {
			err := errors.Errorf("%s %w: %q", kind, ErrNoMode, name)
			return "", m.fail(err, p, "")
		}
		p.Mode = mode
	} else if definition.XattrMode(p.Mode) {
		m.log.Warn().Str("mode", p.Mode).Str("use", definition.BaseMode(p.Mode)).
			Msg("the extended attribute modes are deprecated, use the base mode with the xattrs options")
	}
	def, ok := m.tab.Lookup(p.Mode)
	if !ok {
		err := errors.Errorf("%w: mode %q is not in the %s definitions", ErrUnsupported, p.Mode, kind)
		return "", m.fail(err, p, "")
	}
	if p.AutoExt {
		if ext := def.Extension(); ext != "" {
			p.Filename += m.sep + ext
		}
		p.AutoExt = false
	}
	fn, err := m.handler(def.Handler)
	if err != nil {
		return "", m.fail(err, p, def.Label)
	}
	c := m.call(def, p)
	c.Kind = kind
	out, err := fn(ctx, c)
	if err != nil {
		return out, m.fail(err, p, def.Label)
	}
	return out, nil
}

func (m *Map) call(def definition.Definition, p Params) Call {
	return Call{
		Def:    def,
		Params: p,
		Flavor: m.flavor.Clone(),
		Env:    maps.Clone(m.env),
		Runner: m.runner,
		Log:    m.log,
	}
}

// fail logs the error with the details of the call and returns it.
func (m *Map) fail(err error, p Params, label string) error {
	e := m.log.Error().Err(err).Str("mode", p.Mode).Stringer("kind", m.tab.Kind())
	if label != "" {
		e = e.Str("label", label)
	}
	if p.Filename != "" {
		e = e.Str("filename", p.Filename)
	}
	if p.Source != "" {
		e = e.Str("source", p.Source)
	}
	e.Bool("fatal", IsFatal(err)).Msg("operation failed")
	return err
}
