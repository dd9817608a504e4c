package decomp

import (
	"maps"
	"slices"

	"github.com/Defacto2/decomp/definition"
)

// Package file params.go contains the per call parameters and their placeholder values.

// Params are the values of a single compress, extract, contents or rsync call.
// Params are passed by value so each call works on its own copy.
type Params struct {
	Source      string            // Source is the archive to read, or the directory to compress.
	Destination string            // Destination is the directory to extract or copy to.
	Basedir     string            // Basedir is the directory containing the Source to compress.
	Filename    string            // Filename is the archive to create.
	Mode        string            // Mode is the definition key, an empty value uses the default mode.
	AutoExt     bool              // AutoExt appends the default extension of the mode to Filename.
	Arch        string            // Arch is the architecture filter used by squashfs.
	Options     []string          // Options replace the other_options token of the argument template.
	Extra       map[string]string // Extra are further placeholder values, they replace any of the other values.
}

func (p Params) clone() Params {
	p.Options = slices.Clone(p.Options)
	p.Extra = maps.Clone(p.Extra)
	return p
}

// Placeholder names of the Params values.
const (
	SourceKey      = "source"
	DestinationKey = "destination"
	BasedirKey     = "basedir"
	FilenameKey    = "filename"
	ArchKey        = "arch"
)

// Values returns the placeholder values of the parameters for the mode.
//
// The source, destination, basedir, filename and arch values are only set
// when they are not empty, so a template that needs a missing value fails.
// The comp_prog, decomp_opt and list_xattrs_opt values come from the flavor,
// they and the Extra values are program options that Args does not quote.
func (p Params) Values(mode string, f definition.Flavor) map[string]string {
	vals := f.Values(mode)
	set := func(key, val string) {
		if val != "" {
			vals[key] = val
		}
	}
	set(SourceKey, p.Source)
	set(DestinationKey, p.Destination)
	set(BasedirKey, p.Basedir)
	set(FilenameKey, p.Filename)
	set(ArchKey, p.Arch)
	maps.Copy(vals, p.Extra)
	return vals
}
