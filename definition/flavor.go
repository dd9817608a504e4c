package definition

import (
	"maps"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Package file flavor.go contains the tar program options that differ between tar variants.

var ErrFlavor = errors.New("unknown tar flavor")

// Placeholder names filled in by a Flavor.
const (
	CompProg      = "comp_prog"       // CompProg selects the compressor of a tar archive.
	DecompOpt     = "decomp_opt"      // DecompOpt selects the decompressor of a tar archive.
	ListXattrsOpt = "list_xattrs_opt" // ListXattrsOpt lists the extended attributes of a tar archive.
)

// XattrSuffix is the mode key suffix of the deprecated extended attribute modes, such as "gzip_x".
const XattrSuffix = "_x"

// Flavor holds the tar options for the compressor programs of a tar variant.
// The option maps are keyed by the base mode name, such as "gzip" or "pixz".
type Flavor struct {
	Name       string            // Name of the tar variant.
	Compress   map[string]string // Compress options fill the comp_prog placeholder.
	Decompress map[string]string // Decompress options fill the decomp_opt placeholder.
	ListXattrs string            // ListXattrs fills the list_xattrs_opt placeholder.
}

// GNU are the options for GNU tar found on most Linux distributions.
var GNU = Flavor{
	Name: "gnu",
	Compress: map[string]string{
		"bzip2":  "--bzip2",
		"gzip":   "--gzip",
		"lbzip2": "--use-compress-program=lbzip2",
		"pixz":   "--use-compress-program=pixz",
		"xz":     "--xz",
		"zstd":   "--zstd",
	},
	Decompress: map[string]string{
		"lbzip2": "--use-compress-program=lbzip2",
		"pixz":   "--use-compress-program=pixz",
		"zstd":   "--zstd",
	},
	ListXattrs: "--xattrs",
}

// BSD are the options for bsdtar of libarchive found on the BSDs and macOS.
var BSD = Flavor{
	Name: "bsd",
	Compress: map[string]string{
		"bzip2":  "-j",
		"gzip":   "-z",
		"lbzip2": "--use-compress-program=lbzip2",
		"pixz":   "--use-compress-program=pixz",
		"xz":     "-J",
		"zstd":   "--zstd",
	},
	Decompress: map[string]string{
		"lbzip2": "--use-compress-program=lbzip2",
		"pixz":   "--use-compress-program=pixz",
		"zstd":   "--zstd",
	},
	ListXattrs: "",
}

// ParseFlavor returns the named tar flavor, the match is case-insensitive.
// An empty name returns GNU.
func ParseFlavor(name string) (Flavor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gnu", "linux":
		return GNU, nil
	case "bsd", "bsdtar", "libarchive", "darwin":
		return BSD, nil
	}
	return Flavor{}, errors.Errorf("%w: %q", ErrFlavor, name)
}

// Values returns the placeholder values for the mode.
// The comp_prog and decomp_opt values are only set when the flavor has an
// option for the base mode, while list_xattrs_opt is always set, even when empty.
func (f Flavor) Values(mode string) map[string]string {
	base := BaseMode(mode)
	vals := map[string]string{ListXattrsOpt: f.ListXattrs}
	if s := f.Compress[base]; s != "" {
		vals[CompProg] = s
	}
	if s := f.Decompress[base]; s != "" {
		vals[DecompOpt] = s
	}
	return vals
}

// Clone returns a deep copy of the flavor.
func (f Flavor) Clone() Flavor {
	f.Compress = maps.Clone(f.Compress)
	f.Decompress = maps.Clone(f.Decompress)
	return f
}

// BaseMode returns the mode without the deprecated extended attribute suffix,
// "gzip_x" returns "gzip".
func BaseMode(mode string) string {
	return strings.TrimSuffix(mode, XattrSuffix)
}

// XattrMode returns true if the mode is one of the deprecated extended attribute "_x" variants.
func XattrMode(mode string) bool {
	return strings.HasSuffix(mode, XattrSuffix) && len(mode) > len(XattrSuffix)
}
