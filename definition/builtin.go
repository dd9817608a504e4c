package definition

import (
	"embed"
	"path"
	"slices"
)

// Package file builtin.go contains the definition tables that ship with the package.

//go:embed defs/*.yaml
var defs embed.FS

// Compress returns the builtin compression definitions.
func Compress() *Table {
	return builtin("compress.yaml")
}

// Decompress returns the builtin decompression definitions.
func Decompress() *Table {
	return builtin("decompress.yaml")
}

// Contents returns the builtin contents listing definitions.
func Contents() *Table {
	return builtin("contents.yaml")
}

// Builtin returns the builtin definitions of the kind, or nil for an unknown kind.
func Builtin(kind Kind) *Table {
	switch kind {
	case Compression:
		return Compress()
	case Decompression:
		return Decompress()
	case Listing:
		return Contents()
	case Unknown:
	}
	return nil
}

// builtin panics on error, as the embedded files are tested and never change at runtime.
func builtin(name string) *Table {
	data, err := defs.ReadFile(path.Join("defs", name))
	if err != nil {
		panic(err)
	}
	src, err := Parse(data, YAML, name)
	if err != nil {
		panic(err)
	}
	tab, err := Build(src, Schema)
	if err != nil {
		panic(err)
	}
	return tab
}

var (
	// decompressOrder prefers the parallel programs when they are installed.
	decompressOrder = []string{"pixz", "lbzip2", "zstd", "xz", "bzip2", "gzip", "squashfs", "tar"}
	contentsOrder   = []string{"pixz", "lbzip2", "isoinfo_l", "squashfs", "zstd", "gzip", "xz", "bzip2", "tar"}
)

// SearchOrder returns the default auto-detection order for the kind.
// A nil result means the order of the modes in the table is used,
// which is the case for Compression.
func SearchOrder(kind Kind) []string {
	switch kind {
	case Decompression:
		return slices.Clone(decompressOrder)
	case Listing:
		return slices.Clone(contentsOrder)
	case Compression, Unknown:
	}
	return nil
}
