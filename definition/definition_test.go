package definition_test

import (
	"testing"

	"github.com/Defacto2/decomp/command"
	"github.com/Defacto2/decomp/definition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func row(key string, vals ...any) definition.Row {
	return definition.Row{Key: key, Values: vals}
}

func TestBuild(t *testing.T) {
	t.Parallel()
	src := definition.Source{
		Kind:        definition.Decompression,
		Description: "test definitions",
		Rows: []definition.Row{
			row("zstd", "common", "tar", []any{"-xpf", "%(source)s"}, "ZSTD", []any{"tar.zst", "zst"}, []any{"tar", "zstd"}),
			row("tar", "common", "tar", []string{"-xpf", "%(source)s"}, "TAR", []any{"tar"}, nil),
			row("rsync", "rsync", "rsync", []any{}, "RSYNC", nil, []any{"rsync"}),
		},
	}
	tab, err := definition.Build(src, definition.Schema)
	require.NoError(t, err)
	assert.Equal(t, definition.Decompression, tab.Kind())
	assert.Equal(t, "test definitions", tab.Description())
	assert.Equal(t, 3, tab.Len())
	assert.Equal(t, []string{"zstd", "tar", "rsync"}, tab.Modes())
	for _, mode := range tab.Modes() {
		assert.True(t, tab.Supported(mode), mode)
	}
	assert.False(t, tab.Supported("gzip"))
	assert.False(t, tab.Supported("Type"))

	assert.Equal(t, "tar.zst", tab.Extension("zstd"))
	assert.Equal(t, []string{"tar.zst", "zst"}, tab.Extensions("zstd"))
	assert.Empty(t, tab.Extension("rsync"))
	assert.Empty(t, tab.Extension("gzip"))
	assert.Nil(t, tab.Extensions("gzip"))

	def, ok := tab.Lookup("tar")
	require.True(t, ok)
	assert.Equal(t, definition.Definition{
		Key:        "tar",
		Handler:    "common",
		Command:    "tar",
		Args:       []string{"-xpf", "%(source)s"},
		Label:      "TAR",
		Extensions: []string{"tar"},
		Binaries:   []string{"tar"},
	}, def)
	_, ok = tab.Lookup("gzip")
	assert.False(t, ok)

	assert.Equal(t, []string{"rsync", "tar", "zstd"}, tab.Binaries())
	assert.Equal(t, []string{"tar"}, tab.Binaries("tar", "gzip"))
	assert.True(t, def.Enabled(command.NewSet("tar")))
	zstd, _ := tab.Lookup("zstd")
	assert.False(t, zstd.Enabled(command.NewSet("tar")))
	assert.True(t, zstd.Enabled(command.NewSet("tar", "zstd")))
}

func TestBuild_Copies(t *testing.T) {
	t.Parallel()
	tab := definition.Compress()
	def, ok := tab.Lookup("squashfs")
	require.True(t, ok)
	def.Args[0] = "changed"
	def.Extensions[0] = "changed"
	exts := tab.Extensions("squashfs")
	exts[0] = "changed"
	modes := tab.Modes()
	modes[0] = "changed"

	def, _ = tab.Lookup("squashfs")
	assert.Equal(t, "%(basedir)s/%(source)s", def.Args[0])
	assert.Equal(t, "squashfs", tab.Extension("squashfs"))
	assert.Equal(t, "rsync", tab.Modes()[0])
}

func TestBuild_Legacy(t *testing.T) {
	t.Parallel()
	src := definition.Source{
		Kind: definition.Compression,
		Rows: []definition.Row{
			row("gzip", "common", "tar", []any{"-czf", "%(filename)s", "%(source)s"}, "GZIP", []any{"tar.gz"}),
		},
	}
	tab, err := definition.Build(src, definition.Legacy)
	require.NoError(t, err)
	def, _ := tab.Lookup("gzip")
	assert.Equal(t, []string{"tar"}, def.Binaries)

	_, err = definition.Build(src, definition.Schema)
	require.ErrorIs(t, err, definition.ErrSchema)

	_, err = definition.Build(src, definition.Fields{{Name: "func"}, {Name: "cmd"}})
	require.ErrorIs(t, err, definition.ErrSchema)
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()
	args := []any{"-xpf", "%(source)s"}
	tests := []struct {
		name  string
		rows  []definition.Row
		key   string
		field string
	}{
		{"too few", []definition.Row{row("tar", "common", "tar", args, "TAR", []any{"tar"})}, "tar", ""},
		{"too many", []definition.Row{row("tar", "common", "tar", args, "TAR", []any{"tar"}, nil, nil)}, "tar", ""},
		{"args not a list", []definition.Row{row("tar", "common", "tar", "-xpf", "TAR", []any{"tar"}, nil)}, "tar", "args"},
		{"func not a string", []definition.Row{row("tar", []any{"common"}, "tar", args, "TAR", []any{"tar"}, nil)}, "tar", "func"},
		{"empty cmd", []definition.Row{row("tar", "common", "", args, "TAR", []any{"tar"}, nil)}, "tar", "cmd"},
		{"null args", []definition.Row{row("tar", "common", "tar", nil, "TAR", []any{"tar"}, nil)}, "tar", "args"},
		{"mixed list", []definition.Row{row("tar", "common", "tar", []any{"-xpf", 1}, "TAR", []any{"tar"}, nil)}, "tar", "args"},
		{"duplicate", []definition.Row{
			row("tar", "common", "tar", args, "TAR", []any{"tar"}, nil),
			row("tar", "common", "tar", args, "TAR", []any{"tar"}, nil),
		}, "tar", ""},
		{"reserved", []definition.Row{row("Type", "common", "tar", args, "TAR", []any{"tar"}, nil)}, "Type", ""},
		{"empty key", []definition.Row{row("", "common", "tar", args, "TAR", []any{"tar"}, nil)}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tab, err := definition.Build(definition.Source{Rows: tt.rows}, definition.Schema)
			require.ErrorIs(t, err, definition.ErrSchema)
			assert.Nil(t, tab)
			var se *definition.SchemaError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.key, se.Key)
			assert.Equal(t, tt.field, se.Field)
		})
	}

	_, err := definition.Build(definition.Source{Rows: []definition.Row{
		row("tar", "common", "tar", args, "TAR", []any{"tar"}),
	}}, definition.Schema)
	var se *definition.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 6, se.Want)
	assert.Equal(t, 5, se.Got)
	assert.Contains(t, err.Error(), `mode "tar"`)
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want definition.Kind
	}{
		{"Compression", definition.Compression},
		{"decompression", definition.Decompression},
		{"Contents", definition.Listing},
		{" listing ", definition.Listing},
	}
	for _, tt := range tests {
		got, err := definition.ParseKind(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
	_, err := definition.ParseKind("Mountable")
	require.ErrorIs(t, err, definition.ErrKind)
	assert.Equal(t, "Contents", definition.Listing.String())
	assert.Equal(t, "Unknown", definition.Kind(99).String())
}

func TestBuiltin(t *testing.T) {
	t.Parallel()
	tests := []struct {
		tab   *definition.Table
		kind  definition.Kind
		modes []string
	}{
		{definition.Compress(), definition.Compression, []string{
			"rsync", "lbzip2", "bzip2", "tar", "xz", "pixz", "gzip", "zstd",
			"gzip_x", "squashfs", "squashfs_xz", "squashfs_lz4",
		}},
		{definition.Decompress(), definition.Decompression, []string{
			"rsync", "lbzip2", "bzip2", "tar", "xz", "pixz", "gzip", "zstd", "squashfs", "pixz_x",
		}},
		{definition.Contents(), definition.Listing, []string{
			"tar", "gzip", "bzip2", "lbzip2", "xz", "pixz", "zstd", "isoinfo_l", "isoinfo_f", "squashfs",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.kind, tt.tab.Kind())
			assert.NotEmpty(t, tt.tab.Description())
			for _, mode := range tt.modes {
				assert.True(t, tt.tab.Supported(mode), mode)
			}
			for _, mode := range definition.SearchOrder(tt.kind) {
				assert.True(t, tt.tab.Supported(mode), mode)
			}
			for _, mode := range tt.tab.Modes() {
				def, _ := tt.tab.Lookup(mode)
				assert.NotEmpty(t, def.Binaries, mode)
				assert.NotEmpty(t, def.Label, mode)
			}
			assert.Equal(t, tt.tab.Modes(), definition.Builtin(tt.kind).Modes())
		})
	}
	assert.Nil(t, definition.Builtin(definition.Unknown))
	assert.Nil(t, definition.SearchOrder(definition.Compression))
	order := definition.SearchOrder(definition.Decompression)
	order[0] = "changed"
	assert.Equal(t, "pixz", definition.SearchOrder(definition.Decompression)[0])
	assert.Equal(t, "tar.gz", definition.Compress().Extension("gzip"))
	assert.Equal(t, []string{"squashfs", "sfs"}, definition.Compress().Extensions("squashfs_zstd"))
}
