package decomp_test

import (
	"testing"

	"github.com/Defacto2/decomp"
	"github.com/Defacto2/decomp/command"
	"github.com/Defacto2/decomp/definition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sharedTable(t *testing.T) *definition.Table {
	t.Helper()
	tab, err := definition.Build(definition.Source{
		Kind: definition.Decompression,
		Rows: []definition.Row{
			{Key: "xz", Values: []any{"common", "tar", []any{"-xpf", "%(source)s"}, "XZ", []any{"tar.xz", "xz"}, []any{"tar", "xz"}}},
			{Key: "pixz", Values: []any{"common", "tar", []any{"-xpf", "%(source)s"}, "PIXZ", []any{"tar.xz", "xz"}, []any{"tar", "pixz"}}},
			{Key: "tar", Values: []any{"common", "tar", []any{"-xpf", "%(source)s"}, "TAR", []any{"tar"}, []any{"tar"}}},
		},
	}, definition.Schema)
	require.NoError(t, err)
	return tab
}

func TestDetermineMode(t *testing.T) {
	t.Parallel()
	tab := sharedTable(t)
	all := command.NewSet("tar", "xz", "pixz")
	tests := []struct {
		name   string
		source string
		order  []string
		avail  command.Set
		want   string
		found  bool
	}{
		{"pixz first", "stage3.tar.xz", []string{"pixz", "xz", "tar"}, all, "pixz", true},
		{"xz first", "stage3.tar.xz", []string{"xz", "pixz", "tar"}, all, "xz", true},
		{"pixz unavailable", "stage3.tar.xz", []string{"pixz", "xz", "tar"}, command.NewSet("tar", "xz"), "xz", true},
		{"nothing available", "stage3.tar.xz", []string{"pixz", "xz", "tar"}, command.NewSet("tar"), "", false},
		{"plain tar", "stage3.tar", []string{"pixz", "xz", "tar"}, all, "tar", true},
		{"case-sensitive", "STAGE3.TAR.XZ", []string{"pixz", "xz", "tar"}, all, "", false},
		{"no separator", "stage3tar.xz", []string{"xz"}, all, "xz", true},
		{"unknown modes", "stage3.tar.xz", []string{"lbzip2", "zstd", "xz"}, all, "xz", true},
		{"not in order", "stage3.tar", []string{"pixz", "xz"}, all, "", false},
		{"empty order", "stage3.tar", nil, all, "", false},
		{"empty source", "", []string{"pixz", "xz", "tar"}, all, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := decomp.DetermineMode(tt.source, tt.order, tab, tt.avail)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	got, ok := decomp.DetermineMode("stage3.tar", []string{"tar"}, nil, all)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestMap_DetermineMode(t *testing.T) {
	t.Parallel()
	tab := sharedTable(t)
	m := decomp.New(tab,
		decomp.WithAvailable(command.NewSet("tar", "xz", "pixz")),
		decomp.WithSearchOrder("xz", "pixz", "tar"))
	mode, ok := m.DetermineMode("stage3.tar.xz")
	assert.True(t, ok)
	assert.Equal(t, "xz", mode)

	m = decomp.New(definition.Contents(), decomp.WithAvailable(command.NewSet("tar", "gzip", "isoinfo")))
	mode, ok = m.DetermineMode("install.iso")
	assert.True(t, ok)
	assert.Equal(t, "isoinfo_l", mode)
	mode, ok = m.DetermineMode("stage3.tar.xz")
	assert.False(t, ok)
	assert.Empty(t, mode)
}
