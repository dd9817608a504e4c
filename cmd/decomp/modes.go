package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Defacto2/decomp"
	"github.com/Defacto2/decomp/definition"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// newModesCmd creates the modes command
func newModesCmd(opts *rootOpts) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "modes",
		Short: "List the modes of a definition table and whether their programs are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := definition.ParseKind(kind)
			if err != nil {
				return errors.Errorf("kind flag: %w", err)
			}
			m, err := opts.cfg.Map(cmd.Context(), k)
			if err != nil {
				return errors.Errorf("creating map: %w", err)
			}
			printModes(cmd.OutOrStdout(), m)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "decompress", "table to list, compress, decompress or contents")
	return cmd
}

// printModes writes one line for each mode of the map: the mode, its label,
// its extensions and whether the mode is enabled.
func printModes(w io.Writer, m *decomp.Map) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	faint := color.New(color.Faint)
	bold := color.New(color.Bold)

	fmt.Fprintf(w, "%s %s\n", bold.Sprint(m.Kind().String()), faint.Sprintf("search order: %s", strings.Join(m.SearchOrder(), " ")))
	for _, mode := range m.Modes() {
		state := green.Sprint("enabled")
		if !m.Enabled(mode) {
			state = red.Sprint("missing")
		}
		exts := strings.Join(m.Extension(mode, true), " ")
		if exts == "" {
			exts = "-"
		}
		fmt.Fprintf(w, "  %-14s %-10s %-28s %s\n", mode, label(m, mode), faint.Sprint(exts), state)
	}
}

func label(m *decomp.Map, mode string) string {
	if def, ok := m.Lookup(mode); ok && def.Label != "" {
		return def.Label
	}
	return strings.ToUpper(mode)
}
