package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Defacto2/decomp"
	"github.com/Defacto2/decomp/definition"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

var ErrNoMatch = errors.New("pattern matched no files")

// operateOpts are the flags shared by the archive commands.
type operateOpts struct {
	mode    string
	options []string
}

func (o *operateOpts) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.mode, "mode", "m", decomp.Auto, "compression mode, auto picks it from the file extension")
	cmd.Flags().StringArrayVarP(&o.options, "option", "o", nil, "extra option passed to the program, can be repeated")
}

// newCompressCmd creates the compress command
func newCompressCmd(opts *rootOpts) *cobra.Command {
	var (
		op      operateOpts
		basedir string
		autoExt bool
		arch    string
	)
	cmd := &cobra.Command{
		Use:   "compress SOURCE FILENAME",
		Short: "Create the FILENAME archive of the SOURCE directory",
		Long: `Compress creates the FILENAME archive of the SOURCE directory or file.
SOURCE is relative to the --basedir directory, which defaults to the current directory.
With --auto-ext the extension of the mode is appended to FILENAME.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "compress").Logger().WithContext(cmd.Context())
			m, err := opts.cfg.Map(ctx, definition.Compression)
			if err != nil {
				return errors.Errorf("creating map: %w", err)
			}
			p := decomp.Params{
				Source:   args[0],
				Filename: args[1],
				Basedir:  basedir,
				Mode:     op.mode,
				AutoExt:  autoExt,
				Arch:     arch,
				Options:  op.options,
			}
			if err := m.Compress(ctx, p); err != nil {
				return errors.Errorf("compressing %s: %w", p.Source, err)
			}
			return nil
		},
	}
	op.addFlags(cmd)
	cmd.Flags().StringVarP(&basedir, "basedir", "b", decomp.Basedir, "directory that contains the SOURCE")
	cmd.Flags().BoolVarP(&autoExt, "auto-ext", "a", false, "append the extension of the mode to FILENAME")
	cmd.Flags().StringVar(&arch, "arch", "", "squashfs branch-call-jump filter, such as x86 or arm")
	return cmd
}

// newExtractCmd creates the extract command
func newExtractCmd(opts *rootOpts) *cobra.Command {
	var (
		op   operateOpts
		dest string
	)
	cmd := &cobra.Command{
		Use:   "extract SOURCE...",
		Short: "Extract the SOURCE archives into the destination directory",
		Long: `Extract decompresses each SOURCE archive into the --destination directory.
A SOURCE can be a glob pattern such as "dist/**/*.tar.gz".
Up to --jobs archives are extracted at once.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "extract").Logger().WithContext(cmd.Context())
			m, err := opts.cfg.Map(ctx, definition.Decompression)
			if err != nil {
				return errors.Errorf("creating map: %w", err)
			}
			sources, err := expand(args)
			if err != nil {
				return err
			}
			_, err = each(ctx, opts.cfg.Jobs, sources, func(ctx context.Context, src string) (string, error) {
				p := decomp.Params{
					Source:      src,
					Destination: dest,
					Mode:        op.mode,
					Options:     op.options,
				}
				if err := m.Extract(ctx, p); err != nil {
					return "", errors.Errorf("extracting %s: %w", src, err)
				}
				zerolog.Ctx(ctx).Info().Str("source", src).Str("destination", dest).Msg("extracted")
				return "", nil
			})
			return err
		},
	}
	op.addFlags(cmd)
	cmd.Flags().StringVarP(&dest, "destination", "C", ".", "directory to extract into")
	return cmd
}

// newContentsCmd creates the contents command
func newContentsCmd(opts *rootOpts) *cobra.Command {
	var op operateOpts
	cmd := &cobra.Command{
		Use:   "contents SOURCE...",
		Short: "Print the content listing of the SOURCE archives",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "contents").Logger().WithContext(cmd.Context())
			m, err := opts.cfg.Map(ctx, definition.Listing)
			if err != nil {
				return errors.Errorf("creating map: %w", err)
			}
			sources, err := expand(args)
			if err != nil {
				return err
			}
			listings, err := each(ctx, opts.cfg.Jobs, sources, func(ctx context.Context, src string) (string, error) {
				out, err := m.Contents(ctx, decomp.Params{Source: src, Mode: op.mode, Options: op.options})
				if err != nil {
					return "", errors.Errorf("listing %s: %w", src, err)
				}
				return out, nil
			})
			w := cmd.OutOrStdout()
			for i, out := range listings {
				if out == "" {
					continue
				}
				if len(sources) > 1 {
					fmt.Fprintf(w, "%s:\n", sources[i])
				}
				fmt.Fprint(w, out)
				if !strings.HasSuffix(out, "\n") {
					fmt.Fprintln(w)
				}
			}
			return err
		},
	}
	op.addFlags(cmd)
	return cmd
}

// newRsyncCmd creates the rsync command
func newRsyncCmd(opts *rootOpts) *cobra.Command {
	var options []string
	cmd := &cobra.Command{
		Use:   "rsync SOURCE DESTINATION",
		Short: "Mirror the SOURCE to the DESTINATION using rsync",
		Long: `Rsync runs rsync -a --delete, so files in the DESTINATION
that are not in the SOURCE are removed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "rsync").Logger().WithContext(cmd.Context())
			m, err := opts.cfg.Map(ctx, definition.Compression)
			if err != nil {
				return errors.Errorf("creating map: %w", err)
			}
			p := decomp.Params{Source: args[0], Destination: args[1], Options: options}
			if err := m.Rsync(ctx, p); err != nil {
				return errors.Errorf("mirroring %s: %w", p.Source, err)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&options, "option", "o", nil, "extra option passed to rsync, can be repeated")
	return cmd
}

// expand replaces the glob patterns of args with the matching file paths.
// Arguments that are not patterns are kept as they are.
func expand(args []string) ([]string, error) {
	sources := make([]string, 0, len(args))
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			sources = append(sources, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Errorf("pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, errors.Errorf("%w: %q", ErrNoMatch, arg)
		}
		sources = append(sources, matches...)
	}
	return sources, nil
}

// each runs fn for every source with at most jobs running at once,
// the results are returned in the order of the sources.
// The first error cancels the sources that have not started.
func each(ctx context.Context, jobs int, sources []string, fn func(context.Context, string) (string, error)) ([]string, error) {
	results := make([]string, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := fn(ctx, src)
			results[i] = out
			return err
		})
	}
	return results, g.Wait()
}
