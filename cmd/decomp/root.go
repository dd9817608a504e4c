package main

import (
	"io"
	"os"

	"github.com/Defacto2/decomp/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// rootOpts are the persistent flags and the configuration shared by the commands.
type rootOpts struct {
	configFile string
	debug      bool
	flavor     string
	separator  string
	jobs       int
	logFile    string

	console io.Writer // console receives the human readable log, the default is stderr.
	file    *os.File
	cfg     *config.Config
}

func newRootCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decomp",
		Short: "Compress, extract and list archives using the installed programs",
		Long: `decomp runs tar, zstd, xz, mksquashfs and the other archivers found on the system
using a table of command line templates for each compression mode.
A mode named auto picks the program from the file extension.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}
	addRootFlags(cmd, opts)
	cmd.AddCommand(
		newCompressCmd(opts),
		newExtractCmd(opts),
		newContentsCmd(opts),
		newRsyncCmd(opts),
		newModesCmd(opts),
	)
	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, opts *rootOpts) {
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", config.DefaultFile, "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.flavor, "flavor", "", "tar flavor, gnu or bsd")
	cmd.PersistentFlags().StringVar(&opts.separator, "separator", "", "separator placed before an automatic extension")
	cmd.PersistentFlags().IntVarP(&opts.jobs, "jobs", "j", 0, "number of archives processed at once")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "also append the log as timestamped JSON lines to this file")
}

// openLog replaces the logger of the command context with one that writes
// to both the console and the log file, keeping the current level.
func (opts *rootOpts) openLog(cmd *cobra.Command) error {
	ctx := cmd.Context()
	f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Errorf("opening log file: %w", err)
	}
	opts.file = f
	console := opts.console
	if console == nil {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	level := zerolog.Ctx(ctx).GetLevel()
	if level == zerolog.Disabled {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.MultiLevelWriter(console, f)).
		With().Timestamp().Logger().Level(level)
	cmd.SetContext(logger.WithContext(ctx))
	return nil
}

// close closes the log file, if there is one.
func (opts *rootOpts) close() error {
	if opts.file == nil {
		return nil
	}
	err := opts.file.Close()
	opts.file = nil
	return err
}

// setup loads the configuration and applies the flags that replace its values.
func (opts *rootOpts) setup(cmd *cobra.Command) error {
	if opts.logFile != "" {
		if err := opts.openLog(cmd); err != nil {
			return err
		}
	}
	ctx := cmd.Context()
	if opts.debug {
		ctx = zerolog.Ctx(ctx).Level(zerolog.DebugLevel).WithContext(ctx)
		cmd.SetContext(ctx)
	}
	cfg, err := config.Load(ctx, opts.configFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("flavor") {
		cfg.Flavor = opts.flavor
	}
	if flags.Changed("separator") {
		cfg.Separator = opts.separator
	}
	if flags.Changed("jobs") {
		cfg.Jobs = opts.jobs
	}
	if cfg.Debug && !opts.debug {
		ctx = zerolog.Ctx(ctx).Level(zerolog.DebugLevel).WithContext(ctx)
		cmd.SetContext(ctx)
	}
	if err := config.Validate(ctx, cfg); err != nil {
		return errors.Errorf("checking flags: %w", err)
	}
	opts.cfg = cfg
	return nil
}
