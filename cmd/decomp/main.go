// Decomp is the command line interface to the decomp package,
// it compresses, extracts and lists archives using the installed programs.
package main

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	console := setupLogging()
	ctx := log.Logger.WithContext(context.Background())

	opts := &rootOpts{console: console}
	rootCmd := newRootCmd(opts)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		log.Error().Err(err).Msg("command failed")
	}
	if cerr := opts.close(); cerr != nil {
		log.Error().Err(cerr).Msg("closing log file")
	}
	if err != nil {
		os.Exit(1)
	}
}

// setupLogging writes the human readable log to stderr and returns its writer.
// The level is lowered by the --debug flag once the flags are parsed,
// and the --log-file flag adds a file to the output.
func setupLogging() io.Writer {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	log.Logger = zerolog.New(console).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	return console
}
