package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	verbose bool
	quiet   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "imdbtsv",
		Short:         "Parse the IMDb title.basics dataset on all cores",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug diagnostics to stderr")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors")

	cmd.AddCommand(newParseCmd(opts), newFetchCmd(opts))
	return cmd
}

// logger builds the stderr logger selected by the verbosity flags.
func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case o.verbose:
		level = slog.LevelDebug
	case o.quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
