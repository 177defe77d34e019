package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/imdbtsv"
)

type parseOptions struct {
	workers      int
	bufferSize   int
	fixed        bool
	maxBuffer    int
	chunkSize    int
	order        string
	internShards int
	memoryMB     int64
	outDir       string
	format       string
	compress     string
	query        string
}

func newParseCmd(root *rootOptions) *cobra.Command {
	defaults := imdbtsv.NewParseOptions()
	opts := &parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse a dataset file (optionally compressed) or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultDatasetFile
			if len(args) == 1 {
				path = args[0]
			}
			return runParse(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), root, opts, path)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.workers, "workers", "w", defaults.Workers, "number of parsing goroutines")
	flags.IntVar(&opts.bufferSize, "buffer-size", defaults.BufferSize, "initial parse buffer size in bytes")
	flags.BoolVar(&opts.fixed, "fixed-buffer", false, "fail instead of growing the buffer when the input is larger")
	flags.IntVar(&opts.maxBuffer, "max-buffer-size", 0, "buffer growth limit in bytes, 0 for no limit")
	flags.IntVar(&opts.chunkSize, "chunk-size", 0, "target range size in bytes, 0 derives it from the buffer size")
	flags.StringVar(&opts.order, "order", imdbtsv.MergeOrderCompletion.String(), "result order: completion or input")
	flags.IntVar(&opts.internShards, "intern-shards", defaults.InternShards, "number of intern pool shards")
	flags.Int64Var(&opts.memoryMB, "memory-limit", 0, "stop buffer growth at this heap size in MB, 0 disables")
	flags.StringVarP(&opts.outDir, "out", "o", "", "export parsed titles into this directory")
	flags.StringVar(&opts.format, "format", imdbtsv.OutputFormatTSV.String(), "export format: tsv, csv, ltsv, parquet or xlsx")
	flags.StringVar(&opts.compress, "compress", "none", "export compression: none, gz, xz or zstd")
	flags.StringVar(&opts.query, "query", "", "run a SQL query against the title_basics table")
	return cmd
}

func (o *parseOptions) build(root *rootOptions, stderr io.Writer) (imdbtsv.ParseOptions, error) {
	order, err := imdbtsv.ParseMergeOrder(o.order)
	if err != nil {
		return imdbtsv.ParseOptions{}, err
	}

	opts := imdbtsv.NewParseOptions().
		WithWorkers(o.workers).
		WithBufferSize(o.bufferSize).
		WithChunkSize(o.chunkSize).
		WithMergeOrder(order).
		WithInternShards(o.internShards).
		WithMemoryLimit(o.memoryMB).
		WithLogger(root.logger(stderr))
	switch {
	case o.fixed:
		opts = opts.WithoutBufferGrowth()
	case o.maxBuffer > 0:
		opts = opts.WithBufferGrowth(o.maxBuffer)
	}
	return opts, nil
}

func runParse(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, root *rootOptions, o *parseOptions, path string) error {
	opts, err := o.build(root, stderr)
	if err != nil {
		return err
	}

	var titles *imdbtsv.Titles
	if path == "-" {
		titles, err = imdbtsv.ParseContext(ctx, stdin, opts)
	} else {
		titles, err = imdbtsv.ParseFile(ctx, path, opts)
	}
	if err != nil {
		return err
	}

	stats := titles.Stats()
	fmt.Fprintf(stdout, "Found %d titles in %dms\n", titles.Len(), stats.Elapsed.Milliseconds())

	if o.outDir != "" {
		if err := exportTitles(titles, o, path, stdout); err != nil {
			return err
		}
	}
	if o.query != "" {
		return queryTitles(ctx, titles, o.query, stdout)
	}
	return nil
}

func exportTitles(titles *imdbtsv.Titles, o *parseOptions, inputPath string, stdout io.Writer) error {
	format, err := imdbtsv.ParseOutputFormat(o.format)
	if err != nil {
		return err
	}
	compression, err := imdbtsv.ParseCompressionType(o.compress)
	if err != nil {
		return err
	}

	base := "title.basics"
	if inputPath != "-" {
		base = filepath.Base(imdbtsv.TrimCompressionExtension(inputPath))
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}

	written, err := imdbtsv.DumpTitlesToFile(titles, o.outDir, base,
		imdbtsv.NewDumpOptions().WithFormat(format).WithCompression(compression))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", written)
	return nil
}

func queryTitles(ctx context.Context, titles *imdbtsv.Titles, query string, stdout io.Writer) error {
	db, err := imdbtsv.OpenSQLite(ctx, titles)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, strings.Join(columns, "\t"))

	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	line := make([]string, len(columns))
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
		for i, v := range values {
			if v.Valid {
				line[i] = v.String
			} else {
				line[i] = `\N`
			}
		}
		fmt.Fprintln(stdout, strings.Join(line, "\t"))
	}
	return rows.Err()
}
