package imdbtsv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/imdbtsv/domain/model"
)

// Parse reads a title dataset from r using workerCount parsing goroutines and
// default options otherwise.
//
// The first line of r is a header and is skipped. Every other line must hold
// exactly nine tab separated fields and end with a newline.
func Parse(r io.Reader, workerCount int) (*Titles, error) {
	if workerCount < 1 {
		return nil, NewErrorContext("parse", "").
			WithDetails("worker count must be positive, got %d", workerCount).
			Error(ErrInvalidOptions)
	}
	return ParseContext(context.Background(), r, NewParseOptions().WithWorkers(workerCount))
}

// ParseContext reads a title dataset from r as configured by opts.
//
// The calling goroutine fills the shared buffer and cuts it into line aligned
// ranges; opts.Workers goroutines parse the ranges concurrently and merge their
// records into the result. The run either completes or returns an error and no
// result:
//   - ErrIO when r fails
//   - ErrCapacityExceeded when the input does not fit the buffer
//   - ErrMalformedRange when a row does not have exactly nine fields
//   - ctx.Err() when ctx is cancelled
func ParseContext(ctx context.Context, r io.Reader, opts ParseOptions) (*Titles, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	logger := opts.logger()

	arena, err := model.NewArena(opts.BufferSize, opts.MaxBufferSize)
	if err != nil {
		return nil, NewErrorContext("allocate buffer", "").Error(fmt.Errorf("%w: %w", ErrInvalidOptions, err))
	}
	src := model.NewSource(arena, model.NewInternPool(opts.InternShards))
	agg := newAggregator(opts.MergeOrder)
	splitter := newRangeSplitter(arena, opts.chunkSize(), NewMemoryLimit(opts.MemoryLimitMB), logger)

	start := time.Now()
	logger.Debug("parse started",
		slog.Int("workers", opts.Workers),
		slog.Int("chunk_size", opts.chunkSize()),
		slog.Int("buffer_size", opts.BufferSize),
		slog.Int("buffer_limit", arena.Limit()),
		slog.String("merge_order", opts.MergeOrder.String()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	ranges := make(chan byteRange, opts.Workers*2)
	for range opts.Workers {
		g.Go(func() error {
			return runWorker(gctx, src, ranges, agg)
		})
	}

	splitErr := splitter.run(gctx, r, ranges)
	close(ranges)
	if splitErr != nil {
		cancel()
	}
	waitErr := g.Wait()

	if err := firstRunError(splitErr, waitErr); err != nil {
		logger.Error("parse failed", slog.Any("error", err))
		return nil, err
	}

	head, count := agg.result()
	titles := &Titles{
		head:  head,
		count: count,
		src:   src,
		stats: Stats{
			Workers:              opts.Workers,
			ChunkSize:            opts.chunkSize(),
			Ranges:               splitter.stats.ranges,
			InputBytes:           splitter.stats.inputBytes,
			HeaderBytes:          splitter.stats.headerBytes,
			DroppedTrailingBytes: splitter.stats.droppedBytes,
			BufferGrowths:        splitter.stats.grows,
			MergeOrder:           opts.MergeOrder,
			Elapsed:              time.Since(start),
		},
	}

	logger.Info("parse finished",
		slog.Int("records", count),
		slog.Int("ranges", splitter.stats.ranges),
		slog.Int("bytes", splitter.stats.inputBytes),
		slog.Int64("elapsed_ms", titles.stats.Elapsed.Milliseconds()))
	return titles, nil
}

// ParseFile parses a dataset file, decompressing it according to its extension
// (.gz, .bz2, .xz, .zst).
func ParseFile(ctx context.Context, path string, opts ParseOptions) (*Titles, error) {
	reader, err := openInput(path)
	if err != nil {
		return nil, NewErrorContext("open", path).Error(fmt.Errorf("%w: %w", ErrIO, err))
	}
	defer func() {
		_ = reader.Close() // Ignore close error, the run result is already decided
	}()

	titles, err := ParseContext(ctx, reader, opts)
	if err != nil {
		return nil, NewErrorContext("parse", path).Error(err)
	}
	return titles, nil
}

// firstRunError picks the error that caused a run to fail. A splitter stopped by
// the cancellation that a failing worker triggered reports the worker's error.
func firstRunError(splitErr, waitErr error) error {
	if splitErr != nil && !errors.Is(splitErr, context.Canceled) {
		return splitErr
	}
	if waitErr != nil {
		return waitErr
	}
	return splitErr
}
