package imdbtsv

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/nao1215/imdbtsv/domain/model"
)

// Buffer sizing constants
const (
	// DefaultBufferSize is the default initial parse buffer capacity (4MB). The
	// buffer doubles as needed up to DefaultMaxBufferSize.
	DefaultBufferSize = 4 * 1024 * 1024
	// DefaultMaxBufferSize is the default growth limit of the parse buffer
	DefaultMaxBufferSize = model.MaxArenaSize
	// MinChunkSize is the smallest accepted explicit chunk size
	MinChunkSize = 1
)

// MergeOrder selects the order in which per-range record chains are joined.
type MergeOrder int

const (
	// MergeOrderCompletion joins chains as workers finish them. Records keep their
	// order inside a range, but ranges appear in completion order.
	MergeOrderCompletion MergeOrder = iota
	// MergeOrderInput joins chains in the order their ranges appear in the input,
	// so the result follows the original file order.
	MergeOrderInput
)

// String returns the string representation of MergeOrder
func (o MergeOrder) String() string {
	switch o {
	case MergeOrderCompletion:
		return "completion"
	case MergeOrderInput:
		return "input"
	default:
		return "unknown"
	}
}

// ParseMergeOrder converts a name accepted by String back to a MergeOrder.
func ParseMergeOrder(s string) (MergeOrder, error) {
	switch s {
	case "completion", "":
		return MergeOrderCompletion, nil
	case "input":
		return MergeOrderInput, nil
	default:
		return MergeOrderCompletion, fmt.Errorf("%w: unknown merge order %q", ErrInvalidOptions, s)
	}
}

// ParseOptions configures a parse run.
//
// Example:
//
//	options := NewParseOptions().
//		WithWorkers(8).
//		WithBufferSize(1 << 30).
//		WithMergeOrder(MergeOrderInput)
//
//	titles, err := ParseContext(ctx, reader, options)
type ParseOptions struct {
	// Workers is the number of parsing goroutines
	Workers int
	// BufferSize is the initial capacity of the shared parse buffer in bytes
	BufferSize int
	// MaxBufferSize bounds buffer growth; equal to BufferSize means no growth
	MaxBufferSize int
	// ChunkSize overrides the target range size; 0 derives it from BufferSize and Workers
	ChunkSize int
	// MergeOrder selects how per-range results are joined
	MergeOrder MergeOrder
	// InternShards is the number of intern pool shards
	InternShards int
	// MemoryLimitMB stops buffer growth once the heap reaches this size; 0 disables the check
	MemoryLimitMB int64
	// Logger receives run diagnostics
	Logger *slog.Logger
}

// NewParseOptions creates default parse options: half of the available CPUs,
// a 4MB buffer that grows as far as a Span can address, and completion merge
// order. Use WithMemoryLimit to bound growth by heap size, or
// WithoutBufferGrowth to fail on input larger than the buffer.
func NewParseOptions() ParseOptions {
	return ParseOptions{
		Workers:       defaultWorkers(),
		BufferSize:    DefaultBufferSize,
		MaxBufferSize: DefaultMaxBufferSize,
		MergeOrder:    MergeOrderCompletion,
		InternShards:  model.DefaultInternShards,
		Logger:        slog.New(slog.DiscardHandler),
	}
}

func defaultWorkers() int {
	return max(1, runtime.NumCPU()/2)
}

// WithWorkers sets the number of parsing goroutines.
func (o ParseOptions) WithWorkers(workers int) ParseOptions {
	o.Workers = workers
	return o
}

// WithBufferSize sets the initial buffer capacity. A buffer that may grow keeps
// its growth limit; a fixed buffer stays fixed at the new size.
func (o ParseOptions) WithBufferSize(size int) ParseOptions {
	grows := o.MaxBufferSize > o.BufferSize
	o.BufferSize = size
	if !grows || o.MaxBufferSize < size {
		o.MaxBufferSize = size
	}
	return o
}

// WithBufferGrowth lets the buffer double in size up to maxSize bytes. A maxSize of
// zero or less allows growth up to model.MaxArenaSize.
func (o ParseOptions) WithBufferGrowth(maxSize int) ParseOptions {
	if maxSize <= 0 {
		maxSize = model.MaxArenaSize
	}
	o.MaxBufferSize = maxSize
	return o
}

// WithoutBufferGrowth fixes the buffer at its initial capacity. Input that does
// not fit fails with ErrCapacityExceeded.
func (o ParseOptions) WithoutBufferGrowth() ParseOptions {
	o.MaxBufferSize = o.BufferSize
	return o
}

// WithChunkSize sets the target number of bytes per range.
func (o ParseOptions) WithChunkSize(size int) ParseOptions {
	o.ChunkSize = size
	return o
}

// WithMergeOrder selects how per-range results are joined.
func (o ParseOptions) WithMergeOrder(order MergeOrder) ParseOptions {
	o.MergeOrder = order
	return o
}

// WithInternShards sets the number of intern pool shards.
func (o ParseOptions) WithInternShards(shards int) ParseOptions {
	o.InternShards = shards
	return o
}

// WithMemoryLimit stops buffer growth once the heap reaches limitMB megabytes.
func (o ParseOptions) WithMemoryLimit(limitMB int64) ParseOptions {
	o.MemoryLimitMB = limitMB
	return o
}

// WithLogger sets the diagnostics logger. A nil logger discards output.
func (o ParseOptions) WithLogger(logger *slog.Logger) ParseOptions {
	o.Logger = logger
	return o
}

// chunkSize returns ceil(BufferSize / Workers) unless overridden.
func (o ParseOptions) chunkSize() int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	return (o.BufferSize + o.Workers - 1) / o.Workers
}

func (o ParseOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

func (o ParseOptions) validate() error {
	ec := NewErrorContext("validate options", "")
	switch {
	case o.Workers < 1:
		return ec.WithDetails("worker count must be positive, got %d", o.Workers).Error(ErrInvalidOptions)
	case o.BufferSize < 1:
		return ec.WithDetails("buffer size must be positive, got %d", o.BufferSize).Error(ErrInvalidOptions)
	case o.BufferSize > model.MaxArenaSize:
		return ec.WithDetails("buffer size %d exceeds %d", o.BufferSize, model.MaxArenaSize).Error(ErrInvalidOptions)
	case o.MaxBufferSize < o.BufferSize:
		return ec.WithDetails("max buffer size %d below buffer size %d", o.MaxBufferSize, o.BufferSize).Error(ErrInvalidOptions)
	case o.ChunkSize < 0:
		return ec.WithDetails("chunk size must not be negative, got %d", o.ChunkSize).Error(ErrInvalidOptions)
	case o.MergeOrder != MergeOrderCompletion && o.MergeOrder != MergeOrderInput:
		return ec.WithDetails("unknown merge order %d", int(o.MergeOrder)).Error(ErrInvalidOptions)
	case o.MemoryLimitMB < 0:
		return ec.WithDetails("memory limit must not be negative, got %d", o.MemoryLimitMB).Error(ErrInvalidOptions)
	}
	return nil
}
