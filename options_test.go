package imdbtsv

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/imdbtsv/domain/model"
)

func TestNewParseOptions(t *testing.T) {
	t.Parallel()

	opts := NewParseOptions()
	assert.GreaterOrEqual(t, opts.Workers, 1)
	assert.Equal(t, DefaultBufferSize, opts.BufferSize)
	assert.Equal(t, model.MaxArenaSize, opts.MaxBufferSize, "growth is on by default")
	assert.Zero(t, opts.ChunkSize)
	assert.Equal(t, MergeOrderCompletion, opts.MergeOrder)
	assert.Equal(t, model.DefaultInternShards, opts.InternShards)
	assert.NotNil(t, opts.Logger)
	require.NoError(t, opts.validate())
}

func TestParseOptions_Buffer(t *testing.T) {
	t.Parallel()

	t.Run("buffer size keeps default growth", func(t *testing.T) {
		t.Parallel()
		opts := NewParseOptions().WithBufferSize(1024)
		assert.Equal(t, 1024, opts.BufferSize)
		assert.Equal(t, DefaultMaxBufferSize, opts.MaxBufferSize)
	})

	t.Run("fixed buffer", func(t *testing.T) {
		t.Parallel()
		opts := NewParseOptions().WithBufferSize(1024).WithoutBufferGrowth()
		assert.Equal(t, 1024, opts.MaxBufferSize)

		// A fixed buffer stays fixed when resized.
		opts = opts.WithBufferSize(2048)
		assert.Equal(t, 2048, opts.BufferSize)
		assert.Equal(t, 2048, opts.MaxBufferSize)
	})

	t.Run("growth before buffer size", func(t *testing.T) {
		t.Parallel()
		opts := NewParseOptions().WithoutBufferGrowth().WithBufferGrowth(1 << 20).WithBufferSize(1024)
		assert.Equal(t, 1024, opts.BufferSize)
		assert.Equal(t, 1<<20, opts.MaxBufferSize)
	})

	t.Run("growth after buffer size", func(t *testing.T) {
		t.Parallel()
		opts := NewParseOptions().WithBufferSize(1024).WithBufferGrowth(4096)
		assert.Equal(t, 4096, opts.MaxBufferSize)
	})

	t.Run("unbounded growth", func(t *testing.T) {
		t.Parallel()
		opts := NewParseOptions().WithBufferGrowth(0)
		assert.Equal(t, model.MaxArenaSize, opts.MaxBufferSize)
	})
}

func TestParseOptions_ChunkSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts ParseOptions
		want int
	}{
		{name: "even split", opts: NewParseOptions().WithBufferSize(1000).WithWorkers(4), want: 250},
		{name: "rounds up", opts: NewParseOptions().WithBufferSize(1000).WithWorkers(3), want: 334},
		{name: "single worker", opts: NewParseOptions().WithBufferSize(1000).WithWorkers(1), want: 1000},
		{name: "override", opts: NewParseOptions().WithBufferSize(1000).WithWorkers(4).WithChunkSize(64), want: 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.opts.chunkSize())
		})
	}
}

func TestParseOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts ParseOptions
	}{
		{name: "zero workers", opts: NewParseOptions().WithWorkers(0)},
		{name: "negative workers", opts: NewParseOptions().WithWorkers(-1)},
		{name: "zero buffer", opts: NewParseOptions().WithBufferSize(0)},
		{name: "negative chunk", opts: NewParseOptions().WithChunkSize(-1)},
		{name: "unknown merge order", opts: NewParseOptions().WithMergeOrder(MergeOrder(9))},
		{name: "negative memory limit", opts: NewParseOptions().WithMemoryLimit(-1)},
		{
			name: "max below initial",
			opts: ParseOptions{Workers: 1, BufferSize: 1024, MaxBufferSize: 512},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, tt.opts.validate(), ErrInvalidOptions)
		})
	}
}

func TestParseOptions_Logger(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, NewParseOptions().WithLogger(nil).logger())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts := NewParseOptions().WithLogger(logger).WithWorkers(2).WithBufferSize(1 << 16)

	_, err := ParseContext(t.Context(), bytes.NewReader([]byte(testDataset(10))), opts)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "parse started")
	assert.Contains(t, buf.String(), "parse finished")
	assert.Contains(t, buf.String(), "records=10")
}

func TestMergeOrder(t *testing.T) {
	t.Parallel()

	for _, order := range []MergeOrder{MergeOrderCompletion, MergeOrderInput} {
		got, err := ParseMergeOrder(order.String())
		require.NoError(t, err)
		assert.Equal(t, order, got)
	}
	assert.Equal(t, "unknown", MergeOrder(5).String())

	_, err := ParseMergeOrder("random")
	require.ErrorIs(t, err, ErrInvalidOptions)
}
