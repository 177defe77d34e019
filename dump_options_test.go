package imdbtsv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormat_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format OutputFormat
		want   string
	}{
		{name: "TSV format", format: OutputFormatTSV, want: "tsv"},
		{name: "CSV format", format: OutputFormatCSV, want: "csv"},
		{name: "LTSV format", format: OutputFormatLTSV, want: "ltsv"},
		{name: "Parquet format", format: OutputFormatParquet, want: "parquet"},
		{name: "XLSX format", format: OutputFormatXLSX, want: "xlsx"},
		{name: "Unknown format defaults to tsv", format: OutputFormat(999), want: "tsv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.format.String(); got != tt.want {
				t.Errorf("OutputFormat.String() = %v, want %v", got, tt.want)
			}
			if got := tt.format.Extension(); got != "."+tt.want {
				t.Errorf("OutputFormat.Extension() = %v, want %v", got, "."+tt.want)
			}
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	for _, f := range []OutputFormat{OutputFormatTSV, OutputFormatCSV, OutputFormatLTSV, OutputFormatParquet, OutputFormatXLSX} {
		got, err := ParseOutputFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	got, err := ParseOutputFormat("PARQUET")
	require.NoError(t, err)
	assert.Equal(t, OutputFormatParquet, got)

	_, err = ParseOutputFormat("json")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCompressionType_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		compression CompressionType
		want        string
		extension   string
	}{
		{name: "No compression", compression: CompressionNone, want: "none", extension: ""},
		{name: "Gzip", compression: CompressionGZ, want: "gz", extension: ".gz"},
		{name: "Bzip2", compression: CompressionBZ2, want: "bz2", extension: ".bz2"},
		{name: "XZ", compression: CompressionXZ, want: "xz", extension: ".xz"},
		{name: "ZSTD", compression: CompressionZSTD, want: "zstd", extension: ".zst"},
		{name: "Unknown defaults to none", compression: CompressionType(999), want: "none", extension: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.compression.String(); got != tt.want {
				t.Errorf("CompressionType.String() = %v, want %v", got, tt.want)
			}
			if got := tt.compression.Extension(); got != tt.extension {
				t.Errorf("CompressionType.Extension() = %v, want %v", got, tt.extension)
			}
		})
	}
}

func TestParseCompressionType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want CompressionType
	}{
		{in: "", want: CompressionNone},
		{in: "none", want: CompressionNone},
		{in: "gzip", want: CompressionGZ},
		{in: "GZ", want: CompressionGZ},
		{in: "bzip2", want: CompressionBZ2},
		{in: "xz", want: CompressionXZ},
		{in: "zst", want: CompressionZSTD},
		{in: "zstd", want: CompressionZSTD},
	}
	for _, tt := range tests {
		got, err := ParseCompressionType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseCompressionType("lz4")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDumpOptions(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		opts := NewDumpOptions()
		assert.Equal(t, OutputFormatTSV, opts.Format)
		assert.Equal(t, CompressionNone, opts.Compression)
		assert.Equal(t, ".tsv", opts.FileExtension())
	})

	t.Run("chained methods", func(t *testing.T) {
		t.Parallel()
		base := NewDumpOptions()
		opts := base.WithFormat(OutputFormatParquet).WithCompression(CompressionZSTD)
		assert.Equal(t, ".parquet.zst", opts.FileExtension())
		assert.Equal(t, OutputFormatTSV, base.Format, "options are values")
	})

	t.Run("file extensions", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			opts DumpOptions
			want string
		}{
			{opts: NewDumpOptions().WithFormat(OutputFormatCSV).WithCompression(CompressionGZ), want: ".csv.gz"},
			{opts: NewDumpOptions().WithFormat(OutputFormatLTSV).WithCompression(CompressionXZ), want: ".ltsv.xz"},
			{opts: NewDumpOptions().WithFormat(OutputFormatXLSX), want: ".xlsx"},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.want, tt.opts.FileExtension())
		}
	})
}
