package imdbtsv

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v18/arrow/array"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDumpTitles_TSV(t *testing.T) {
	t.Parallel()

	data := testDataset(100)
	titles := parseTestTitles(t, 100)

	var buf bytes.Buffer
	require.NoError(t, DumpTitles(&buf, titles, NewDumpOptions()))
	assert.Equal(t, data, buf.String(), "input ordered TSV export reproduces the source")
}

func TestDumpTitles_CSV(t *testing.T) {
	t.Parallel()

	titles, err := Parse(strings.NewReader(testHeader+carmencita), 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, DumpTitles(&buf, titles, NewDumpOptions().WithFormat(OutputFormatCSV)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "tconst", records[0][0])
	assert.Equal(t, []string{"tt0000001", "short", "Carmencita", "Carmencita", "0", "1894", `\N`, "1", "Documentary,Short"}, records[1])
}

func TestDumpTitles_LTSV(t *testing.T) {
	t.Parallel()

	titles, err := Parse(strings.NewReader(testHeader+carmencita), 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, DumpTitles(&buf, titles, NewDumpOptions().WithFormat(OutputFormatLTSV)))
	assert.Equal(t,
		"tconst:tt0000001\ttitleType:short\tprimaryTitle:Carmencita\toriginalTitle:Carmencita\t"+
			"isAdult:0\tstartYear:1894\tendYear:\\N\truntimeMinutes:1\tgenres:Documentary,Short\n",
		buf.String())
}

func TestDumpTitles_Parquet(t *testing.T) {
	t.Parallel()

	const rows = 70000 // more than one record batch
	titles := parseTestTitles(t, rows)

	var buf bytes.Buffer
	require.NoError(t, DumpTitles(&buf, titles, NewDumpOptions().WithFormat(OutputFormatParquet)))

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, nil)
	require.NoError(t, err)

	table, err := arrowReader.ReadTable(context.Background())
	require.NoError(t, err)
	defer table.Release()

	require.Equal(t, int64(rows), table.NumRows())
	require.Equal(t, int64(9), table.NumCols())
	assert.Equal(t, "tconst", table.Schema().Field(0).Name)
	assert.Equal(t, "genres", table.Schema().Field(8).Name)

	tableReader := array.NewTableReader(table, 0)
	defer tableReader.Release()
	require.True(t, tableReader.Next())
	batch := tableReader.Record()

	tconst, ok := batch.Column(0).(*array.String)
	require.True(t, ok)
	assert.Equal(t, "tt0000001", tconst.Value(0))

	endYear, ok := batch.Column(6).(*array.String)
	require.True(t, ok)
	assert.True(t, endYear.IsNull(0), "null marker becomes a parquet null")

	genres, ok := batch.Column(8).(*array.String)
	require.True(t, ok)
	assert.Equal(t, testGenres[1], genres.Value(0))
}

func TestDumpTitles_XLSX(t *testing.T) {
	t.Parallel()

	titles := parseTestTitles(t, 20)

	var buf bytes.Buffer
	require.NoError(t, DumpTitles(&buf, titles, NewDumpOptions().WithFormat(OutputFormatXLSX)))

	xlsxFile, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer xlsxFile.Close()

	sheetRows, err := xlsxFile.GetRows(xlsxSheetName)
	require.NoError(t, err)
	require.Len(t, sheetRows, 21)
	assert.Equal(t, "tconst", sheetRows[0][0])
	assert.Equal(t, "tt0000001", sheetRows[1][0])
	assert.Equal(t, "Title 20", sheetRows[20][2])
}

func TestDumpTitles_Compressed(t *testing.T) {
	t.Parallel()

	data := testDataset(50)
	titles := parseTestTitles(t, 50)

	for _, compression := range []CompressionType{CompressionGZ, CompressionXZ, CompressionZSTD} {
		t.Run(compression.String(), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			require.NoError(t, DumpTitles(&buf, titles, NewDumpOptions().WithCompression(compression)))

			r, err := compression.NewReader(&buf)
			require.NoError(t, err)
			defer r.Close()
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, data, string(got))
		})
	}

	t.Run("bzip2 is rejected", func(t *testing.T) {
		t.Parallel()
		err := DumpTitles(io.Discard, titles, NewDumpOptions().WithCompression(CompressionBZ2))
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("unknown format is rejected", func(t *testing.T) {
		t.Parallel()
		err := DumpTitles(io.Discard, titles, NewDumpOptions().WithFormat(OutputFormat(42)))
		require.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestDumpTitlesToFile(t *testing.T) {
	t.Parallel()

	titles := parseTestTitles(t, 30)
	outputDir := filepath.Join(t.TempDir(), "nested", "out")

	path, err := DumpTitlesToFile(titles, outputDir, "title.basics",
		NewDumpOptions().WithFormat(OutputFormatCSV).WithCompression(CompressionGZ))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "title.basics.csv.gz"), path)

	_, err = os.Stat(path)
	require.NoError(t, err)

	r, err := openInput(path)
	require.NoError(t, err)
	defer r.Close()
	records, err := csv.NewReader(r).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 31)
}

func TestDumpTitlesToFile_ParseBack(t *testing.T) {
	t.Parallel()

	titles := parseTestTitles(t, 500)
	path, err := DumpTitlesToFile(titles, t.TempDir(), "roundtrip",
		NewDumpOptions().WithCompression(CompressionZSTD))
	require.NoError(t, err)

	again, err := ParseFile(context.Background(), path, smallOptions(4).WithMergeOrder(MergeOrderInput))
	require.NoError(t, err)
	require.Equal(t, titles.Len(), again.Len())

	want := titles.Slice()
	for i, title := range again.Slice() {
		assert.Equal(t, want[i].Values(), title.Values())
	}
}

func TestDumpTitles_XLSXRowLimit(t *testing.T) {
	t.Parallel()

	// Only the count matters; the limit is checked before any row is written.
	titles := &Titles{count: xlsxMaxDataRows + 1}
	err := DumpTitles(io.Discard, titles, NewDumpOptions().WithFormat(OutputFormatXLSX))
	require.ErrorIs(t, err, ErrXLSXRowLimit)
}
