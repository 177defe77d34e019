package imdbtsv

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/xuri/excelize/v2"

	"github.com/nao1215/imdbtsv/domain/model"
)

const (
	// parquetBatchRows is the number of rows per Arrow record written to Parquet
	parquetBatchRows = 64 * 1024
	// xlsxMaxDataRows is the worksheet row limit minus the header row
	xlsxMaxDataRows = 1048576 - 1
	// xlsxSheetName is the worksheet that receives the titles
	xlsxSheetName = "Sheet1"
)

// DumpTitles writes titles to w in the format and compression of opts. Records
// are written in collection order.
func DumpTitles(w io.Writer, titles *Titles, opts DumpOptions) error {
	writer, err := opts.Compression.NewWriter(w)
	if err != nil {
		return NewErrorContext("dump", "").Error(err)
	}

	if err := writeFormat(writer, titles, opts.Format); err != nil {
		_ = writer.Close() // Ignore close error, the write error is returned
		return NewErrorContext("dump", "").WithDetails("format %s", opts.Format).Error(err)
	}
	if err := writer.Close(); err != nil {
		return NewErrorContext("dump", "").WithDetails("flush %s", opts.Compression).Error(err)
	}
	return nil
}

// DumpTitlesToFile writes titles to outputDir/baseName plus the extension derived
// from opts, creating outputDir if needed. It returns the written path.
func DumpTitlesToFile(titles *Titles, outputDir, baseName string, opts DumpOptions) (string, error) {
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return "", NewErrorContext("dump", outputDir).Error(err)
	}

	path := filepath.Join(outputDir, baseName+opts.FileExtension())
	writer, err := createOutput(path, opts.Compression)
	if err != nil {
		return "", NewErrorContext("dump", path).Error(err)
	}

	if err := writeFormat(writer, titles, opts.Format); err != nil {
		_ = writer.Close() // Ignore close error, the write error is returned
		return "", NewErrorContext("dump", path).WithDetails("format %s", opts.Format).Error(err)
	}
	if err := writer.Close(); err != nil {
		return "", NewErrorContext("dump", path).Error(err)
	}
	return path, nil
}

func writeFormat(w io.Writer, titles *Titles, format OutputFormat) error {
	switch format {
	case OutputFormatTSV:
		return writeTSV(w, titles)
	case OutputFormatCSV:
		return writeCSV(w, titles)
	case OutputFormatLTSV:
		return writeLTSV(w, titles)
	case OutputFormatParquet:
		return writeParquet(w, titles)
	case OutputFormatXLSX:
		return writeXLSX(w, titles)
	default:
		return fmt.Errorf("%w: output format %d", ErrUnsupportedFormat, int(format))
	}
}

// writeTSV reproduces the source layout from the raw field bytes.
func writeTSV(w io.Writer, titles *Titles) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(model.Columns(), "\t") + "\n"); err != nil {
		return err
	}
	for title := range titles.All() {
		for i := range model.ColumnCount {
			if i > 0 {
				_ = bw.WriteByte(fieldDelimiter)
			}
			_, _ = bw.Write(title.Raw(model.Column(i)))
		}
		if err := bw.WriteByte(recordDelimiter); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeCSV(w io.Writer, titles *Titles) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.Columns()); err != nil {
		return err
	}
	for title := range titles.All() {
		if err := cw.Write(title.Values()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeLTSV(w io.Writer, titles *Titles) error {
	bw := bufio.NewWriter(w)
	names := model.Columns()
	for title := range titles.All() {
		for i, name := range names {
			if i > 0 {
				_ = bw.WriteByte(fieldDelimiter)
			}
			_, _ = bw.WriteString(name)
			_ = bw.WriteByte(':')
			_, _ = bw.Write(title.Raw(model.Column(i)))
		}
		if err := bw.WriteByte(recordDelimiter); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// writerOnly hides Close from writers that would otherwise be closed by the
// Parquet file writer; closing stays with the caller.
type writerOnly struct {
	io.Writer
}

// titleSchema is the Arrow schema of a title: one nullable string per column.
func titleSchema() *arrow.Schema {
	fields := make([]arrow.Field, model.ColumnCount)
	for i, name := range model.Columns() {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

// writeParquet writes one string column per field; the null marker becomes a
// Parquet null.
func writeParquet(w io.Writer, titles *Titles) error {
	schema := titleSchema()
	fw, err := pqarrow.NewFileWriter(schema, writerOnly{w}, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	flush := func() error {
		record := builder.NewRecord()
		defer record.Release()
		return fw.Write(record)
	}

	rows := 0
	for title := range titles.All() {
		for i := range model.ColumnCount {
			col := model.Column(i)
			sb, ok := builder.Field(i).(*array.StringBuilder)
			if !ok {
				_ = fw.Close()
				return fmt.Errorf("unexpected builder type for column %s", col)
			}
			if title.IsNull(col) {
				sb.AppendNull()
			} else {
				sb.Append(title.Field(col))
			}
		}
		rows++
		if rows == parquetBatchRows {
			if err := flush(); err != nil {
				_ = fw.Close()
				return fmt.Errorf("failed to write parquet batch: %w", err)
			}
			rows = 0
		}
	}
	if rows > 0 {
		if err := flush(); err != nil {
			_ = fw.Close()
			return fmt.Errorf("failed to write parquet batch: %w", err)
		}
	}
	return fw.Close()
}

// writeXLSX streams titles into a single worksheet.
func writeXLSX(w io.Writer, titles *Titles) error {
	if titles.Len() > xlsxMaxDataRows {
		return fmt.Errorf("%w: %d rows, limit %d", ErrXLSXRowLimit, titles.Len(), xlsxMaxDataRows)
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close() // Ignore close error
	}()

	sw, err := f.NewStreamWriter(xlsxSheetName)
	if err != nil {
		return fmt.Errorf("failed to create xlsx stream writer: %w", err)
	}

	header := make([]any, model.ColumnCount)
	for i, name := range model.Columns() {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write xlsx header: %w", err)
	}

	row := 2
	values := make([]any, model.ColumnCount)
	for title := range titles.All() {
		for i := range values {
			values[i] = title.Field(model.Column(i))
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write xlsx row %d: %w", row, err)
		}
		row++
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush xlsx stream: %w", err)
	}
	return f.Write(w)
}
