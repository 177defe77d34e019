package imdbtsv

import (
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

// Compression file extensions
const (
	extGZ   = ".gz"
	extBZ2  = ".bz2"
	extXZ   = ".xz"
	extZSTD = ".zst"
)

// DetectCompression returns the compression implied by the extension of path.
func DetectCompression(path string) CompressionType {
	lower := strings.ToLower(path)
	for _, c := range []CompressionType{CompressionGZ, CompressionBZ2, CompressionXZ, CompressionZSTD} {
		if strings.HasSuffix(lower, c.Extension()) {
			return c
		}
	}
	return CompressionNone
}

// TrimCompressionExtension removes a compression extension from path, if any.
func TrimCompressionExtension(path string) string {
	ext := DetectCompression(path).Extension()
	return path[:len(path)-len(ext)]
}

// NewReader wraps r with a decompressor. gzip is inflated by pgzip, which decodes
// ahead of the consumer on separate goroutines so decompression overlaps with
// range splitting. Closing the reader does not close r.
func (c CompressionType) NewReader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGZ:
		zr, err := pgzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return zr, nil
	case CompressionBZ2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	case CompressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return io.NopCloser(xr), nil
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("%w: compression type %d for reading", ErrUnsupportedFormat, int(c))
	}
}

// NewWriter wraps w with a compressor. Close flushes the compressor but does not
// close w. bzip2 can only be read.
func (c CompressionType) NewWriter(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGZ:
		return pgzip.NewWriter(w), nil
	case CompressionXZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return xw, nil
	case CompressionZSTD:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("%w: compression %s for writing", ErrUnsupportedFormat, c.extensionOrCode())
	}
}

func (c CompressionType) extensionOrCode() string {
	if ext := c.Extension(); ext != "" {
		return ext
	}
	return fmt.Sprintf("%d", int(c))
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// compressedFile closes the codec before the file underneath it.
type compressedFile struct {
	codec io.Closer
	file  *os.File
	sync  bool
}

func (f *compressedFile) Close() error {
	err := f.codec.Close()
	if f.sync {
		err = errors.Join(err, f.file.Sync())
	}
	return errors.Join(err, f.file.Close())
}

type fileReader struct {
	io.Reader
	*compressedFile
}

type fileWriter struct {
	io.Writer
	*compressedFile
}

// openInput opens path and decompresses it according to its extension.
func openInput(path string) (io.ReadCloser, error) {
	file, err := os.Open(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	r, err := DetectCompression(path).NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return fileReader{Reader: r, compressedFile: &compressedFile{codec: r, file: file}}, nil
}

// createOutput creates path and compresses everything written to it. A file whose
// compressor cannot be created is removed again.
func createOutput(path string, c CompressionType) (io.WriteCloser, error) {
	file, err := os.Create(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	w, err := c.NewWriter(file)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, err
	}
	return fileWriter{Writer: w, compressedFile: &compressedFile{codec: w, file: file, sync: true}}, nil
}
