package imdbtsv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nao1215/imdbtsv/domain/model"
)

// byteRange is a line aligned span of the arena, the unit of work of one worker.
// data starts at byte 0 or right after a newline and ends right after a newline.
type byteRange struct {
	seq   int    // position of the range in the input
	start int    // arena offset of data[0]
	data  []byte // arena bytes of the range
}

// splitStats describes what the splitter saw during a run.
type splitStats struct {
	ranges       int
	inputBytes   int
	headerBytes  int
	droppedBytes int
	grows        int
}

// rangeSplitter is the single producer of a parse run. It fills the arena from the
// input stream and cuts the filled bytes into line aligned ranges of roughly
// chunkSize bytes.
type rangeSplitter struct {
	arena     *model.Arena
	chunkSize int
	memLimit  *MemoryLimit
	logger    *slog.Logger

	start   int  // first byte not yet assigned to a range
	scanned int  // header search position
	header  bool // header line skipped
	seq     int
	stats   splitStats
}

func newRangeSplitter(arena *model.Arena, chunkSize int, memLimit *MemoryLimit, logger *slog.Logger) *rangeSplitter {
	return &rangeSplitter{
		arena:     arena,
		chunkSize: chunkSize,
		memLimit:  memLimit,
		logger:    logger,
	}
}

// run reads r to the end, sending ranges to out in input order. It does not close out.
func (s *rangeSplitter) run(ctx context.Context, r io.Reader, out chan<- byteRange) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.fill(r)
		if n > 0 {
			if emitErr := s.emitReady(ctx, out); emitErr != nil {
				return emitErr
			}
		}
		if errors.Is(err, io.EOF) {
			return s.finish(ctx, out)
		}
		if err != nil {
			return err
		}
	}
}

// fill reads at most one chunk into the free part of the arena, making room first
// when the arena is full.
func (s *rangeSplitter) fill(r io.Reader) (int, error) {
	if s.arena.Full() {
		if err := s.makeRoom(r); err != nil {
			return 0, err
		}
	}

	n, err := r.Read(s.arena.Free(s.chunkSize))
	s.arena.Commit(n)
	s.stats.inputBytes += n
	if err != nil && err != io.EOF { //nolint:errorlint // io.Reader returns io.EOF unwrapped
		return n, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return n, err
}

// makeRoom grows a full arena. When growth is not allowed, it reads one more byte
// from the stream: a further byte means the input does not fit, io.EOF means it fit
// exactly.
func (s *rangeSplitter) makeRoom(r io.Reader) error {
	if s.arena.CanGrow() {
		switch s.memLimit.CheckMemoryUsage() {
		case MemoryStatusExceeded:
			return s.memLimit.CreateMemoryError("buffer growth")
		case MemoryStatusWarning:
			info := s.memLimit.GetMemoryInfo()
			s.logger.Warn("heap close to memory limit",
				slog.Int64("current_mb", info.CurrentMB),
				slog.Int64("limit_mb", info.LimitMB))
		case MemoryStatusOK:
		}
		s.arena.Grow()
		s.stats.grows++
		s.logger.Debug("parse buffer grown", slog.Int("capacity", s.arena.Cap()))
		return nil
	}

	var extra [1]byte
	for {
		n, err := r.Read(extra[:])
		if n > 0 {
			return NewErrorContext("fill buffer", "").
				WithDetails("input exceeds buffer capacity of %d bytes", s.arena.Cap()).
				Error(ErrCapacityExceeded)
		}
		if err == io.EOF { //nolint:errorlint // io.Reader returns io.EOF unwrapped
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
	}
}

// emitReady skips the header once, then emits every complete chunk.
func (s *rangeSplitter) emitReady(ctx context.Context, out chan<- byteRange) error {
	filled := s.arena.Len()

	if !s.header {
		idx := bytes.IndexByte(s.arena.Slice(s.scanned, filled), '\n')
		if idx < 0 {
			s.scanned = filled
			return nil
		}
		s.start = s.scanned + idx + 1
		s.header = true
		s.stats.headerBytes = s.start
	}

	for filled-s.start >= s.chunkSize {
		end := bytes.LastIndexByte(s.arena.Slice(s.start, s.start+s.chunkSize), '\n')
		if end < 0 {
			// A single row longer than a chunk extends the range to its end.
			next := bytes.IndexByte(s.arena.Slice(s.start+s.chunkSize, filled), '\n')
			if next < 0 {
				return nil
			}
			end = s.chunkSize + next
		}
		if err := s.emit(ctx, out, s.start+end+1); err != nil {
			return err
		}
	}
	return nil
}

// finish emits the remainder up to its last newline and drops a trailing
// unterminated line.
func (s *rangeSplitter) finish(ctx context.Context, out chan<- byteRange) error {
	filled := s.arena.Len()
	if !s.header {
		s.stats.headerBytes = filled
		return nil
	}

	rest := s.arena.Slice(s.start, filled)
	end := bytes.LastIndexByte(rest, '\n')
	if end >= 0 {
		if err := s.emit(ctx, out, s.start+end+1); err != nil {
			return err
		}
	}

	if dropped := len(rest) - (end + 1); dropped > 0 {
		s.stats.droppedBytes = dropped
		s.logger.Warn("dropped unterminated trailing line",
			slog.Int("offset", filled-dropped),
			slog.Int("bytes", dropped))
	}
	return nil
}

func (s *rangeSplitter) emit(ctx context.Context, out chan<- byteRange, end int) error {
	r := byteRange{
		seq:   s.seq,
		start: s.start,
		data:  s.arena.Slice(s.start, end),
	}

	select {
	case out <- r:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.seq++
	s.start = end
	s.stats.ranges++
	return nil
}
