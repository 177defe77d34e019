package imdbtsv

import (
	"iter"
	"time"

	"github.com/nao1215/imdbtsv/domain/model"
)

// Title is one parsed row of the dataset.
type Title = model.Title

// Column identifies a field of a Title.
type Column = model.Column

// Columns of a Title in file order.
const (
	ColumnTConst         = model.ColumnTConst
	ColumnTitleType      = model.ColumnTitleType
	ColumnPrimaryTitle   = model.ColumnPrimaryTitle
	ColumnOriginalTitle  = model.ColumnOriginalTitle
	ColumnIsAdult        = model.ColumnIsAdult
	ColumnStartYear      = model.ColumnStartYear
	ColumnEndYear        = model.ColumnEndYear
	ColumnRuntimeMinutes = model.ColumnRuntimeMinutes
	ColumnGenres         = model.ColumnGenres
)

// Stats describes a finished parse run.
type Stats struct {
	Workers              int           // Number of parsing goroutines
	ChunkSize            int           // Target range size in bytes
	Ranges               int           // Number of ranges handed to workers
	InputBytes           int           // Bytes read from the source stream
	HeaderBytes          int           // Bytes of the skipped header line
	DroppedTrailingBytes int           // Bytes of an unterminated final line
	BufferGrowths        int           // Number of times the buffer was enlarged
	BufferCapacity       int           // Final buffer capacity
	DistinctValues       int           // Distinct values held by the intern pool
	MergeOrder           MergeOrder    // How per-range chains were joined
	Elapsed              time.Duration // Wall time of the run
}

// Titles is the result of a parse run: a read-only chain of records over the
// run's buffer. Records keep the buffer alive for as long as they are reachable.
type Titles struct {
	head  *model.Node
	count int
	src   *model.Source
	stats Stats
}

// Len returns the number of records.
func (t *Titles) Len() int {
	return t.count
}

// Stats returns run statistics.
func (t *Titles) Stats() Stats {
	s := t.stats
	if t.src != nil {
		s.DistinctValues = t.src.Pool().Len()
		s.BufferCapacity = t.src.Arena().Cap()
	}
	return s
}

// CopyTo copies records into dst starting at dst[index], stopping at the end of
// dst or of the chain. It returns the number of records copied.
func (t *Titles) CopyTo(dst []*Title, index int) int {
	if index < 0 || index > len(dst) {
		return 0
	}
	i := index
	for n := t.head; n != nil && i < len(dst); n = n.Next() {
		dst[i] = &n.Title
		i++
	}
	return i - index
}

// Slice returns all records in a new slice.
func (t *Titles) Slice() []*Title {
	out := make([]*Title, t.count)
	t.CopyTo(out, 0)
	return out
}

// All iterates over the records in chain order.
func (t *Titles) All() iter.Seq[*Title] {
	return func(yield func(*Title) bool) {
		for n := t.head; n != nil; n = n.Next() {
			if !yield(&n.Title) {
				return
			}
		}
	}
}
