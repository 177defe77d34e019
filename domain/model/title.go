package model

import (
	"strings"
	"sync/atomic"
)

// Column identifies one of the tab separated fields of a title row.
type Column int

const (
	// ColumnTConst is the alphanumeric title identifier
	ColumnTConst Column = iota
	// ColumnTitleType is the title category (movie, short, tvSeries, ...)
	ColumnTitleType
	// ColumnPrimaryTitle is the promotional title
	ColumnPrimaryTitle
	// ColumnOriginalTitle is the title in the original language
	ColumnOriginalTitle
	// ColumnIsAdult is the adult flag (0 or 1)
	ColumnIsAdult
	// ColumnStartYear is the release year, or series start year
	ColumnStartYear
	// ColumnEndYear is the series end year
	ColumnEndYear
	// ColumnRuntimeMinutes is the primary runtime in minutes
	ColumnRuntimeMinutes
	// ColumnGenres is the comma joined genre list
	ColumnGenres

	// ColumnCount is the number of columns in every row
	ColumnCount = int(ColumnGenres) + 1
)

// NullValue is the marker the dataset uses for a missing value.
const NullValue = `\N`

var columnNames = [ColumnCount]string{
	"tconst",
	"titleType",
	"primaryTitle",
	"originalTitle",
	"isAdult",
	"startYear",
	"endYear",
	"runtimeMinutes",
	"genres",
}

// String returns the header name of the column.
func (c Column) String() string {
	if c < 0 || int(c) >= ColumnCount {
		return "unknown"
	}
	return columnNames[c]
}

// Columns returns the header names in column order.
func Columns() []string {
	names := make([]string, ColumnCount)
	copy(names, columnNames[:])
	return names
}

// Span is a byte range [Start, End) into the arena.
type Span struct {
	Start uint32
	End   uint32
}

// Len returns the span length in bytes.
func (s Span) Len() int {
	return int(s.End - s.Start)
}

// Source is shared by every record of one parse run.
type Source struct {
	arena *Arena
	pool  *InternPool
}

// NewSource creates a source over an arena and intern pool.
func NewSource(arena *Arena, pool *InternPool) *Source {
	return &Source{arena: arena, pool: pool}
}

// Pool returns the intern pool.
func (s *Source) Pool() *InternPool {
	return s.pool
}

// Arena returns the backing arena.
func (s *Source) Arena() *Arena {
	return s.arena
}

// Title is one parsed row. Fields reference the arena and are decoded and
// interned on first access; the decoded value is cached on the record.
//
// Concurrent first access from several goroutines is safe: every racer resolves
// to the same canonical string from the intern pool.
type Title struct {
	src    *Source
	spans  [ColumnCount]Span
	values [ColumnCount]atomic.Pointer[string]
}

// SetSpan assigns the byte range of a column. It is used while the record is
// still private to the goroutine building it.
func (t *Title) SetSpan(c Column, s Span) {
	t.spans[c] = s
}

// Span returns the byte range of a column.
func (t *Title) Span(c Column) Span {
	return t.spans[c]
}

// Raw returns the undecoded bytes of a column. The slice aliases the arena and
// must not be modified.
func (t *Title) Raw(c Column) []byte {
	s := t.spans[c]
	return t.src.arena.Slice(int(s.Start), int(s.End))
}

// Field returns the decoded value of a column.
func (t *Title) Field(c Column) string {
	if v := t.values[c].Load(); v != nil {
		return *v
	}
	v := t.src.pool.Intern(t.Raw(c))
	t.values[c].Store(&v)
	return v
}

// IsNull reports whether the column holds the null marker.
func (t *Title) IsNull(c Column) bool {
	if t.Span(c).Len() != len(NullValue) {
		return false
	}
	return string(t.Raw(c)) == NullValue
}

// TConst returns the title identifier.
func (t *Title) TConst() string { return t.Field(ColumnTConst) }

// TitleType returns the title category.
func (t *Title) TitleType() string { return t.Field(ColumnTitleType) }

// PrimaryTitle returns the primary name.
func (t *Title) PrimaryTitle() string { return t.Field(ColumnPrimaryTitle) }

// OriginalTitle returns the original name.
func (t *Title) OriginalTitle() string { return t.Field(ColumnOriginalTitle) }

// IsAdult returns the adult flag as text.
func (t *Title) IsAdult() string { return t.Field(ColumnIsAdult) }

// StartYear returns the start period as text.
func (t *Title) StartYear() string { return t.Field(ColumnStartYear) }

// EndYear returns the end period as text.
func (t *Title) EndYear() string { return t.Field(ColumnEndYear) }

// RuntimeMinutes returns the duration as text.
func (t *Title) RuntimeMinutes() string { return t.Field(ColumnRuntimeMinutes) }

// Genres returns the comma joined genre list.
func (t *Title) Genres() string { return t.Field(ColumnGenres) }

// GenreList splits the genre list. A null genre list yields nil.
func (t *Title) GenreList() []string {
	if t.IsNull(ColumnGenres) {
		return nil
	}
	g := t.Genres()
	if g == "" {
		return nil
	}
	return strings.Split(g, ",")
}

// Values returns every decoded field in column order.
func (t *Title) Values() []string {
	values := make([]string, ColumnCount)
	for i := range values {
		values[i] = t.Field(Column(i))
	}
	return values
}

// Node is a Title linked into a singly linked chain.
type Node struct {
	Title
	next atomic.Pointer[Node]
}

// NewNode creates an empty node bound to a source.
func NewNode(src *Source) *Node {
	n := &Node{}
	n.src = src
	return n
}

// Next returns the following node, or nil at the end of the chain.
func (n *Node) Next() *Node {
	return n.next.Load()
}

// Link sets the following node unconditionally.
func (n *Node) Link(next *Node) {
	n.next.Store(next)
}

// TryLink sets the following node only if none is set yet.
func (n *Node) TryLink(next *Node) bool {
	return n.next.CompareAndSwap(nil, next)
}
