package imdbtsv

import (
	"bytes"
	"context"

	"github.com/nao1215/imdbtsv/domain/model"
)

const (
	fieldDelimiter  = '\t'
	recordDelimiter = '\n'
)

// chain is the singly linked list of records one worker built from one range.
type chain struct {
	seq   int
	first *model.Node
	last  *model.Node
	count int
}

// runWorker parses ranges from in until it is closed and hands every chain to agg.
func runWorker(ctx context.Context, src *model.Source, in <-chan byteRange, agg *aggregator) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-in:
			if !ok {
				return nil
			}
			c, err := parseRange(src, r)
			if err != nil {
				return err
			}
			agg.merge(c)
		}
	}
}

// parseRange turns a range into a local chain. Fields are spans into the arena;
// nothing is copied or decoded here.
func parseRange(src *model.Source, r byteRange) (chain, error) {
	c := chain{seq: r.seq}
	data := r.data

	for pos := 0; pos < len(data); {
		nl := bytes.IndexByte(data[pos:], recordDelimiter)
		if nl < 0 {
			return chain{}, NewErrorContext("parse range", "").
				WithDetails("range %d ends with %d unterminated bytes at offset %d", r.seq, len(data)-pos, r.start+pos).
				Error(ErrMalformedRange)
		}

		node := model.NewNode(src)
		if err := splitFields(node, data[pos:pos+nl], r.start+pos); err != nil {
			return chain{}, err
		}

		if c.last == nil {
			c.first = node
		} else {
			c.last.Link(node)
		}
		c.last = node
		c.count++
		pos += nl + 1
	}
	return c, nil
}

// splitFields assigns the tab separated fields of line to node in column order.
// offset is the arena position of line[0].
func splitFields(node *model.Node, line []byte, offset int) error {
	col := 0
	from := 0
	for {
		i := bytes.IndexByte(line[from:], fieldDelimiter)
		if i < 0 {
			break
		}
		if col == model.ColumnCount-1 {
			return columnCountError(line, offset)
		}
		node.SetSpan(model.Column(col), span(offset+from, offset+from+i))
		col++
		from += i + 1
	}
	if col != model.ColumnCount-1 {
		return columnCountError(line, offset)
	}
	node.SetSpan(model.ColumnGenres, span(offset+from, offset+len(line)))
	return nil
}

func span(start, end int) model.Span {
	return model.Span{Start: uint32(start), End: uint32(end)} //nolint:gosec // arena size is bounded by model.MaxArenaSize
}

func columnCountError(line []byte, offset int) error {
	return NewErrorContext("parse range", "").
		WithDetails("row at offset %d has %d columns, want %d",
			offset, bytes.Count(line, []byte{fieldDelimiter})+1, model.ColumnCount).
		Error(ErrMalformedRange)
}
