package imdbtsv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorContext(t *testing.T) {
	t.Parallel()

	t.Run("wraps base error", func(t *testing.T) {
		t.Parallel()
		err := NewErrorContext("parse", "title.basics.tsv").
			WithDetails("row at offset %d", 42).
			Error(ErrMalformedRange)
		require.ErrorIs(t, err, ErrMalformedRange)
		assert.Equal(t,
			"imdbtsv: malformed range: parse failed, file: title.basics.tsv, details: row at offset 42",
			err.Error())
	})

	t.Run("table context", func(t *testing.T) {
		t.Parallel()
		err := NewErrorContext("load titles", "").WithTable("title_basics").Error(ErrIO)
		assert.Equal(t, "imdbtsv: read failed: load titles failed, table: title_basics", err.Error())
	})

	t.Run("no base error", func(t *testing.T) {
		t.Parallel()
		err := NewErrorContext("dump", "").Error(nil)
		assert.EqualError(t, err, "dump failed")
		for _, sentinel := range []error{ErrIO, ErrCapacityExceeded, ErrMalformedRange, ErrInvalidOptions} {
			assert.False(t, errors.Is(err, sentinel))
		}
	})
}
