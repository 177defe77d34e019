package imdbtsv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTableName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "titles", NewTableName(" titles ").String())
	assert.Equal(t, DefaultTableName, NewTableName("").String())
	assert.Equal(t, DefaultTableName, NewTableName("   ").String())
}

func TestTableName_Sanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already valid", input: "title_basics", want: "title_basics"},
		{name: "dots become underscores", input: "title.basics", want: "title_basics"},
		{name: "spaces and dashes", input: "my titles-2024", want: "my_titles_2024"},
		{name: "leading digit", input: "2024titles", want: "table_2024titles"},
		{name: "quotes removed", input: `tit"les`, want: "titles"},
		{name: "nothing usable", input: `"";`, want: DefaultTableName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NewTableName(tt.input).Sanitize().String())
		})
	}
}
