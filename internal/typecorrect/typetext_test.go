package typecorrect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{in: "int", want: "int"},
		{in: "String[]", want: "String[]"},
		{in: "java.util.Map<String,List<? extends Foo>>", want: "java.util.Map<String, List<? extends Foo>>"},
		{in: "Comparator<? super T>", want: "Comparator<? super T>"},
		{in: "List<?>", want: "List<?>"},
		{in: "Object...", want: "Object[]"},
		{in: "java.lang.String...", want: "java.lang.String[]"},
		{in: "List<String>...", want: "List<String>[]"},
		{in: "int[]...", want: "int[][]"},
		{in: " Foo ", want: "Foo"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			r := parseTypeText(tt.in)
			require.NotNil(t, r)
			assert.Equal(t, tt.want, r.String())
		})
	}
}

func TestParseTypeTextRejects(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "capture#1 of ?", "Foo&Bar", "List<String", "Map<,>", "a.", "Foo...."} {
		assert.Nil(t, parseTypeText(in), in)
	}
}
