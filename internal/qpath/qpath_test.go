package qpath

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	cases := []struct {
		chain string
		want  Kind
	}{
		{"Foo", ClassPath},
		{"org.example.Util", ClassPath},
		{"org.example.Outer.Inner", ClassPath},
		{"Outer.Inner", ClassPath},
		{"Foo.bar", MemberChain},
		{"org.example.Util.field", MemberChain},
		{"org.example.Util.MAX_SIZE", MemberChain},
		{"java.net.URL", ClassPath},
		{"a.b.c", Ambiguous},
		{"value", Ambiguous},
		{"org.example.getUtil()", MemberChain},
		{"foo().Bar", MemberChain},
		{"org.class.Foo", MemberChain},
		{"", MemberChain},
	}
	for _, tc := range cases {
		t.Run(tc.chain, func(t *testing.T) {
			t.Parallel()
			var segs []string
			if tc.chain != "" {
				segs = strings.Split(tc.chain, ".")
			}
			assert.Equal(t, tc.want, Classify(segs))
		})
	}
}

func TestTypePrefix(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 3, TypePrefix([]string{"org", "example", "Util", "CONST", "x"}))
	assert.Equal(t, 1, TypePrefix([]string{"Foo", "bar"}))
	assert.Equal(t, 0, TypePrefix([]string{"foo", "bar"}))
}
