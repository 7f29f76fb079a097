package typecorrect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phobologic/jslice/internal/model"
)

func refs(names ...string) []*model.TypeRef {
	out := make([]*model.TypeRef, len(names))
	for i, n := range names {
		out[i] = model.NewRef(n)
	}
	return out
}

func TestWideningLUB(t *testing.T) {
	t.Parallel()
	synthetic := func(q string) bool { return q == "p.Foo" || q == "p.Bar" }
	w := Widening{Synthetic: synthetic}

	tests := []struct {
		name    string
		demands []string
		ret     bool
		want    string
		typeVar bool
		absorb  []string
	}{
		{name: "single", demands: []string{"java.lang.String"}, want: "java.lang.String"},
		{name: "duplicates", demands: []string{"int", "int"}, want: "int"},
		{name: "narrowest numeric", demands: []string{"int", "long"}, want: "int"},
		{name: "narrowest of three", demands: []string{"double", "short", "long"}, want: "short"},
		{name: "boxed", demands: []string{"java.lang.Integer", "int"}, want: "int"},
		{name: "boxed must match exactly", demands: []string{"java.lang.Long", "int"}, want: "java.lang.Object"},
		{name: "char widens to int", demands: []string{"char", "int"}, want: "char"},
		{name: "char and short share no subtype", demands: []string{"char", "short"}, want: "java.lang.Object"},
		{name: "char and short result", demands: []string{"char", "short"}, ret: true, typeVar: true},
		{name: "synthetic absorbs", demands: []string{"p.Foo", "p.Bar"}, want: "p.Foo", absorb: []string{"p.Bar"}},
		{name: "result becomes type variable", demands: []string{"int", "java.lang.String"}, ret: true, typeVar: true},
		{name: "field becomes object", demands: []string{"boolean", "java.lang.String"}, want: "java.lang.Object"},
		{name: "none", want: "java.lang.Object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := w.LUB(refs(tt.demands...), tt.ret)
			assert.Equal(t, tt.typeVar, b.TypeVar)
			if tt.typeVar {
				assert.Nil(t, b.Type)
				return
			}
			assert.Equal(t, tt.want, b.Type.Name)
			var absorbed []string
			for _, a := range b.Absorb {
				absorbed = append(absorbed, a.Name)
			}
			assert.Equal(t, tt.absorb, absorbed)
		})
	}
}

func TestWideningWithoutSyntheticPredicate(t *testing.T) {
	t.Parallel()
	b := Widening{}.LUB(refs("p.Foo", "p.Bar"), false)
	assert.Equal(t, "java.lang.Object", b.Type.Name)
	assert.Empty(t, b.Absorb)
}
