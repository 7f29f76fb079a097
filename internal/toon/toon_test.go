package toon

import (
	"strings"
	"testing"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/main.py", "src/main.py"},
		{"dotted name", "Foo.__init__", "Foo.__init__"},
		{"signature no special", "run(self) -> None", "run(self) -> None"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	r := &Report{
		RunID:      "0b6f",
		Root:       "src",
		State:      "converged",
		Iterations: 2,
		Targets: []Target{
			{Spec: "com.example.Foo#bar(int)", Decl: "com.example.Foo#bar(int)", Satisfied: true},
		},
		Types: []Type{
			{QName: "com.example.Foo", Kind: "class"},
			{QName: "com.ext.Lib", Kind: "interface", Synthetic: true},
		},
		Members: []Member{
			{Owner: "com.example.Foo", Signature: "bar(int)", Mode: "keep"},
			{Owner: "com.ext.Lib", Signature: "get()", Mode: "keep", Synthetic: true},
		},
		Files: []File{
			{Path: "com/example/Foo.java"},
			{Path: "com/ext/Lib.java", Synthetic: true},
		},
	}

	got := Encode(r)

	lines := strings.Split(got, "\n")
	want := []string{
		"run: 0b6f",
		"root: src",
		"state: converged",
		"iterations: 2",
		"targets[1]{spec,decl,satisfied}:",
		"  com.example.Foo#bar(int),com.example.Foo#bar(int),\"true\"",
		"types[2]{name,kind,synthetic}:",
		"  com.example.Foo,class,\"false\"",
		"  com.ext.Lib,interface,\"true\"",
		"members[2]{owner,signature,mode,synthetic}:",
		"  com.example.Foo,bar(int),keep,\"false\"",
		"  com.ext.Lib,get(),keep,\"true\"",
		"files[2]{path,synthetic}:",
		"  com/example/Foo.java,\"false\"",
		"  com/ext/Lib.java,\"true\"",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestEncodeFailed(t *testing.T) {
	t.Parallel()

	r := &Report{
		RunID: "x",
		Root:  "src",
		State: "failed",
		Diagnostics: []Diagnostic{
			{File: "p/A.java", Line: 5, Category: "incompatible-types", Message: "incompatible types: String cannot be converted to int"},
		},
	}

	got := Encode(r)
	if !strings.Contains(got, "targets[0]{spec,decl,satisfied}:") {
		t.Errorf("expected empty targets section, got:\n%s", got)
	}
	if !strings.Contains(got, "diagnostics[1]{file,line,category,message}:\n  p/A.java,5,incompatible-types,\"incompatible types: String cannot be converted to int\"") {
		t.Errorf("expected diagnostics section, got:\n%s", got)
	}
}
