package lang

import (
	"testing"
)

func TestIsSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want bool
	}{
		{".java", true},
		{".class", false},
		{".jav", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			if got := IsSource(tt.ext); got != tt.want {
				t.Errorf("IsSource(%q) = %v, want %v", tt.ext, got, tt.want)
			}
		})
	}
}

func TestJavaGrammar(t *testing.T) {
	t.Parallel()

	if Java.Sitter() == nil {
		t.Fatal("java grammar is nil")
	}
	p := Java.NewParser()
	if p == nil {
		t.Fatal("NewParser returned nil")
	}
	p.Close()

	q, err := Java.CommentQuery()
	if err != nil {
		t.Fatalf("CommentQuery: %v", err)
	}
	if q == nil {
		t.Fatal("query is nil")
	}
	again, _ := Java.CommentQuery()
	if again != q {
		t.Error("comment query should be compiled once")
	}
}

func TestPlatformTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		qname string
		want  bool
	}{
		{"java.lang.String", true},
		{"java.util.List", true},
		{"java.util.function.Function", true},
		{"java.util.Nope", false},
		{"com.example.Foo", false},
	}
	for _, tt := range tests {
		if got := IsPlatformType(tt.qname); got != tt.want {
			t.Errorf("IsPlatformType(%q) = %v, want %v", tt.qname, got, tt.want)
		}
	}

	if !IsPlatformPackage("javax.annotation") || IsPlatformPackage("javaxyz") || IsPlatformPackage("org.java") {
		t.Error("IsPlatformPackage misclassified a package")
	}
	if q, ok := JavaLang("Override"); !ok || q != "java.lang.Override" {
		t.Errorf("JavaLang(Override) = %q, %v", q, ok)
	}
	if _, ok := JavaLang("List"); ok {
		t.Error("List is not implicitly imported")
	}
}

func TestPlatformSubtypes(t *testing.T) {
	t.Parallel()

	if !IsPlatformSubtype("java.util.ArrayList", "java.lang.Iterable") {
		t.Error("ArrayList should be Iterable")
	}
	if IsPlatformSubtype("java.lang.String", "java.lang.Number") {
		t.Error("String is not a Number")
	}
	if !IsUncheckedException("java.lang.NumberFormatException") {
		t.Error("NumberFormatException is unchecked")
	}
	if IsUncheckedException("java.io.FileNotFoundException") {
		t.Error("FileNotFoundException is checked")
	}
	if !IsFinalPlatformClass("String") || !IsFinalPlatformClass("java.lang.Integer") || IsFinalPlatformClass("com.x.String") {
		t.Error("IsFinalPlatformClass misclassified a class")
	}
}

func TestPrimitives(t *testing.T) {
	t.Parallel()

	widen := []struct {
		a, b, want string
	}{
		{"int", "long", "long"},
		{"double", "int", "double"},
		{"char", "short", "int"},
		{"byte", "byte", "byte"},
	}
	for _, tt := range widen {
		got, ok := WidenPrimitive(tt.a, tt.b)
		if !ok || got != tt.want {
			t.Errorf("WidenPrimitive(%s, %s) = %s, %v; want %s", tt.a, tt.b, got, ok, tt.want)
		}
	}
	if _, ok := WidenPrimitive("boolean", "int"); ok {
		t.Error("boolean does not widen")
	}

	if w, _ := Box("int"); w != "java.lang.Integer" {
		t.Errorf("Box(int) = %s", w)
	}
	if p, _ := Unbox("Character"); p != "char" {
		t.Errorf("Unbox(Character) = %s", p)
	}

	defaults := map[string]string{
		"boolean": "false", "long": "0L", "float": "0.0f", "int": "0", "String": "null",
	}
	for typ, want := range defaults {
		if got := DefaultValue(typ); got != want {
			t.Errorf("DefaultValue(%s) = %s, want %s", typ, got, want)
		}
	}
}

func TestFunctionalInterfaces(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arity   int
		returns bool
		want    string
	}{
		{0, false, "java.lang.Runnable"},
		{0, true, "java.util.function.Supplier"},
		{1, false, "java.util.function.Consumer"},
		{2, true, "java.util.function.BiFunction"},
	}
	for _, tt := range tests {
		f, ok := PlatformFunctional(tt.arity, tt.returns)
		if !ok || f.QName != tt.want {
			t.Errorf("PlatformFunctional(%d, %v) = %s, %v; want %s", tt.arity, tt.returns, f.QName, ok, tt.want)
		}
	}
	if _, ok := PlatformFunctional(3, true); ok {
		t.Error("no platform functional interface takes three arguments")
	}

	shapes, ok := AbstractMethods("java.util.Comparator")
	if !ok || len(shapes) != 1 || shapes[0] != (MethodShape{"compare", 2}) {
		t.Errorf("AbstractMethods(Comparator) = %v, %v", shapes, ok)
	}
}

func TestPlatformInterfaces(t *testing.T) {
	t.Parallel()

	for _, q := range []string{"java.lang.Runnable", "java.util.List", "java.util.Map.Entry", "java.io.Serializable"} {
		if !IsPlatformInterface(q) {
			t.Errorf("IsPlatformInterface(%q) = false", q)
		}
	}
	for _, q := range []string{"java.lang.String", "java.util.ArrayList", "java.lang.Exception", "com.ext.Foo"} {
		if IsPlatformInterface(q) {
			t.Errorf("IsPlatformInterface(%q) = true", q)
		}
	}
}

func TestPlatformPackagesExcludeJavaLang(t *testing.T) {
	t.Parallel()

	for pkg, names := range platformPackages {
		for name := range names {
			if _, ok := javaLang[name]; ok {
				t.Errorf("%s.%s shadows java.lang.%s under a wildcard import", pkg, name, name)
			}
		}
	}
	if IsPlatformType("java.util.Iterable") {
		t.Error("java.util.Iterable does not exist")
	}
}

func TestNarrowPrimitive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want string
		ok   bool
	}{
		{"int", "long", "int", true},
		{"double", "byte", "byte", true},
		{"char", "int", "char", true},
		{"byte", "short", "byte", true},
		{"char", "short", "", false},
		{"byte", "char", "", false},
		{"boolean", "int", "", false},
	}
	for _, tt := range tests {
		got, ok := NarrowPrimitive(tt.a, tt.b)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NarrowPrimitive(%s, %s) = %s, %v; want %s, %v", tt.a, tt.b, got, ok, tt.want, tt.ok)
		}
	}
	if !WidensTo("short", "float") || WidensTo("long", "int") || WidensTo("short", "char") {
		t.Error("WidensTo misclassified a conversion")
	}
}
