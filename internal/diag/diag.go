// Package diag parses javac's plain-text diagnostics into structured records.
//
// javac has no machine-readable output, so the adapter keys on the English
// message forms of the compiler. FormatVersion is bumped whenever the set of
// recognized forms changes, so cached or recorded diagnostics can be told
// apart.
package diag

import (
	"regexp"
	"strconv"
	"strings"
)

// FormatVersion identifies the set of message forms this adapter recognizes.
const FormatVersion = 1

// Category classifies a diagnostic by the kind of fix it calls for.
type Category string

const (
	CannotFindSymbol       Category = "cannot-find-symbol"
	IncompatibleTypes      Category = "incompatible-types"
	IncomparableTypes      Category = "incomparable-types"
	BadOperandTypes        Category = "bad-operand-types"
	ReturnTypeIncompatible Category = "return-type-incompatible"
	ForEachNotApplicable   Category = "foreach-not-applicable"
	UnreportedException    Category = "unreported-exception"
	NeverThrown            Category = "never-thrown"
	MissingOverride        Category = "missing-override"
	DoesNotOverride        Category = "does-not-override"
	ArgumentMismatch       Category = "argument-mismatch"
	Other                  Category = "other"
)

// Diagnostic is one compiler error.
type Diagnostic struct {
	File     string
	Line     int
	Category Category
	Message  string

	// Found and Required are the two sides of a type mismatch. For bad
	// operand types they are the first and second operand types.
	Found    string
	Required string
	Operator string

	// Symbol and SymbolKind describe what could not be found ("method",
	// "class", "variable"), Location and LocationKind where javac looked.
	Symbol       string
	SymbolKind   string
	Location     string
	LocationKind string

	// Class is the implementing class, Method the method signature, and
	// Super the supertype of a missing override. Exception names the type of
	// an exception diagnostic.
	Class     string
	Method    string
	Super     string
	Exception string

	// Source is the offending source line as javac echoes it.
	Source string
	Raw    string
}

// Names returns the simple type names the diagnostic mentions, in order and
// without duplicates.
func (d Diagnostic) Names() []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		for _, n := range TypeNames(s) {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				out = append(out, n)
			}
		}
	}
	add(d.Found)
	add(d.Required)
	add(d.Exception)
	add(d.Class)
	add(d.Super)
	if d.SymbolKind == "class" || d.SymbolKind == "interface" {
		add(d.Symbol)
	}
	if d.LocationKind == "class" || d.LocationKind == "interface" {
		add(d.Location)
	}
	if d.LocationKind == "variable" {
		if _, typ, ok := strings.Cut(d.Location, " of type "); ok {
			add(typ)
		}
	}
	return out
}

var (
	headerRe      = regexp.MustCompile(`^(.+\.java):(\d+): (error|warning): (.*)$`)
	convertRe     = regexp.MustCompile(`^incompatible types: (.+) cannot be converted to (.+)$`)
	lossyRe       = regexp.MustCompile(`^incompatible types: possible lossy conversion from (\S+) to (\S+)$`)
	incomparable  = regexp.MustCompile(`^incomparable types: (.+) and (.+)$`)
	badOperandRe  = regexp.MustCompile(`^bad operand types? for (?:binary|unary) operator '(.+)'$`)
	notAbstractRe = regexp.MustCompile(`^(\S+) is not abstract and does not override abstract method (\S+\(.*\)) in (\S+)$`)
	unreportedRe  = regexp.MustCompile(`^unreported exception (\S+); must be caught or declared to be thrown$`)
	neverThrownRe = regexp.MustCompile(`^exception (\S+) is never thrown in body of corresponding try statement$`)
	argumentsRe   = regexp.MustCompile(`^(method|constructor) (\S+) in (class|interface|enum) (\S+) cannot be applied to given types;?$`)
	returnTypeRe  = regexp.MustCompile(`^return type (.+) is not compatible with (.+)$`)
	identRe       = regexp.MustCompile(`[A-Za-z_$][A-Za-z0-9_$.]*`)
)

// Parse extracts the errors from javac output. Warnings, notes, and the
// trailing error count are ignored.
func Parse(output string) []Diagnostic {
	var out []Diagnostic
	var cur *Diagnostic
	var detail []string
	flush := func() {
		if cur != nil {
			finish(cur, detail)
			out = append(out, *cur)
		}
		cur, detail = nil, nil
	}
	for _, line := range strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n") {
		if m := headerRe.FindStringSubmatch(line); m != nil {
			flush()
			if m[3] != "error" {
				continue
			}
			n, _ := strconv.Atoi(m[2])
			cur = &Diagnostic{File: m[1], Line: n, Message: m[4], Raw: line}
			continue
		}
		if cur == nil {
			continue
		}
		if isTrailer(line) {
			flush()
			continue
		}
		cur.Raw += "\n" + line
		detail = append(detail, line)
	}
	flush()
	return out
}

func isTrailer(line string) bool {
	if strings.HasPrefix(line, "Note: ") {
		return true
	}
	fields := strings.Fields(line)
	if len(fields) == 2 && (fields[1] == "error" || fields[1] == "errors" || fields[1] == "warning" || fields[1] == "warnings") {
		_, err := strconv.Atoi(fields[0])
		return err == nil
	}
	return false
}

// finish classifies a diagnostic from its message and detail lines.
func finish(d *Diagnostic, detail []string) {
	if len(detail) > 0 && !isLabel(detail[0]) && strings.TrimSpace(detail[0]) != "^" {
		d.Source = strings.TrimSpace(detail[0])
	}
	labels := make(map[string]string)
	var extra []string
	for _, l := range detail {
		t := strings.TrimSpace(l)
		if key, val, ok := label(t); ok {
			if _, dup := labels[key]; !dup {
				labels[key] = val
			}
			continue
		}
		extra = append(extra, t)
	}

	msg := d.Message
	switch {
	case strings.HasPrefix(msg, "cannot find symbol"):
		d.Category = CannotFindSymbol
		d.SymbolKind, d.Symbol = kindAndName(labels["symbol"])
		d.LocationKind, d.Location = kindAndName(labels["location"])
	case convertRe.MatchString(msg):
		m := convertRe.FindStringSubmatch(msg)
		d.Category = IncompatibleTypes
		d.Found, d.Required = m[1], m[2]
	case lossyRe.MatchString(msg):
		m := lossyRe.FindStringSubmatch(msg)
		d.Category = IncompatibleTypes
		d.Found, d.Required = m[1], m[2]
	case strings.HasPrefix(msg, "incompatible types:") && labels["equality constraints"] != "":
		d.Category = IncompatibleTypes
		d.Required = labels["equality constraints"]
		d.Found = labels["lower bounds"]
	case incomparable.MatchString(msg):
		m := incomparable.FindStringSubmatch(msg)
		d.Category = IncomparableTypes
		d.Found, d.Required = m[1], m[2]
	case badOperandRe.MatchString(msg):
		d.Category = BadOperandTypes
		d.Operator = badOperandRe.FindStringSubmatch(msg)[1]
		d.Found = labels["first type"]
		d.Required = labels["second type"]
		if d.Found == "" {
			d.Found = labels["operand type"]
		}
	case strings.HasPrefix(msg, "for-each not applicable to expression type"):
		d.Category = ForEachNotApplicable
		d.Found = labels["found"]
		d.Required = labels["required"]
	case notAbstractRe.MatchString(msg):
		m := notAbstractRe.FindStringSubmatch(msg)
		d.Category = MissingOverride
		d.Class, d.Method, d.Super = m[1], m[2], m[3]
	case unreportedRe.MatchString(msg):
		d.Category = UnreportedException
		d.Exception = unreportedRe.FindStringSubmatch(msg)[1]
	case neverThrownRe.MatchString(msg):
		d.Category = NeverThrown
		d.Exception = neverThrownRe.FindStringSubmatch(msg)[1]
	case msg == "method does not override or implement a method from a supertype":
		d.Category = DoesNotOverride
	case argumentsRe.MatchString(msg):
		m := argumentsRe.FindStringSubmatch(msg)
		d.Category = ArgumentMismatch
		d.SymbolKind, d.Symbol = m[1], m[2]
		d.LocationKind, d.Location = m[3], m[4]
		d.Found = labels["found"]
		d.Required = labels["required"]
	default:
		d.Category = Other
	}
	for _, e := range extra {
		if m := returnTypeRe.FindStringSubmatch(e); m != nil {
			d.Category = ReturnTypeIncompatible
			d.Found, d.Required = m[1], m[2]
			break
		}
	}
	if m := returnTypeRe.FindStringSubmatch(msg); m != nil {
		d.Category = ReturnTypeIncompatible
		d.Found, d.Required = m[1], m[2]
	}
}

var labelNames = []string{
	"symbol", "location", "required", "found", "first type", "second type",
	"operand type", "equality constraints", "lower bounds", "upper bounds", "reason",
}

func isLabel(line string) bool {
	_, _, ok := label(strings.TrimSpace(line))
	return ok
}

func label(line string) (key, val string, ok bool) {
	for _, l := range labelNames {
		if rest, found := strings.CutPrefix(line, l+":"); found {
			return l, strings.TrimSpace(rest), true
		}
	}
	return "", "", false
}

// kindAndName splits "method foo(int)" or "variable x of type Foo".
func kindAndName(s string) (kind, name string) {
	kind, name, ok := strings.Cut(s, " ")
	if !ok {
		return "", s
	}
	return kind, strings.TrimSpace(name)
}

// TypeNames returns the simple names of the reference types mentioned in a
// javac type expression such as "Map<String,FooReturnType>[]".
func TypeNames(s string) []string {
	var out []string
	for _, tok := range identRe.FindAllString(s, -1) {
		if i := strings.LastIndex(tok, "."); i >= 0 {
			tok = tok[i+1:]
		}
		switch tok {
		case "", "extends", "super", "capture", "of":
			continue
		}
		out = append(out, tok)
	}
	return out
}

// LoopVariableType extracts the declared element type from an echoed
// enhanced for statement such as "for (Foo f : bar.items()) {".
func LoopVariableType(source string) string {
	_, rest, ok := strings.Cut(source, "for")
	if !ok {
		return ""
	}
	rest = strings.TrimSpace(rest)
	rest, ok = strings.CutPrefix(rest, "(")
	if !ok {
		return ""
	}
	decl, _, ok := strings.Cut(rest, ":")
	if !ok {
		return ""
	}
	fields := strings.Fields(decl)
	if len(fields) < 2 {
		return ""
	}
	typ := strings.Join(fields[:len(fields)-1], " ")
	for _, mod := range []string{"final ", "var "} {
		typ = strings.TrimPrefix(typ, mod)
	}
	if strings.HasPrefix(typ, "@") {
		if _, after, ok := strings.Cut(typ, " "); ok {
			typ = after
		}
	}
	return strings.TrimSpace(typ)
}

// MethodName splits a diagnostic method signature "m(int,Foo)" into its name
// and parameter types.
func MethodName(sig string) (name string, params []string) {
	name, rest, ok := strings.Cut(sig, "(")
	if !ok {
		return sig, nil
	}
	return name, SplitTypes(strings.TrimSuffix(rest, ")"))
}

// SplitTypes splits a comma-separated javac type list, keeping commas inside
// type arguments. "no arguments" and the empty string yield nothing.
func SplitTypes(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "no arguments" {
		return nil
	}
	var out []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}
