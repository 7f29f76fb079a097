// Package lang provides the tree-sitter Java language, its embedded query files,
// and the tables describing the platform library that sources are resolved
// against.
package lang

import (
	"embed"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

//go:embed queries/*.scm
var queryFS embed.FS

var whitespaceRe = regexp.MustCompile(`\s+`)

// Grammar pairs a tree-sitter grammar with the file extensions it parses and
// its lazily compiled comment query.
type Grammar struct {
	Name       string
	Extensions []string

	lang     *sitter.Language
	once     sync.Once
	comments *sitter.Query
	err      error
}

// Java is the only grammar jslice slices.
var Java = &Grammar{
	Name:       "java",
	Extensions: []string{".java"},
	lang:       java.GetLanguage(),
}

// Sitter returns the tree-sitter grammar.
func (g *Grammar) Sitter() *sitter.Language {
	return g.lang
}

// NewParser creates a parser for g. Parsers are not safe for concurrent use.
func (g *Grammar) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(g.lang)
	return p
}

// CommentQuery returns the compiled comment query. The query is shared.
func (g *Grammar) CommentQuery() (*sitter.Query, error) {
	g.once.Do(func() {
		data, err := queryFS.ReadFile("queries/" + g.Name + ".scm")
		if err != nil {
			g.err = fmt.Errorf("reading %s comment query: %w", g.Name, err)
			return
		}
		g.comments, g.err = sitter.NewQuery(data, g.lang)
		if g.err != nil {
			g.err = fmt.Errorf("compiling %s comment query: %w", g.Name, g.err)
		}
	})
	return g.comments, g.err
}

// IsSource reports whether a file extension belongs to Java source.
func IsSource(ext string) bool {
	return slices.Contains(Java.Extensions, ext)
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
