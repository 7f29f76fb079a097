package typecorrect

import (
	"strings"

	"github.com/phobologic/jslice/internal/model"
)

// parseTypeText reads a type as javac prints it, such as
// "Map<String,List<? extends Foo>>[]". It returns nil for forms that name no
// denotable type, like captured wildcards or intersection types.
func parseTypeText(s string) *model.TypeRef {
	p := &typeText{s: strings.TrimSpace(s)}
	r := p.ref()
	if r == nil || p.pos != len(p.s) {
		return nil
	}
	return r
}

type typeText struct {
	s   string
	pos int
}

func (p *typeText) skipSpace() {
	for p.pos < len(p.s) && p.s[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeText) peek(c byte) bool {
	p.skipSpace()
	return p.pos < len(p.s) && p.s[p.pos] == c
}

func (p *typeText) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.s) {
		if strings.HasPrefix(p.s[p.pos:], "...") {
			break
		}
		c := p.s[p.pos]
		if c == '.' || c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			p.pos++
			continue
		}
		break
	}
	return p.s[start:p.pos]
}

func (p *typeText) ref() *model.TypeRef {
	if p.peek('?') {
		p.pos++
		w := &model.TypeRef{Wildcard: true}
		save := p.pos
		kind := p.ident()
		if kind == "extends" || kind == "super" {
			w.BoundKind = kind
			if w.Bound = p.ref(); w.Bound == nil {
				return nil
			}
		} else {
			p.pos = save
		}
		return w
	}
	name := p.ident()
	if name == "" || strings.HasSuffix(name, ".") || name == "capture" {
		return nil
	}
	r := model.NewRef(name)
	if p.peek('<') {
		p.pos++
		for {
			a := p.ref()
			if a == nil {
				return nil
			}
			r.Args = append(r.Args, a)
			if p.peek(',') {
				p.pos++
				continue
			}
			if !p.peek('>') {
				return nil
			}
			p.pos++
			break
		}
	}
	for p.peek('[') {
		p.pos++
		if !p.peek(']') {
			return nil
		}
		p.pos++
		r.Dims++
	}
	if strings.HasPrefix(p.s[p.pos:], "...") {
		p.pos += 3
		r.Dims++
	}
	p.skipSpace()
	return r
}
