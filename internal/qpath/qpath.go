// Package qpath classifies dotted name chains as class paths or member chains.
package qpath

import (
	"strings"

	"github.com/phobologic/jslice/internal/model"
)

// Kind is the classification of a dotted chain.
type Kind uint8

const (
	// MemberChain is a variable or field followed by member accesses.
	MemberChain Kind = iota
	// ClassPath is a package-qualified (or nested) type name.
	ClassPath
	// Ambiguous chains consist only of lowercase identifiers; callers treat
	// them as member chains.
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case ClassPath:
		return "class-path"
	case Ambiguous:
		return "ambiguous"
	}
	return "member-chain"
}

// Classify decides whether the segments of a qualifier, such as the
// a.b.C in a.b.C.member, name a type. A segment written with parentheses
// marks a call and rules out a class path.
func Classify(segments []string) Kind {
	if len(segments) == 0 {
		return MemberChain
	}
	for _, s := range segments {
		if strings.ContainsAny(s, "()") || !model.IsIdentifier(s) {
			return MemberChain
		}
	}
	firstType := -1
	for i, s := range segments {
		if model.IsCapitalized(s) {
			firstType = i
			break
		}
	}
	if firstType < 0 {
		return Ambiguous
	}
	for _, s := range segments[firstType+1:] {
		// Type.field and pkg.Type.CONSTANT are members of the type.
		if !typeLike(s) {
			return MemberChain
		}
	}
	return ClassPath
}

// TypePrefix returns the longest prefix of segments that Classify accepts as
// a class path, or 0.
func TypePrefix(segments []string) int {
	for n := len(segments); n > 0; n-- {
		if Classify(segments[:n]) == ClassPath {
			return n
		}
	}
	return 0
}

// typeLike reports whether a segment after the first type segment reads as a
// nested type name rather than a constant.
func typeLike(s string) bool {
	return model.IsCapitalized(s) && (len(s) == 1 || strings.ToUpper(s) != s)
}
