// Package command compiles command patterns and matches chat text against them.
//
// A pattern is a compact DSL:
//
//	[-|/|~]ban {time:n}[unit:s|m|h]? {user:n}+
//
// Literal words match as prefixes of the current input word. {name:n} takes a
// number, {name:s} takes a whole word and {name:e} takes the rest of the line.
// [a|b|c] is an enumeration of literal alternatives, optionally named as
// [name:a|b|c]. Any fragment may be followed by ? (optional), + (one or more)
// or * (zero or more).
package command

import "strings"

// TokenKind identifies what a Token consumes.
type TokenKind int

const (
	Literal TokenKind = iota
	Number
	TextToSpace
	Enum
	TextToEnd
)

func (k TokenKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Number:
		return "number"
	case TextToSpace:
		return "text"
	case Enum:
		return "enum"
	case TextToEnd:
		return "rest"
	default:
		return "unknown"
	}
}

// Quantifier is the cardinality attached to a Token.
type Quantifier int

const (
	Required Quantifier = iota
	Optional
	OneOrMore
	ZeroOrMore
)

func (q Quantifier) String() string {
	switch q {
	case Required:
		return ""
	case Optional:
		return "?"
	case OneOrMore:
		return "+"
	case ZeroOrMore:
		return "*"
	default:
		return "!"
	}
}

// Repeated reports whether the quantifier collects a list.
func (q Quantifier) Repeated() bool {
	return q == OneOrMore || q == ZeroOrMore
}

func quantifierFor(b byte) (Quantifier, bool) {
	switch b {
	case '?':
		return Optional, true
	case '+':
		return OneOrMore, true
	case '*':
		return ZeroOrMore, true
	}
	return Required, false
}

// Token is one compiled fragment of a pattern.
type Token struct {
	Kind TokenKind
	// Name is the capture name; empty for literals and unnamed fragments.
	Name string
	// Text is the literal text for Literal tokens.
	Text string
	// Options are the alternatives of an Enum, in declaration order.
	Options    []string
	Quantifier Quantifier
}

// String renders the token back in DSL form.
func (t Token) String() string {
	var b strings.Builder
	switch t.Kind {
	case Literal:
		b.WriteString(t.Text)
	case Enum:
		b.WriteByte('[')
		if t.Name != "" {
			b.WriteString(t.Name)
			b.WriteByte(':')
		}
		b.WriteString(strings.Join(t.Options, "|"))
		b.WriteByte(']')
	default:
		b.WriteByte('{')
		b.WriteString(t.Name)
		b.WriteByte(':')
		switch t.Kind {
		case Number:
			b.WriteByte('n')
		case TextToSpace:
			b.WriteByte('s')
		case TextToEnd:
			b.WriteByte('e')
		}
		b.WriteByte('}')
	}
	b.WriteString(t.Quantifier.String())
	return b.String()
}

// Scalar is the value type a capture produces before binding.
type Scalar int

const (
	ScalarText Scalar = iota
	ScalarNumber
)

func (s Scalar) String() string {
	if s == ScalarNumber {
		return "number"
	}
	return "text"
}

// Capture describes a named value produced by a pattern.
type Capture struct {
	Name       string
	Scalar     Scalar
	Quantifier Quantifier
}
