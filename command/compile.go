package command

import (
	"strings"

	"github.com/nicebartender/runbot/errs"
)

// Pattern is a compiled command pattern. It is immutable and safe for
// concurrent use.
type Pattern struct {
	source   string
	tokens   []Token
	captures []Capture
	byName   map[string]Capture
}

// Compile parses a pattern string into a Pattern.
func Compile(pattern string) (*Pattern, error) {
	tokens := parse(pattern)
	if len(tokens) == 0 {
		return nil, errs.Params("compile", "empty pattern %q", pattern)
	}

	p := &Pattern{
		source: pattern,
		tokens: tokens,
		byName: make(map[string]Capture),
	}

	rest := 0
	for i, tok := range tokens {
		if tok.Kind == TextToEnd {
			rest++
			if rest > 1 {
				return nil, errs.Params("compile", "pattern %q has more than one {:e} fragment", pattern)
			}
			if i != len(tokens)-1 {
				return nil, errs.Params("compile", "pattern %q: {:e} must be the last fragment", pattern)
			}
		}
		if tok.Name == "" {
			continue
		}
		if _, dup := p.byName[tok.Name]; dup {
			return nil, errs.Params("compile", "pattern %q: duplicate capture %q", pattern, tok.Name)
		}
		c := Capture{Name: tok.Name, Scalar: ScalarText, Quantifier: tok.Quantifier}
		if tok.Kind == Number {
			c.Scalar = ScalarNumber
		}
		p.byName[tok.Name] = c
		p.captures = append(p.captures, c)
	}
	return p, nil
}

// MustCompile is like Compile but panics if the pattern cannot be parsed.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source pattern.
func (p *Pattern) String() string { return p.source }

// Tokens returns a copy of the compiled tokens.
func (p *Pattern) Tokens() []Token {
	out := make([]Token, len(p.tokens))
	copy(out, p.tokens)
	return out
}

// Captures returns the named captures in pattern order.
func (p *Pattern) Captures() []Capture {
	out := make([]Capture, len(p.captures))
	copy(out, p.captures)
	return out
}

// Capture looks up a named capture.
func (p *Pattern) Capture(name string) (Capture, bool) {
	c, ok := p.byName[name]
	return c, ok
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func parse(src string) []Token {
	var tokens []Token
	i := 0
	for i < len(src) {
		c := src[i]
		if isSpace(c) {
			i++
			continue
		}

		var tok Token
		var ok bool
		end := -1
		switch c {
		case '{':
			if j := closeIndex(src, i, '}'); j > 0 {
				end = j + 1
				tok, ok = parseBrace(src[i+1 : j])
			}
		case '[':
			if j := closeIndex(src, i, ']'); j > 0 {
				end = j + 1
				tok, ok = parseBracket(src[i+1 : j])
			}
		}

		if end < 0 {
			// Plain literal run, or an unclosed bracket read as text.
			end = i + 1
			for end < len(src) && !isSpace(src[end]) && src[end] != '{' && src[end] != '[' {
				end++
			}
			text := src[i:end]
			tok = Token{Kind: Literal, Text: text}
			if q, isQ := quantifierFor(text[len(text)-1]); isQ && len(text) > 1 {
				tok.Text = text[:len(text)-1]
				tok.Quantifier = q
			}
			tokens = append(tokens, tok)
			i = end
			continue
		}

		if !ok {
			tok = Token{Kind: Literal, Text: src[i:end]}
		}
		if end < len(src) {
			if q, isQ := quantifierFor(src[end]); isQ {
				tok.Quantifier = q
				end++
			}
		}
		tokens = append(tokens, tok)
		i = end
	}
	return tokens
}

// closeIndex finds the closer of the bracket opened at src[open] without
// crossing whitespace. It returns -1 when there is none.
func closeIndex(src string, open int, closer byte) int {
	for j := open + 1; j < len(src); j++ {
		switch {
		case src[j] == closer:
			return j
		case isSpace(src[j]):
			return -1
		}
	}
	return -1
}

// parseBrace parses the body of {name:kind}.
func parseBrace(body string) (Token, bool) {
	idx := strings.IndexByte(body, ':')
	if idx < 0 {
		return Token{}, false
	}
	name, kind := body[:idx], body[idx+1:]
	if name != "" && !isIdent(name) {
		return Token{}, false
	}
	switch kind {
	case "n":
		return Token{Kind: Number, Name: name}, true
	case "s":
		return Token{Kind: TextToSpace, Name: name}, true
	case "e":
		return Token{Kind: TextToEnd, Name: name}, true
	}
	return Token{}, false
}

// parseBracket parses the body of [opt|opt] or [name:opt|opt].
func parseBracket(body string) (Token, bool) {
	name := ""
	if idx := strings.IndexByte(body, ':'); idx >= 0 {
		head := body[:idx]
		if head == "" || isIdent(head) {
			name = head
			body = body[idx+1:]
		}
	}
	if body == "" {
		return Token{}, false
	}
	options := strings.Split(body, "|")
	for _, opt := range options {
		if opt == "" {
			return Token{}, false
		}
	}
	return Token{Kind: Enum, Name: name, Options: options}, true
}

func isIdent(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return s != ""
}
