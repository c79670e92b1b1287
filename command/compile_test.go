package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicebartender/runbot/errs"
)

func TestCompileBanPattern(t *testing.T) {
	p, err := Compile("[-|/|~]ban {time:n}[unit:s|m|h]? {user:n}+")
	require.NoError(t, err)

	toks := p.Tokens()
	require.Len(t, toks, 5)

	assert.Equal(t, Enum, toks[0].Kind)
	assert.Equal(t, []string{"-", "/", "~"}, toks[0].Options)
	assert.Empty(t, toks[0].Name)

	assert.Equal(t, Literal, toks[1].Kind)
	assert.Equal(t, "ban", toks[1].Text)

	assert.Equal(t, Number, toks[2].Kind)
	assert.Equal(t, "time", toks[2].Name)
	assert.Equal(t, Required, toks[2].Quantifier)

	assert.Equal(t, Enum, toks[3].Kind)
	assert.Equal(t, "unit", toks[3].Name)
	assert.Equal(t, []string{"s", "m", "h"}, toks[3].Options)
	assert.Equal(t, Optional, toks[3].Quantifier)

	assert.Equal(t, Number, toks[4].Kind)
	assert.Equal(t, OneOrMore, toks[4].Quantifier)

	caps := p.Captures()
	require.Len(t, caps, 3)
	assert.Equal(t, Capture{Name: "time", Scalar: ScalarNumber, Quantifier: Required}, caps[0])
	assert.Equal(t, Capture{Name: "unit", Scalar: ScalarText, Quantifier: Optional}, caps[1])
	assert.Equal(t, Capture{Name: "user", Scalar: ScalarNumber, Quantifier: OneOrMore}, caps[2])
}

func TestCompileTokenRoundTrip(t *testing.T) {
	p := MustCompile("remind {who:s} {when:n}* {:e}")
	var rendered []string
	for _, tok := range p.Tokens() {
		rendered = append(rendered, tok.String())
	}
	assert.Equal(t, []string{"remind", "{who:s}", "{when:n}*", "{:e}"}, rendered)
	assert.Equal(t, "remind {who:s} {when:n}* {:e}", p.String())
}

func TestCompileLiteralQuantifier(t *testing.T) {
	p := MustCompile("hello? world")
	toks := p.Tokens()
	require.Len(t, toks, 2)
	assert.Equal(t, "hello", toks[0].Text)
	assert.Equal(t, Optional, toks[0].Quantifier)

	// A lone quantifier character is itself a literal.
	toks = MustCompile("+ {n:n}").Tokens()
	assert.Equal(t, "+", toks[0].Text)
	assert.Equal(t, Required, toks[0].Quantifier)
}

func TestCompileMalformedBracketIsLiteral(t *testing.T) {
	for _, src := range []string{"{oops", "{bad body}", "{x:q}", "[]", "[a||b]"} {
		p, err := Compile(src)
		require.NoError(t, err, src)
		for _, tok := range p.Tokens() {
			assert.Equal(t, Literal, tok.Kind, src)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"blank":         "   ",
		"rest not last": "echo {:e} {n:n}",
		"two rests":     "echo {a:e} {b:e}",
		"duplicate":     "add {x:n} {x:n}",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Compile(src)
			require.Error(t, err)
			assert.True(t, errs.IsParams(err))
		})
	}
}

func TestMustCompilePanics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("") })
}

func TestCaptureLookup(t *testing.T) {
	p := MustCompile("tag [op:add|del] {name:s}")
	c, ok := p.Capture("op")
	require.True(t, ok)
	assert.Equal(t, ScalarText, c.Scalar)
	_, ok = p.Capture("missing")
	assert.False(t, ok)
}
