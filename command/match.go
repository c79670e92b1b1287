package command

// Match runs the pattern over a line of text. It succeeds only when every
// Required and OneOrMore fragment matched and the whole line was consumed.
func (p *Pattern) Match(line string) (Args, bool) {
	c := newCursor(line)
	args := Args{pattern: p, values: make(map[string][]string, len(p.captures))}
	for _, tok := range p.tokens {
		if !tok.apply(&c, &args) {
			return Args{}, false
		}
	}
	if !c.done() {
		return Args{}, false
	}
	return args, true
}

// step applies the token once.
func (t Token) step(c *cursor) (string, bool) {
	switch t.Kind {
	case Literal:
		return t.Text, c.literal(t.Text)
	case Number:
		return c.number()
	case TextToSpace:
		return c.toSpace()
	case Enum:
		return c.enum(t.Options)
	case TextToEnd:
		return c.toEnd()
	}
	return "", false
}

// attempt applies the token once and rolls the cursor back on failure.
func (t Token) attempt(c *cursor) (string, bool) {
	saved := *c
	v, ok := t.step(c)
	if !ok {
		*c = saved
	}
	return v, ok
}

func (t Token) apply(c *cursor, args *Args) bool {
	switch t.Quantifier {
	case Required:
		v, ok := t.attempt(c)
		if !ok {
			return false
		}
		args.add(t, v)
	case Optional:
		if v, ok := t.attempt(c); ok {
			args.add(t, v)
		}
	case OneOrMore:
		v, ok := t.attempt(c)
		if !ok {
			return false
		}
		args.add(t, v)
		t.repeat(c, args)
	case ZeroOrMore:
		t.repeat(c, args)
	}
	return true
}

func (t Token) repeat(c *cursor, args *Args) {
	for {
		before := *c
		v, ok := t.attempt(c)
		if !ok || (c.next == before.next && c.staging == before.staging) {
			return
		}
		args.add(t, v)
	}
}
