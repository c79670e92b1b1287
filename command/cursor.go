package command

import (
	"regexp"
	"strings"
)

var numberPrefix = regexp.MustCompile(`^\d+(\.\d+)?`)

// cursor walks whitespace-split input. The staging slice is the unconsumed
// part of the current word; operations consume it piecewise so that "30m"
// can yield a number followed by an enum.
//
// cursor is a small value: callers copy it to checkpoint and assign it back
// to roll a failed attempt back.
type cursor struct {
	words   []string
	next    int
	staging string
}

func newCursor(line string) cursor {
	return cursor{words: strings.Fields(line)}
}

// load moves the next word into staging when staging is empty.
func (c *cursor) load() bool {
	if c.staging == "" && c.next < len(c.words) {
		c.staging = c.words[c.next]
		c.next++
	}
	return c.staging != ""
}

// done reports whether all input has been consumed.
func (c *cursor) done() bool {
	return c.staging == "" && c.next >= len(c.words)
}

func (c *cursor) number() (string, bool) {
	if !c.load() {
		return "", false
	}
	num := numberPrefix.FindString(c.staging)
	if num == "" {
		return "", false
	}
	c.staging = c.staging[len(num):]
	return num, true
}

func (c *cursor) literal(text string) bool {
	if !c.load() {
		return false
	}
	if !strings.HasPrefix(c.staging, text) {
		return false
	}
	c.staging = c.staging[len(text):]
	return true
}

func (c *cursor) enum(options []string) (string, bool) {
	if !c.load() {
		return "", false
	}
	for _, opt := range options {
		if strings.HasPrefix(c.staging, opt) {
			c.staging = c.staging[len(opt):]
			return opt, true
		}
	}
	return "", false
}

func (c *cursor) toSpace() (string, bool) {
	if !c.load() {
		return "", false
	}
	s := c.staging
	c.staging = ""
	return s, true
}

func (c *cursor) toEnd() (string, bool) {
	if !c.load() {
		return "", false
	}
	parts := make([]string, 0, 1+len(c.words)-c.next)
	parts = append(parts, c.staging)
	parts = append(parts, c.words[c.next:]...)
	c.staging = ""
	c.next = len(c.words)
	return strings.Join(parts, " "), true
}
