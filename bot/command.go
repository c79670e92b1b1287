package bot

import (
	"context"
	"reflect"
	"strings"

	"github.com/nicebartender/runbot/command"
	"github.com/nicebartender/runbot/errs"
	"github.com/nicebartender/runbot/event"
)

// CommandFunc handles a message whose text matched a command pattern.
type CommandFunc func(ctx context.Context, b *Bot, m *event.Message, args command.Args) (bool, error)

// Command is a MessageProcessor that matches the flattened message text
// against a compiled pattern.
type Command struct {
	id      string
	pattern *command.Pattern
	fn      CommandFunc
}

// NewCommand compiles pattern. Compile errors are Params errors.
func NewCommand(id, pattern string, fn CommandFunc) (*Command, error) {
	p, err := command.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, errs.Params("command", "%s: nil handler", id)
	}
	return &Command{id: id, pattern: p, fn: fn}, nil
}

// CommandOf is NewCommand with the captures bound into a fresh T before fn
// runs. T must be a struct with a field for every named capture; that is
// checked here rather than per message. A capture that fails to convert
// makes the message not match.
func CommandOf[T any](id, pattern string, fn func(ctx context.Context, b *Bot, m *event.Message, args *T) (bool, error)) (*Command, error) {
	p, err := command.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if err := command.CheckBinding(p, reflect.TypeFor[T]()); err != nil {
		return nil, err
	}
	return &Command{
		id:      id,
		pattern: p,
		fn: func(ctx context.Context, b *Bot, m *event.Message, raw command.Args) (bool, error) {
			var args T
			if err := raw.Bind(&args); err != nil {
				b.log.Debug("command args did not convert", "command", id, "err", err)
				return false, nil
			}
			return fn(ctx, b, m, &args)
		},
	}, nil
}

func (c *Command) ID() string                { return c.id }
func (c *Command) Pattern() *command.Pattern { return c.pattern }

func (c *Command) ProcessMessage(ctx context.Context, b *Bot, m *event.Message) (bool, error) {
	line, ok := Flatten(m.Message)
	if !ok {
		return false, nil
	}
	args, ok := c.pattern.Match(line)
	if !ok {
		return false, nil
	}
	return c.fn(ctx, b, m, args)
}

// Flatten renders a chain as command text: text segments verbatim and at
// segments as their target id. Any other segment makes the chain
// unsuitable for command matching.
func Flatten(chain event.Chain) (string, bool) {
	var sb strings.Builder
	for _, seg := range chain {
		switch seg.Type {
		case event.SegText:
			sb.WriteString(seg.Text())
		case event.SegAt:
			sb.WriteByte(' ')
			sb.WriteString(seg.AtTarget())
			sb.WriteByte(' ')
		default:
			return "", false
		}
	}
	return sb.String(), true
}

// Must panics if err is non-nil. It is meant for registering processors at
// startup.
func Must[P Processor](p P, err error) P {
	if err != nil {
		panic(err)
	}
	return p
}
