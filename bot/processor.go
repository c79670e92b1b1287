package bot

import (
	"context"
	"fmt"

	"github.com/nicebartender/runbot/event"
)

// Processor is one element of a dispatch chain. The concrete kinds are
// PostProcessor, MessageProcessor, NoticeProcessor, RequestProcessor and
// *Module. Process methods report whether the event was handled; handled
// or an error ends dispatch for that event.
type Processor interface {
	ID() string
}

// PostProcessor sees every decoded frame, responses included.
type PostProcessor interface {
	Processor
	ProcessPost(ctx context.Context, b *Bot, p event.Post) (bool, error)
}

// MessageProcessor sees messages from other users. Echoes of our own
// messages (message_sent) only reach PostProcessors.
type MessageProcessor interface {
	Processor
	ProcessMessage(ctx context.Context, b *Bot, m *event.Message) (bool, error)
}

type NoticeProcessor interface {
	Processor
	ProcessNotice(ctx context.Context, b *Bot, n *event.Notice) (bool, error)
}

type RequestProcessor interface {
	Processor
	ProcessRequest(ctx context.Context, b *Bot, r *event.Request) (bool, error)
}

// Dispatch runs p through procs in order and stops at the first processor
// that handles it or fails.
func Dispatch(ctx context.Context, b *Bot, procs []Processor, p event.Post) (bool, error) {
	for _, proc := range procs {
		handled, err := process(ctx, b, proc, p)
		if err != nil {
			if _, ok := proc.(*Module); ok {
				// Members already named themselves.
				return false, err
			}
			return false, fmt.Errorf("%s: %w", proc.ID(), err)
		}
		if handled {
			return true, nil
		}
	}
	return false, nil
}

func process(ctx context.Context, b *Bot, proc Processor, p event.Post) (bool, error) {
	switch pr := proc.(type) {
	case *Module:
		return Dispatch(ctx, b, pr.processors, p)
	case PostProcessor:
		return pr.ProcessPost(ctx, b, p)
	case MessageProcessor:
		if m, ok := p.(*event.Message); ok && m.Kind() == event.KindMessage {
			return pr.ProcessMessage(ctx, b, m)
		}
	case NoticeProcessor:
		if n, ok := p.(*event.Notice); ok {
			return pr.ProcessNotice(ctx, b, n)
		}
	case RequestProcessor:
		if r, ok := p.(*event.Request); ok {
			return pr.ProcessRequest(ctx, b, r)
		}
	}
	return false, nil
}

// Module groups processors under a name. Dispatching into a module is the
// same as dispatching into its members inline.
type Module struct {
	id         string
	name       string
	help       string
	processors []Processor
}

func NewModule(id, name, help string, procs ...Processor) *Module {
	return &Module{id: id, name: name, help: help, processors: procs}
}

func (m *Module) ID() string   { return m.id }
func (m *Module) Name() string { return m.name }
func (m *Module) Help() string { return m.help }

// Processors returns a copy of the members.
func (m *Module) Processors() []Processor {
	out := make([]Processor, len(m.processors))
	copy(out, m.processors)
	return out
}

// Function adapters.

type PostFunc func(ctx context.Context, b *Bot, p event.Post) (bool, error)
type MessageFunc func(ctx context.Context, b *Bot, m *event.Message) (bool, error)
type NoticeFunc func(ctx context.Context, b *Bot, n *event.Notice) (bool, error)
type RequestFunc func(ctx context.Context, b *Bot, r *event.Request) (bool, error)

type postFunc struct {
	id string
	fn PostFunc
}

func (f postFunc) ID() string { return f.id }
func (f postFunc) ProcessPost(ctx context.Context, b *Bot, p event.Post) (bool, error) {
	return f.fn(ctx, b, p)
}

type messageFunc struct {
	id string
	fn MessageFunc
}

func (f messageFunc) ID() string { return f.id }
func (f messageFunc) ProcessMessage(ctx context.Context, b *Bot, m *event.Message) (bool, error) {
	return f.fn(ctx, b, m)
}

type noticeFunc struct {
	id string
	fn NoticeFunc
}

func (f noticeFunc) ID() string { return f.id }
func (f noticeFunc) ProcessNotice(ctx context.Context, b *Bot, n *event.Notice) (bool, error) {
	return f.fn(ctx, b, n)
}

type requestFunc struct {
	id string
	fn RequestFunc
}

func (f requestFunc) ID() string { return f.id }
func (f requestFunc) ProcessRequest(ctx context.Context, b *Bot, r *event.Request) (bool, error) {
	return f.fn(ctx, b, r)
}

func OnPost(id string, fn PostFunc) Processor       { return postFunc{id, fn} }
func OnMessage(id string, fn MessageFunc) Processor { return messageFunc{id, fn} }
func OnNotice(id string, fn NoticeFunc) Processor   { return noticeFunc{id, fn} }
func OnRequest(id string, fn RequestFunc) Processor { return requestFunc{id, fn} }
