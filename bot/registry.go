package bot

import (
	"sync"

	"github.com/nicebartender/runbot/errs"
)

// Registry collects processors at startup. Bots take a snapshot of it when
// they are built, so later registrations do not affect running bots.
type Registry struct {
	mu      sync.Mutex
	procs   []Processor
	modules []*Module
	ids     map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

// Add appends processors in order. Ids must be unique across the registry,
// module members included.
func (r *Registry) Add(procs ...Processor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{})
	for _, p := range procs {
		if err := r.checkIDs(p, seen); err != nil {
			return err
		}
	}
	for id := range seen {
		r.ids[id] = struct{}{}
	}
	for _, p := range procs {
		if m, ok := p.(*Module); ok {
			r.modules = append(r.modules, m)
		}
		r.procs = append(r.procs, p)
	}
	return nil
}

func (r *Registry) checkIDs(p Processor, seen map[string]struct{}) error {
	if p == nil {
		return errs.Params("register", "nil processor")
	}
	id := p.ID()
	if id == "" {
		return errs.Params("register", "processor %T has an empty id", p)
	}
	if _, dup := r.ids[id]; dup {
		return errs.Params("register", "duplicate processor id %q", id)
	}
	if _, dup := seen[id]; dup {
		return errs.Params("register", "duplicate processor id %q", id)
	}
	seen[id] = struct{}{}
	if m, ok := p.(*Module); ok {
		for _, sub := range m.processors {
			if err := r.checkIDs(sub, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Registry) Post(id string, fn PostFunc) error       { return r.Add(OnPost(id, fn)) }
func (r *Registry) Message(id string, fn MessageFunc) error { return r.Add(OnMessage(id, fn)) }
func (r *Registry) Notice(id string, fn NoticeFunc) error   { return r.Add(OnNotice(id, fn)) }
func (r *Registry) Request(id string, fn RequestFunc) error { return r.Add(OnRequest(id, fn)) }

// Command compiles pattern and registers the command.
func (r *Registry) Command(id, pattern string, fn CommandFunc) error {
	c, err := NewCommand(id, pattern, fn)
	if err != nil {
		return err
	}
	return r.Add(c)
}

func (r *Registry) Module(m *Module) error { return r.Add(m) }

// Modules returns the registered top-level modules in order.
func (r *Registry) Modules() []*Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Processors returns a snapshot of the chain.
func (r *Registry) Processors() []Processor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Processor, len(r.procs))
	copy(out, r.procs)
	return out
}
