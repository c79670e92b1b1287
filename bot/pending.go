package bot

import (
	"sync"

	"github.com/nicebartender/runbot/event"
	"github.com/nicebartender/runbot/metrics"
)

// pendingTable maps echo tokens of requests in flight to the channel their
// response is delivered on. Each channel has room for exactly one response
// so delivery never blocks the read loop.
type pendingTable struct {
	mu      sync.Mutex
	m       map[string]chan *event.Response
	metrics *metrics.Metrics
}

func newPendingTable(m *metrics.Metrics) *pendingTable {
	return &pendingTable{m: make(map[string]chan *event.Response), metrics: m}
}

func (t *pendingTable) register(echo string) <-chan *event.Response {
	ch := make(chan *event.Response, 1)
	t.mu.Lock()
	t.m[echo] = ch
	t.mu.Unlock()
	t.metrics.PendingAdd(1)
	return ch
}

// resolve delivers r to its waiter and removes the entry. It reports false
// for an unknown echo.
func (t *pendingTable) resolve(r *event.Response) bool {
	t.mu.Lock()
	ch, ok := t.m[r.Echo]
	if ok {
		delete(t.m, r.Echo)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	t.metrics.PendingAdd(-1)
	select {
	case ch <- r:
	default:
	}
	return true
}

func (t *pendingTable) remove(echo string) {
	t.mu.Lock()
	_, ok := t.m[echo]
	delete(t.m, echo)
	t.mu.Unlock()
	if ok {
		t.metrics.PendingAdd(-1)
	}
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.m)
}
