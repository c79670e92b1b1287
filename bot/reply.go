package bot

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nicebartender/runbot/errs"
	"github.com/nicebartender/runbot/event"
	"github.com/nicebartender/runbot/metrics"
)

// Reply is the handle of a request in flight. Its table entry is removed
// when the response arrives, when Wait returns, on Close, or at the latest
// when the Reply is garbage collected.
type Reply struct {
	echo   string
	action string
	ch     <-chan *event.Response
	table  *pendingTable
	bot    *Bot

	used      atomic.Bool
	closeOnce sync.Once
	closed    atomic.Bool
	cleanup   runtime.Cleanup
}

type replyKey struct {
	table *pendingTable
	echo  string
}

func newReply(b *Bot, action, echo string, ch <-chan *event.Response) *Reply {
	r := &Reply{echo: echo, action: action, ch: ch, table: b.pending, bot: b}
	r.cleanup = runtime.AddCleanup(r, func(k replyKey) {
		k.table.remove(k.echo)
	}, replyKey{table: b.pending, echo: echo})
	return r
}

// Echo is the correlation token sent with the request.
func (r *Reply) Echo() string { return r.echo }

// Close releases the table entry. It is idempotent.
func (r *Reply) Close() {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		r.cleanup.Stop()
		r.table.remove(r.echo)
	})
}

// Wait blocks until the response arrives, timeout elapses (when positive),
// ctx is done or the bot shuts down. A Reply can be waited on once.
func (r *Reply) Wait(ctx context.Context, timeout time.Duration) (*event.Response, error) {
	op := "wait " + r.action
	if r.closed.Load() {
		return nil, errs.State(op, "reply %s was closed", r.echo)
	}
	if !r.used.CompareAndSwap(false, true) {
		return nil, errs.State(op, "reply %s was already awaited", r.echo)
	}
	defer r.Close()

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case resp := <-r.ch:
		outcome := metrics.RequestOK
		if resp.RetCode != 0 {
			outcome = metrics.RequestFailed
		}
		r.bot.metrics.RequestDone(r.action, outcome)
		return resp, nil
	case <-expired:
		r.bot.metrics.RequestDone(r.action, metrics.RequestTimeout)
		return nil, errs.Timeout(op, "no response after %s", timeout)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			r.bot.metrics.RequestDone(r.action, metrics.RequestTimeout)
			return nil, errs.Wrap(errs.KindTimeout, op, ctx.Err())
		}
		return nil, ctx.Err()
	case <-r.bot.Done():
		return nil, errs.State(op, "bot shut down")
	}
}

// Data waits for the response and returns its data. A non-zero retcode is a
// State error carrying the server's message.
func (r *Reply) Data(ctx context.Context, timeout time.Duration) (json.RawMessage, error) {
	resp, err := r.Wait(ctx, timeout)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Decode is Data followed by unmarshalling into v.
func (r *Reply) Decode(ctx context.Context, timeout time.Duration, v any) error {
	data, err := r.Data(ctx, timeout)
	if err != nil {
		return err
	}
	if v == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errs.Wrap(errs.KindField, "decode "+r.action, err)
	}
	return nil
}
