// Package bot runs processor chains over a OneBot connection and correlates
// the requests processors send with the responses that come back.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/nicebartender/runbot/errs"
	"github.com/nicebartender/runbot/event"
	"github.com/nicebartender/runbot/metrics"
)

// Options are shared by Client and Server.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// MaxInflight bounds concurrently dispatched events. When the bound is
	// reached the read loop stops reading. Zero means unbounded.
	MaxInflight int64
	// SendRate limits outgoing requests per second, with SendBurst allowed
	// at once. Zero means unlimited.
	SendRate  float64
	SendBurst int
}

// Bot is one logical connection to a OneBot implementation. Its processors
// are fixed when it is built; the connection underneath may be replaced on
// reconnect.
type Bot struct {
	ctx    context.Context
	cancel context.CancelFunc

	procs   []Processor
	log     *slog.Logger
	metrics *metrics.Metrics
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	pending *pendingTable

	mu      sync.Mutex
	conn    Conn
	writeMu sync.Mutex

	selfID   atomic.Int64
	inflight sync.WaitGroup
}

func newBot(parent context.Context, procs []Processor, opts Options) *Bot {
	ctx, cancel := context.WithCancel(parent)
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	b := &Bot{
		ctx:     ctx,
		cancel:  cancel,
		procs:   procs,
		log:     log,
		metrics: opts.Metrics,
		pending: newPendingTable(opts.Metrics),
	}
	if opts.MaxInflight > 0 {
		b.sem = semaphore.NewWeighted(opts.MaxInflight)
	}
	if opts.SendRate > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(opts.SendRate), max(opts.SendBurst, 1))
	}
	return b
}

// SelfID is the account the connection belongs to, learned from the
// X-Self-ID header or from the self_id of received events. It is 0 until
// known.
func (b *Bot) SelfID() event.ID { return event.ID(b.selfID.Load()) }

// Shutdown stops the bot for good: the connection is closed, reconnects
// stop, waiting replies fail and the context handed to processors is
// cancelled. It is safe to call more than once.
func (b *Bot) Shutdown() { b.cancel() }

// Done is closed once Shutdown has been called.
func (b *Bot) Done() <-chan struct{} { return b.ctx.Done() }

// Logger is the logger processors should use.
func (b *Bot) Logger() *slog.Logger { return b.log }

// Send writes a request and returns a Reply to await its response. It fails
// with a State error when no connection is up and a Transport error when
// the write fails. With a SendRate set it first waits for its turn.
func (b *Bot) Send(ctx context.Context, action string, params any) (*Reply, error) {
	op := "send " + action
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.ctx.Err() != nil {
		return nil, errs.State(op, "bot shut down")
	}

	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			if ctx.Err() == context.Canceled {
				return nil, ctx.Err()
			}
			// The deadline ends before a slot frees up.
			return nil, errs.Wrap(errs.KindTimeout, op, err)
		}
	}

	echo := uuid.NewString()
	frame, err := encodeAction(action, params, echo)
	if err != nil {
		return nil, errs.Wrap(errs.KindParams, op, err)
	}

	ch := b.pending.register(echo)
	conn := b.currentConn()
	if conn == nil {
		b.pending.remove(echo)
		b.metrics.RequestDone(action, metrics.RequestNotReady)
		return nil, errs.State(op, "connection not ready")
	}

	b.writeMu.Lock()
	err = conn.WriteMessage(frame)
	b.writeMu.Unlock()
	if err != nil {
		b.pending.remove(echo)
		b.metrics.RequestDone(action, metrics.RequestTransport)
		return nil, errs.Transport(op, err)
	}
	return newReply(b, action, echo, ch), nil
}

func (b *Bot) currentConn() Conn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn
}

func (b *Bot) swapConn(old, conn Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == old {
		b.conn = conn
	}
}

// serve reads conn until it fails or the bot shuts down. It returns nil
// after a shutdown and a Transport error otherwise.
func (b *Bot) serve(conn Conn) error {
	b.swapConn(b.currentConn(), conn)
	defer b.swapConn(conn, nil)

	stop := context.AfterFunc(b.ctx, func() { conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		frame, err := conn.ReadMessage()
		if err != nil {
			if b.ctx.Err() != nil {
				return nil
			}
			return errs.Transport("read", err)
		}
		if err := b.handleFrame(frame); err != nil {
			return nil
		}
	}
}

// handleFrame decodes a frame, resolves it if it is a response and hands it
// to the processors in its own goroutine. It only fails when the bot shuts
// down while waiting for a dispatch slot.
func (b *Bot) handleFrame(frame []byte) error {
	p, err := event.Parse(frame)
	if err != nil {
		b.metrics.DecodeFailed()
		b.log.Warn("dropping malformed frame", "err", err)
		return nil
	}
	b.metrics.FrameReceived(p.Kind().String())

	if id := event.SelfIDOf(p); id != 0 {
		b.selfID.Store(int64(id))
	}
	if r, ok := p.(*event.Response); ok && !b.pending.resolve(r) {
		b.log.Debug("response without a waiter", "echo", r.Echo)
	}

	if b.sem != nil {
		if err := b.sem.Acquire(b.ctx, 1); err != nil {
			return err
		}
	}
	b.inflight.Add(1)
	go func() {
		defer b.inflight.Done()
		if b.sem != nil {
			defer b.sem.Release(1)
		}
		b.dispatch(p)
	}()
	return nil
}

func (b *Bot) dispatch(p event.Post) {
	start := time.Now()
	outcome := metrics.OutcomeNotHandled
	defer func() {
		if r := recover(); r != nil {
			outcome = metrics.OutcomePanic
			b.log.Error("processor panicked", "kind", p.Kind(), "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		}
		b.metrics.DispatchDone(outcome, time.Since(start))
	}()

	handled, err := Dispatch(b.ctx, b, b.procs, p)
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
		b.log.Warn("processor failed", "kind", p.Kind(), "err", err)
	case handled:
		outcome = metrics.OutcomeHandled
	}
}

// wait blocks until every dispatched event has finished.
func (b *Bot) wait() { b.inflight.Wait() }
