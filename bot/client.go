package bot

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nicebartender/runbot/errs"
	"github.com/nicebartender/runbot/ws"
)

// DefaultReconnectDelay is the pause between connection attempts.
const DefaultReconnectDelay = 15 * time.Second

// State is the lifecycle position of a Client.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
	ShuttingDown
	Terminal
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case ShuttingDown:
		return "shutting_down"
	case Terminal:
		return "terminal"
	default:
		return "unknown"
	}
}

type ClientConfig struct {
	// URL of the OneBot forward websocket, e.g. ws://127.0.0.1:3001.
	URL         string
	AccessToken string
	// ReconnectDelay defaults to DefaultReconnectDelay.
	ReconnectDelay time.Duration
	// Keepalive is the websocket ping interval; zero disables pings.
	Keepalive time.Duration
	// Dial replaces the websocket dialer, mainly for tests.
	Dial DialFunc
	Options
}

// Client keeps one Bot connected to a OneBot server, reconnecting until it
// is shut down.
type Client struct {
	cfg     ClientConfig
	bot     *Bot
	state   atomic.Int32
	running atomic.Bool
}

// NewClient validates cfg and builds the client's Bot from the processors
// registered in reg.
func NewClient(cfg ClientConfig, reg *Registry) (*Client, error) {
	if cfg.URL == "" {
		return nil, errs.Params("client", "url is required")
	}
	if reg == nil {
		return nil, errs.Params("client", "registry is required")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.Dial == nil {
		keepalive := cfg.Keepalive
		cfg.Dial = func(ctx context.Context, url, token string) (Conn, error) {
			c, err := ws.Dial(ctx, url, token)
			if err != nil {
				return nil, err
			}
			c.Keepalive(keepalive)
			return c, nil
		}
	}
	return &Client{
		cfg: cfg,
		bot: newBot(context.Background(), reg.Processors(), cfg.Options),
	}, nil
}

func (c *Client) Bot() *Bot { return c.bot }

func (c *Client) State() State { return State(c.state.Load()) }

// Shutdown stops the client; Run returns once in-flight handlers finish.
func (c *Client) Shutdown() { c.bot.Shutdown() }

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Run connects and serves until ctx is done or Shutdown is called, waiting
// ReconnectDelay after every failed attempt or lost connection. It returns
// nil after a shutdown. Running a client that was already shut down is a
// State error.
func (c *Client) Run(ctx context.Context) error {
	b := c.bot
	if b.ctx.Err() != nil {
		return errs.State("run", "client was shut down")
	}
	if !c.running.CompareAndSwap(false, true) {
		return errs.State("run", "client is already running")
	}
	defer c.running.Store(false)

	stop := context.AfterFunc(ctx, b.Shutdown)
	defer stop()

	log := b.log.With("url", c.cfg.URL)
	for {
		c.setState(Connecting)
		conn, err := c.cfg.Dial(b.ctx, c.cfg.URL, c.cfg.AccessToken)
		if b.ctx.Err() != nil {
			if conn != nil {
				conn.Close()
			}
			break
		}
		if err != nil {
			log.Warn("connect failed", "err", err, "retry_in", c.cfg.ReconnectDelay)
		} else {
			c.setState(Connected)
			b.metrics.ConnectionsAdd(1)
			log.Info("connected")
			err = b.serve(conn)
			b.metrics.ConnectionsAdd(-1)
			if b.ctx.Err() != nil {
				break
			}
			if ws.IsClosed(err) {
				log.Info("connection closed by peer", "retry_in", c.cfg.ReconnectDelay)
			} else {
				log.Warn("connection lost", "err", err, "retry_in", c.cfg.ReconnectDelay)
			}
		}

		c.setState(Disconnected)
		t := time.NewTimer(c.cfg.ReconnectDelay)
		select {
		case <-b.Done():
			t.Stop()
		case <-t.C:
			b.metrics.Reconnected()
			continue
		}
		break
	}

	c.setState(ShuttingDown)
	log.Info("shutting down")
	b.wait()
	c.setState(Terminal)
	return nil
}
