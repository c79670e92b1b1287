package bot

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nicebartender/runbot/errs"
	"github.com/nicebartender/runbot/event"
	"github.com/nicebartender/runbot/ws"
)

// SelfIDHeader carries the account id on reverse websocket connections.
const SelfIDHeader = "X-Self-ID"

type ServerConfig struct {
	// Listen is the address ListenAndServe binds, e.g. :8080.
	Listen string
	// Path the websocket endpoint is mounted on; defaults to "/".
	Path        string
	AccessToken string
	Keepalive   time.Duration
	Options
}

// Server accepts reverse websocket connections from OneBot
// implementations. Every connection gets its own Bot running the same
// processors.
type Server struct {
	cfg   ServerConfig
	procs []Processor

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.RWMutex
	bots map[event.ID]*Bot
	// anon holds bots that connected without X-Self-ID. They never replace
	// each other.
	anon map[*Bot]struct{}
	wg   sync.WaitGroup
}

func NewServer(cfg ServerConfig, reg *Registry) (*Server, error) {
	if cfg.Listen == "" {
		return nil, errs.Params("server", "listen address is required")
	}
	if reg == nil {
		return nil, errs.Params("server", "registry is required")
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:    cfg,
		procs:  reg.Processors(),
		ctx:    ctx,
		cancel: cancel,
		bots:   make(map[event.ID]*Bot),
		anon:   make(map[*Bot]struct{}),
	}, nil
}

// ServeHTTP upgrades the request and serves the connection until it ends.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.wg.Add(1)
	defer s.wg.Done()

	log := s.cfg.Logger.With("remote", r.RemoteAddr)
	if s.ctx.Err() != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	var selfID event.ID
	if h := r.Header.Get(SelfIDHeader); h != "" {
		id, err := event.ParseID(h)
		if err != nil {
			http.Error(w, "bad "+SelfIDHeader, http.StatusBadRequest)
			return
		}
		selfID = id
	}

	conn, err := ws.Accept(w, r, s.cfg.AccessToken)
	if err != nil {
		log.Warn("rejected connection", "err", err)
		return
	}
	conn.Keepalive(s.cfg.Keepalive)

	b := newBot(s.ctx, s.procs, s.cfg.Options)
	b.selfID.Store(int64(selfID))
	s.track(selfID, b)
	defer s.untrack(selfID, b)

	s.cfg.Metrics.ConnectionsAdd(1)
	defer s.cfg.Metrics.ConnectionsAdd(-1)

	log.Info("bot connected", "self_id", selfID)
	err = b.serve(conn)
	b.Shutdown()
	b.wait()
	if err != nil && !ws.IsClosed(err) {
		log.Warn("bot disconnected", "self_id", selfID, "err", err)
		return
	}
	log.Info("bot disconnected", "self_id", selfID)
}

// track registers b under id, shutting down a previous bot with the same id.
// Bots with an unknown id are kept side by side.
func (s *Server) track(id event.ID, b *Bot) {
	s.mu.Lock()
	if id == 0 {
		s.anon[b] = struct{}{}
		s.mu.Unlock()
		return
	}
	old := s.bots[id]
	s.bots[id] = b
	s.mu.Unlock()
	if old != nil {
		s.cfg.Logger.Info("replacing connection", "self_id", id)
		old.Shutdown()
	}
}

func (s *Server) untrack(id event.ID, b *Bot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 {
		delete(s.anon, b)
		return
	}
	if s.bots[id] == b {
		delete(s.bots, id)
	}
}

// Bot returns the connected bot for an account. Connections that did not
// send X-Self-ID are only listed by Bots.
func (s *Server) Bot(selfID event.ID) (*Bot, bool) {
	if selfID == 0 {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bots[selfID]
	return b, ok
}

// Bots returns every connected bot.
func (s *Server) Bots() []*Bot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Bot, 0, len(s.bots)+len(s.anon))
	for _, b := range s.bots {
		out = append(out, b)
	}
	for b := range s.anon {
		out = append(out, b)
	}
	return out
}

// Shutdown disconnects every bot and refuses new connections.
func (s *Server) Shutdown() { s.cancel() }

// ListenAndServe serves the websocket endpoint on cfg.Listen until ctx is
// done, then shuts every bot down and waits for their handlers.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.Path, s)
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		s.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	})
	defer stop()

	s.cfg.Logger.Info("listening for bots", "addr", s.cfg.Listen, "path", s.cfg.Path)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		s.wg.Wait()
		return nil
	}
	s.Shutdown()
	return errs.Transport("listen "+s.cfg.Listen, err)
}
