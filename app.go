package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/nicebartender/runbot/bot"
	"github.com/nicebartender/runbot/db"
	"github.com/nicebartender/runbot/metrics"
	"github.com/nicebartender/runbot/modules"
)

// app holds what both modes share: logger, archive, metrics and the
// processor registry.
type app struct {
	cfg     Config
	log     *slog.Logger
	store   *db.DB
	prom    *prometheus.Registry
	metrics *metrics.Metrics
	reg     *bot.Registry

	// status reports connections for /health.
	status func() map[string]any
}

func newApp(cfg Config) (*app, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	a := &app{cfg: cfg, log: log, prom: prometheus.NewRegistry(), reg: bot.NewRegistry()}
	a.prom.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if a.metrics, err = metrics.New(a.prom); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	if cfg.DBPath != "" {
		if a.store, err = db.Open(cfg.DBPath); err != nil {
			return nil, err
		}
	}
	err = modules.Install(a.reg, modules.Config{
		Archive:            a.store,
		AutoApproveFriends: cfg.AutoApproveFriends,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) options() bot.Options {
	return bot.Options{
		Logger:      a.log,
		Metrics:     a.metrics,
		MaxInflight: a.cfg.MaxInflight,
		SendRate:    a.cfg.SendRate,
		SendBurst:   a.cfg.SendBurst,
	}
}

func (a *app) connect(ctx context.Context) error {
	c, err := bot.NewClient(bot.ClientConfig{
		URL:            a.cfg.URL,
		AccessToken:    a.cfg.AccessToken,
		ReconnectDelay: a.cfg.ReconnectDelay,
		Keepalive:      a.cfg.Keepalive,
		Options:        a.options(),
	}, a.reg)
	if err != nil {
		return err
	}
	a.status = func() map[string]any {
		return map[string]any{"state": c.State().String(), "self_id": c.Bot().SelfID()}
	}
	a.log.Info("runbot starting", "mode", modeConnect, "url", a.cfg.URL)
	return a.run(ctx, c.Run)
}

func (a *app) serve(ctx context.Context) error {
	s, err := bot.NewServer(bot.ServerConfig{
		Listen:      a.cfg.Listen,
		Path:        a.cfg.Path,
		AccessToken: a.cfg.AccessToken,
		Keepalive:   a.cfg.Keepalive,
		Options:     a.options(),
	}, a.reg)
	if err != nil {
		return err
	}
	a.status = func() map[string]any {
		ids := []string{}
		for _, b := range s.Bots() {
			ids = append(ids, b.SelfID().String())
		}
		return map[string]any{"bots": ids}
	}
	a.log.Info("runbot starting", "mode", modeServe, "addr", a.cfg.Listen)
	return a.run(ctx, s.ListenAndServe)
}

// handler serves /metrics and /health.
func (a *app) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.prom, promhttp.HandlerOpts{Registry: a.prom}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if a.status != nil {
			for k, v := range a.status() {
				body[k] = v
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	})
	return mux
}

// run runs the bot side next to the metrics server. Either failing stops
// both.
func (a *app) run(ctx context.Context, bots func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.serveMetrics(ctx) })
	g.Go(func() error { return bots(ctx) })
	return g.Wait()
}

func (a *app) serveMetrics(ctx context.Context) error {
	if a.cfg.MetricsAddr == "" {
		return nil
	}
	srv := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           a.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	})
	defer stop()

	a.log.Info("metrics listening", "addr", a.cfg.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}
