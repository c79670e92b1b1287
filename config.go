package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nicebartender/runbot/errs"
)

type Config struct {
	// Client mode
	URL            string        `yaml:"url"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`

	// Server mode
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`

	AccessToken string        `yaml:"access_token"`
	Keepalive   time.Duration `yaml:"keepalive"`
	MaxInflight int64         `yaml:"max_inflight"`
	SendRate    float64       `yaml:"send_rate"`
	SendBurst   int           `yaml:"send_burst"`

	DBPath             string `yaml:"db"`
	MetricsAddr        string `yaml:"metrics_addr"`
	LogLevel           string `yaml:"log_level"`
	AutoApproveFriends bool   `yaml:"auto_approve_friends"`
}

func DefaultConfig() Config {
	return Config{
		URL:            "ws://127.0.0.1:3001",
		ReconnectDelay: 15 * time.Second,
		Listen:         defaultListen(),
		Path:           "/",
		Keepalive:      30 * time.Second,
		DBPath:         "runbot.db",
		LogLevel:       "info",
	}
}

// LoadConfig layers the config file at path (if any) and RUNBOT_*
// variables over the defaults. Command line flags go on top, see
// options.apply.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(errs.KindParams, "config", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return errs.Params("config", "%s: %v", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.URL = envOrDefault("RUNBOT_URL", c.URL)
	c.Listen = envOrDefault("RUNBOT_LISTEN", c.Listen)
	c.Path = envOrDefault("RUNBOT_PATH", c.Path)
	c.AccessToken = envOrDefault("RUNBOT_ACCESS_TOKEN", c.AccessToken)
	c.DBPath = envOrDefault("RUNBOT_DB", c.DBPath)
	c.MetricsAddr = envOrDefault("RUNBOT_METRICS_ADDR", c.MetricsAddr)
	c.LogLevel = envOrDefault("RUNBOT_LOG_LEVEL", c.LogLevel)

	var err error
	if c.ReconnectDelay, err = envDuration("RUNBOT_RECONNECT_DELAY", c.ReconnectDelay); err != nil {
		return err
	}
	if c.Keepalive, err = envDuration("RUNBOT_KEEPALIVE", c.Keepalive); err != nil {
		return err
	}
	if v := os.Getenv("RUNBOT_MAX_INFLIGHT"); v != "" {
		if c.MaxInflight, err = strconv.ParseInt(v, 10, 64); err != nil {
			return errs.Params("config", "RUNBOT_MAX_INFLIGHT: %v", err)
		}
	}
	if v := os.Getenv("RUNBOT_SEND_RATE"); v != "" {
		if c.SendRate, err = strconv.ParseFloat(v, 64); err != nil {
			return errs.Params("config", "RUNBOT_SEND_RATE: %v", err)
		}
	}
	if v := os.Getenv("RUNBOT_AUTO_APPROVE_FRIENDS"); v != "" {
		if c.AutoApproveFriends, err = strconv.ParseBool(v); err != nil {
			return errs.Params("config", "RUNBOT_AUTO_APPROVE_FRIENDS: %v", err)
		}
	}
	return nil
}

// Validate checks the settings the given mode ("connect" or "serve") needs.
func (c *Config) Validate(mode string) error {
	switch mode {
	case modeConnect:
		if !strings.HasPrefix(c.URL, "ws://") && !strings.HasPrefix(c.URL, "wss://") {
			return errs.Params("config", "url must be a ws:// or wss:// url, got %q", c.URL)
		}
		if c.ReconnectDelay <= 0 {
			return errs.Params("config", "reconnect_delay must be positive")
		}
	case modeServe:
		if c.Listen == "" {
			return errs.Params("config", "listen address is required")
		}
		if !strings.HasPrefix(c.Path, "/") {
			return errs.Params("config", "path must start with /")
		}
	default:
		return errs.Params("config", "unknown mode %q", mode)
	}
	if c.Keepalive < 0 {
		return errs.Params("config", "keepalive must not be negative")
	}
	if c.MaxInflight < 0 {
		return errs.Params("config", "max_inflight must not be negative")
	}
	if c.SendRate < 0 || c.SendBurst < 0 {
		return errs.Params("config", "send_rate and send_burst must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel (debug, info, warn or error).
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, errs.Params("config", "log_level %q: want debug, info, warn or error", c.LogLevel)
	}
	return l, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, errs.Params("config", "%s: %v", key, err)
	}
	return d, nil
}

func defaultListen() string {
	// Railway, Render, etc. set PORT
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

// options are the command line overrides. Only flags the user set are
// applied.
type options struct {
	configPath     string
	dbPath         string
	metricsAddr    string
	logLevel       string
	accessToken    string
	keepalive      time.Duration
	maxInflight    int64
	sendRate       float64
	autoApprove    bool
	url            string
	reconnectDelay time.Duration
	listen         string
	path           string
}

func (o *options) apply(cmd *cobra.Command, c *Config) {
	flags := cmd.Flags()
	set := func(name string, fn func()) {
		if flags.Changed(name) {
			fn()
		}
	}
	set("db", func() { c.DBPath = o.dbPath })
	set("metrics-addr", func() { c.MetricsAddr = o.metricsAddr })
	set("log-level", func() { c.LogLevel = o.logLevel })
	set("access-token", func() { c.AccessToken = o.accessToken })
	set("keepalive", func() { c.Keepalive = o.keepalive })
	set("max-inflight", func() { c.MaxInflight = o.maxInflight })
	set("send-rate", func() { c.SendRate = o.sendRate })
	set("auto-approve-friends", func() { c.AutoApproveFriends = o.autoApprove })
	set("url", func() { c.URL = o.url })
	set("reconnect-delay", func() { c.ReconnectDelay = o.reconnectDelay })
	set("listen", func() { c.Listen = o.listen })
	set("path", func() { c.Path = o.path })
}

// resolve loads the configuration for cmd and validates it for mode.
func (o *options) resolve(cmd *cobra.Command, mode string) (Config, error) {
	cfg, err := LoadConfig(o.configPath)
	if err != nil {
		return cfg, err
	}
	o.apply(cmd, &cfg)
	return cfg, cfg.Validate(mode)
}
