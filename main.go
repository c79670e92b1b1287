package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	modeConnect = "connect"
	modeServe   = "serve"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command { return rootCommand(&options{}) }

// rootCommand builds the command tree with every flag bound to opts.
func rootCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runbot",
		Short: "OneBot v11 bot runtime",
		Long: `runbot connects to a OneBot v11 implementation over websocket and runs
the built-in moderation and utility modules.

Settings come from defaults, then --config, then RUNBOT_* variables, then
flags.`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&opts.dbPath, "db", "", "SQLite archive path; empty string disables archiving")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "address for /metrics and /health, e.g. :9090")
	pf.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&opts.accessToken, "access-token", "", "OneBot access token")
	pf.DurationVar(&opts.keepalive, "keepalive", 0, "websocket ping interval, 0 disables")
	pf.Int64Var(&opts.maxInflight, "max-inflight", 0, "max concurrently handled events per bot, 0 is unbounded")
	pf.Float64Var(&opts.sendRate, "send-rate", 0, "max outgoing requests per second per bot, 0 is unlimited")
	pf.BoolVar(&opts.autoApprove, "auto-approve-friends", false, "accept every friend request")

	cmd.AddCommand(newConnectCommand(opts), newServeCommand(opts))
	return cmd
}

func newConnectCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Dial a OneBot forward websocket and keep reconnecting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd, opts, modeConnect)
		},
	}
	cmd.Flags().StringVar(&opts.url, "url", "", "OneBot websocket url, e.g. ws://127.0.0.1:3001")
	cmd.Flags().DurationVar(&opts.reconnectDelay, "reconnect-delay", 0, "pause between connection attempts")
	return cmd
}

func newServeCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept reverse websocket connections from OneBot implementations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd, opts, modeServe)
		},
	}
	cmd.Flags().StringVar(&opts.listen, "listen", "", "listen address, e.g. :8080")
	cmd.Flags().StringVar(&opts.path, "path", "", "websocket endpoint path")
	return cmd
}

func runMode(cmd *cobra.Command, opts *options, mode string) error {
	cfg, err := opts.resolve(cmd, mode)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if mode == modeServe {
		return a.serve(ctx)
	}
	return a.connect(ctx)
}
