// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/wardenhq/warden/lib/clock"
	"github.com/wardenhq/warden/lib/config"
	"github.com/wardenhq/warden/lib/logplugin"
	"github.com/wardenhq/warden/lib/logsink"
	"github.com/wardenhq/warden/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("warden-daemon", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to warden.yaml (default: $WARDEN_CONFIG)")
	backends := flags.String("backends", "", "comma-separated backend list, overrides config")
	disableLogging := flags.Bool("disable-logging", false, "disable ERROR/INFO logging")
	secondaryStatusOnly := flags.Bool("secondary-status-only", false,
		"only send status logs to secondary backends")
	synchronousRelay := flags.Bool("synchronous-relay", false,
		"relay status logs synchronously on the emitting goroutine")
	minSeverity := flags.String("min-severity", "", "minimum severity to capture, overrides config")
	verbose := flags.Bool("verbose", false, "enable verbose informational messages")
	relayInterval := flags.Duration("relay-interval", 3*time.Second,
		"how often buffered status logs are relayed")
	logDir := flags.String("log-dir", "/var/log/warden", "directory for the filesystem backend")
	maxLogSize := flags.Int64("max-log-size", 10*1024*1024,
		"byte size at which the filesystem backend rotates a log file")
	remoteBackends := flags.StringSlice("remote-backend", nil,
		"remote backend as name=socket-path, repeatable")
	showVersion := flags.Bool("version", false, "print version and exit")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}
	if *showVersion {
		fmt.Println(version.Full())
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	// Flags override the file.
	if *backends != "" {
		cfg.Logging.Backends = *backends
	}
	if *disableLogging {
		cfg.Logging.Disabled = true
	}
	if *secondaryStatusOnly {
		cfg.Logging.SecondaryStatusOnly = true
	}
	if *synchronousRelay {
		cfg.Logging.SynchronousRelay = true
	}
	if *minSeverity != "" {
		cfg.Logging.MinSeverity = *minSeverity
	}
	if *verbose {
		cfg.Logging.Verbose = true
	}

	severity, err := cfg.Logging.MinSeverityValue()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()

	// Capture starts before any backend exists: facility + sink up
	// first, slog routed through the facility, then backends.
	facility := logsink.NewFacility(os.Stderr, clk)
	dispatcher, registry, sink, err := buildLogging(facility, clk, cfg, *logDir, *maxLogSize, *remoteBackends)
	if err != nil {
		return err
	}

	logsink.InitStatusLogger(sink, facility, logsink.Verbosity{
		Verbose:        cfg.Logging.Verbose,
		MinSeverity:    severity,
		MinSeveritySet: cfg.Logging.MinSeverity != "",
		DisableLogging: cfg.Logging.Disabled,
	}, logsink.ModeDaemon)

	logger := slog.New(facility.Handler())
	slog.SetDefault(logger)

	forwarder := &eventForwarderLog{}
	logplugin.InitBackends(sink, facility, dispatcher, registry, forwarder, logplugin.InitConfig{
		ProcessName:    "warden-daemon",
		Backends:       logplugin.SplitBackendList(cfg.Logging.Backends),
		DisableLogging: cfg.Logging.Disabled,
	})

	logger.Info("warden daemon running",
		"version", version.Info(),
		"backends", cfg.Logging.Backends,
		"primary", sink.Primary(),
		"forwarding_targets", strings.Join(sink.ForwardingTargets(), ","),
		"event_forwarders", strings.Join(forwarder.names, ","),
		"relay_interval", *relayInterval,
	)

	runDrainLoop(ctx, sink, clk, *relayInterval)

	// Final flush so lines emitted during shutdown reach the
	// backends before the process exits.
	sink.Relay(true)
	for sink.PendingRelays() > 0 {
		sink.DrainPending()
	}
	sink.Disable()
	return nil
}

// loadConfig loads the YAML config from the explicit path, from
// WARDEN_CONFIG, or falls back to defaults when neither is set.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("WARDEN_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

// buildLogging constructs the registry, dispatcher, and sink. The
// dispatcher needs the sink for primary checks and is the sink's
// status dispatcher, so the sink is created last and the dispatcher's
// checker is bound through a small indirection.
func buildLogging(facility *logsink.Facility, clk clock.Clock, cfg *config.Config, logDir string, maxLogSize int64, remoteBackends []string) (*logplugin.Dispatcher, *logplugin.Registry, *logsink.BufferedSink, error) {
	registry := logplugin.NewRegistry()
	if err := registry.Register("filesystem", newFilesystemBackend(logDir, maxLogSize)); err != nil {
		return nil, nil, nil, err
	}
	if err := registry.Register("console", newConsoleBackend(os.Stdout)); err != nil {
		return nil, nil, nil, err
	}
	for _, spec := range remoteBackends {
		name, socketPath, ok := strings.Cut(spec, "=")
		if !ok || name == "" || socketPath == "" {
			return nil, nil, nil, fmt.Errorf("malformed --remote-backend %q, want name=socket-path", spec)
		}
		if err := registry.Register(name, logplugin.NewRemoteBackend(socketPath)); err != nil {
			return nil, nil, nil, err
		}
	}

	checker := &lazyPrimaryChecker{}
	dispatcher := logplugin.NewDispatcher(registry, checker, logplugin.DispatcherConfig{
		SecondaryStatusOnly: cfg.Logging.SecondaryStatusOnly,
		DisableLogging:      cfg.Logging.Disabled,
	})

	sink := logsink.NewBufferedSink(facility, dispatcher, clk, logsink.Config{
		DisableLogging:   cfg.Logging.Disabled,
		SynchronousRelay: cfg.Logging.SynchronousRelay,
		ToolMode:         logsink.ModeDaemon,
	})
	checker.sink = sink
	return dispatcher, registry, sink, nil
}

// lazyPrimaryChecker defers to the sink once it exists. Every name is
// primary until then, matching the sink's own permissive default.
type lazyPrimaryChecker struct {
	sink *logsink.BufferedSink
}

func (c *lazyPrimaryChecker) IsPrimary(name string) bool {
	if c.sink == nil {
		return true
	}
	return c.sink.IsPrimary(name)
}

// eventForwarderLog records backends that declared event support. The
// daemon has no event pipeline of its own yet; registration is
// surfaced in the startup log line.
type eventForwarderLog struct {
	names []string
}

func (f *eventForwarderLog) RegisterForwarder(name string) {
	f.names = append(f.names, name)
}

// runDrainLoop relays buffered status logs and reaps completed
// deferred relays on a steady schedule until ctx is cancelled. The
// steady DrainPending keeps the pending-handle queue from growing
// without bound.
func runDrainLoop(ctx context.Context, sink *logsink.BufferedSink, clk clock.Clock, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-clk.After(interval):
			sink.Relay(false)
			for sink.PendingRelays() > 0 {
				sink.DrainPending()
			}
		}
	}
}
