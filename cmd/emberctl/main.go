// Package main is a thin usage example for the client package: it dials
// a provider, walks its directory a few levels deep, and prints the
// resulting tree. It carries no independent business logic; an embedder
// wiring config, transport, and client together would do the same thing.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/emberplus-go/goember/client"
	"github.com/emberplus-go/goember/config"
	"github.com/emberplus-go/goember/internal/tlsutil"
	"github.com/emberplus-go/goember/metric"
	"github.com/emberplus-go/goember/transport"
	"github.com/emberplus-go/goember/tree"
)

const (
	Version = "0.1.0"
	appName = "emberctl"

	// discoveryDepth bounds how many directory levels the demo walks
	// past the root before it stops descending and prints what it has.
	discoveryDepth = 3
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("emberctl failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)

	cfg := config.Config{
		Host:              cliCfg.Host,
		Port:              cliCfg.Port,
		RequestTimeout:    cliCfg.RequestTimeout,
		KeepAliveInterval: cliCfg.KeepAliveInterval,
		KeepAliveTimeout:  cliCfg.KeepAliveTimeout,
		TLS:               tlsutil.ClientConfig{Enabled: cliCfg.TLSEnabled},
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	tlsConfig, err := tlsutil.Build(cfg.TLS)
	if err != nil {
		return fmt.Errorf("build TLS config: %w", err)
	}

	stream := transport.NewTCP(cfg.Addr(), tlsConfig)
	registry := metric.NewRegistry()
	c := client.New(stream, cfg, client.WithLogger(logger), client.WithMetrics(registry))

	unsubscribe := c.Events().Subscribe(client.EventConnected, func(ev client.Event) {
		logger.Info("connected", "time", ev.Time)
	})
	defer unsubscribe()
	unsubscribeErr := c.Events().Subscribe(client.EventError, func(ev client.Event) {
		logger.Warn("session error", "error", ev.Err)
	})
	defer unsubscribeErr()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("connecting", "addr", cfg.Addr())
	if err := c.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if err := c.Disconnect(); err != nil {
			logger.Warn("disconnect", "error", err)
		}
	}()

	discoverCtx, discoverCancel := context.WithTimeout(ctx, 30*time.Second)
	defer discoverCancel()

	if err := discover(discoverCtx, c, logger); err != nil {
		return fmt.Errorf("discover tree: %w", err)
	}

	snapshot, err := c.SaveTree(discoverCtx)
	if err != nil {
		return fmt.Errorf("save tree: %w", err)
	}
	printTree(os.Stdout, snapshot)

	stats := c.Stats()
	logger.Info("session stats",
		"frames_in", stats.FramesIn,
		"frames_out", stats.FramesOut,
		"requests_completed", stats.RequestsCompleted)

	return nil
}

// discover requests the top-level directory, then recursively requests
// the directory of every node/matrix/function it finds, down to
// discoveryDepth levels, mirroring what a console application does on
// first connecting to a provider.
func discover(ctx context.Context, c *client.Client, logger *slog.Logger) error {
	root, err := c.GetDirectory(ctx, nil)
	if err != nil {
		return err
	}
	return walkChildren(ctx, c, root, tree.Path{}, 1, logger)
}

func walkChildren(ctx context.Context, c *client.Client, el tree.Element, path tree.Path, depth int, logger *slog.Logger) error {
	if depth > discoveryDepth {
		return nil
	}
	for _, child := range el.Children() {
		childPath := path.Append(child.Number())
		switch child.Kind() {
		case tree.KindNode, tree.KindMatrix, tree.KindFunction:
			frag, err := c.GetDirectory(ctx, childPath)
			if err != nil {
				logger.Warn("getDirectory failed", "path", childPath.String(), "error", err)
				continue
			}
			resolved, err := c.GetElementByPathnum(ctx, childPath)
			if err != nil || resolved == nil {
				continue
			}
			_ = frag
			if err := walkChildren(ctx, c, resolved, childPath, depth+1, logger); err != nil {
				return err
			}
		}
	}
	return nil
}
