package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/fredo994/coinbase-feed/internal/config"
	"github.com/fredo994/coinbase-feed/internal/connection"
	"github.com/fredo994/coinbase-feed/internal/feed"
	"github.com/fredo994/coinbase-feed/internal/handler"
	"github.com/fredo994/coinbase-feed/internal/metrics"
	"github.com/fredo994/coinbase-feed/internal/sink"
	"github.com/fredo994/coinbase-feed/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/scraper.yaml", "path to config file")
	outDir := flag.String("out", "", "output directory (overrides output.directory)")
	flag.Parse()

	if err := run(*configPath, *outDir); err != nil {
		slog.Error("scraper failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, outDir string) error {
	// Load configuration
	cfg, err := config.LoadAndValidate(configPath, config.WithOutputDirectory(outDir))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting scraper",
		"version", version.String(),
		"config", configPath,
		"url", cfg.FeedURL(),
	)

	channels, err := cfg.Channels()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	sinks, err := buildSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	sinks.Add(collector)

	dialCfg := connection.DefaultClientConfig()
	dialCfg.HandshakeTimeout = cfg.Feed.HandshakeTimeout
	dialCfg.WriteTimeout = cfg.Feed.WriteTimeout

	client := feed.New(cfg.FeedURL(),
		feed.WithLogger(logger),
		feed.WithMetrics(collector),
		feed.WithDialer(connection.NewDialer(dialCfg, logger)),
	)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Enabled {
		server := metrics.NewServer(
			metrics.ServerConfig{Port: cfg.Metrics.Port, Path: cfg.Metrics.Path},
			reg,
			func(context.Context) error {
				if s := client.State(); s != feed.StateRunning {
					return fmt.Errorf("feed client %s", s)
				}
				return nil
			},
			logger,
		)
		g.Go(func() error { return server.Run(gctx) })
	}

	client.Start(sinks)
	client.Controller().Subscribe(cfg.Subscription.ProductIDs, channels)

	logger.Info("scraper running",
		"session_id", client.SessionID(),
		"products", cfg.Subscription.ProductIDs,
		"channels", len(channels),
	)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
		client.Stop()
	case <-client.Done():
		client.Wait()
		runErr = errors.New("feed client terminated")
	case <-gctx.Done():
		logger.Error("metrics server stopped", "error", context.Cause(gctx))
		client.Stop()
	}

	cancel()
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = fmt.Errorf("metrics server: %w", err)
	}

	logger.Info("scraper stopped")
	return runErr
}

// buildSinks creates the configured event sinks.
func buildSinks(ctx context.Context, cfg *config.ScraperConfig, logger *slog.Logger) (*handler.Composite, error) {
	sinks := handler.NewComposite()

	if !cfg.Output.Disabled {
		events, err := sink.ParseEvents(cfg.Output.Events)
		if err != nil {
			return nil, fmt.Errorf("output events: %w", err)
		}
		fileCfg := sink.DefaultFileConfig()
		fileCfg.Directory = cfg.Output.Directory
		fileCfg.Events = events
		fileCfg.FlushInterval = cfg.Output.FlushInterval

		writer, err := sink.NewFileWriter(fileCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create file sink: %w", err)
		}
		sinks.Add(writer)
		logger.Info("file sink enabled", "directory", fileCfg.Directory, "events", events)
	}

	if cfg.Redis.Addr != "" {
		events, err := sink.ParseEvents(cfg.Redis.Events)
		if err != nil {
			return nil, fmt.Errorf("redis events: %w", err)
		}
		rdb, err := sink.ConnectRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		redisSink, err := sink.NewRedisSink(rdb, sink.RedisConfig{
			ChannelPrefix:  cfg.Redis.ChannelPrefix,
			Events:         events,
			PublishTimeout: cfg.Redis.PublishTimeout,
		}, logger)
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("create redis sink: %w", err)
		}
		sinks.Add(redisSink)
		logger.Info("redis sink enabled", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.ChannelPrefix)
	}

	return sinks, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
