package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/openuno/cardroom/internal/activity"
	"github.com/openuno/cardroom/internal/lobby"
	"github.com/openuno/cardroom/internal/server"
)

// ServerCmd runs the realtime gateway.
type ServerCmd struct {
	Addr   string `kong:"help='Listen address, overrides config'"`
	Config string `kong:"default='cardroom.hcl',help='Path to HCL configuration file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed for game shuffles (optional)'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return err
	}

	logger := setupLogger(c.Debug, cfg.Server.LogLevel)

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	activityLog := activity.NewLogger(logger, nil)
	registry := lobby.NewRegistry(logger,
		lobby.WithCapacities(cfg.Capacities()),
		lobby.WithActivityLog(activityLog),
	)
	srv := server.NewServer(registry, rng, logger,
		server.WithActivityLog(activityLog),
	)

	addr := cfg.Addr()
	if c.Addr != "" {
		addr = c.Addr
	}
	logger.Info("starting cardroom server", "addr", addr, "games", len(cfg.Games))

	ctx := signalContext(logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return srv.Stop()
	})

	return g.Wait()
}

func setupLogger(debug bool, level string) *log.Logger {
	logger := log.New(os.Stderr)
	switch {
	case debug:
		logger.SetLevel(log.DebugLevel)
	case level == "debug":
		logger.SetLevel(log.DebugLevel)
	case level == "warn":
		logger.SetLevel(log.WarnLevel)
	case level == "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// signalContext creates a context that is cancelled on interrupt signals.
func signalContext(logger *log.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down gracefully", "signal", sig.String())
		cancel()
	}()

	return ctx
}
