package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"tvpanel/internal/adb"
	"tvpanel/internal/api"
	"tvpanel/internal/config"
	"tvpanel/internal/events"
	"tvpanel/internal/session"
	"tvpanel/internal/supervisor"
)

func main() {
	listen := flag.String("listen", "", "HTTP listen address (overrides config)")
	adbPath := flag.String("adb", "", "path to the adb binary (overrides config)")
	cfgPath := flag.String("config", "", "optional yaml config file, hot-reloaded on change")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	zcfg := zap.NewProductionConfig()
	if *verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *adbPath != "" {
		cfg.ADBPath = *adbPath
	}

	state := session.New(cfg.Device.Host, cfg.Device.Port)
	runner := adb.NewRunner(cfg.ADBPath, logger.Named("invoker"))
	commander := adb.NewCommander(runner, state, logger.Named("adb"))
	hub := events.NewHub()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	reconnect := supervisor.NewReconnect(commander, state, hub, logger.Named("reconnect"), supervisor.ReconnectOptions{})
	g.Go(func() error {
		reconnect.Run(ctx)
		return nil
	})

	if *cfgPath != "" {
		g.Go(func() error {
			return config.Watch(ctx, *cfgPath, logger.Named("config"), func(c config.Config) {
				target, err := state.SetHost(c.Device.Host)
				if err != nil {
					logger.Warn("ignoring reloaded config without device host")
					return
				}
				logger.Info("device retargeted from config", zap.String("target", target))
				hub.Publish("info", "device retargeted to "+target)
			})
		})
	}

	handlers := api.NewHandlers(state, commander, hub, logger.Named("api"))
	srv := &http.Server{Addr: cfg.Listen, Handler: api.NewRouter(handlers)}

	g.Go(func() error {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	})
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", cfg.Listen),
			zap.String("device", state.Target()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
