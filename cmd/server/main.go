package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telematics-bridge/internal/bridge"
	"telematics-bridge/internal/config"
	"telematics-bridge/internal/engine/memengine"
	"telematics-bridge/internal/grpcclient"
	"telematics-bridge/internal/link"
	"telematics-bridge/internal/observability"
	"telematics-bridge/internal/relay"
	"telematics-bridge/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("error").Error("config load failed", "err", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.LogLevel)
	logger.Info("Starting telematics-bridge...", "metrics_port", cfg.MetricsPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := observability.StartMetricsServer(cfg.MetricsPort); err != nil {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	var sinks []relay.Sink
	if cfg.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		snaps, err := store.NewRedis(pingCtx, cfg.RedisAddr, cfg.RedisDB, cfg.SnapshotTTL)
		cancel()
		if err != nil {
			logger.Error("Redis init failed", "err", err)
			os.Exit(1)
		}
		defer snaps.Close()
		sinks = append(sinks, snaps)
	}
	if cfg.GRPCServer != "" {
		gc, err := grpcclient.NewGRPCClient(cfg.GRPCServer)
		if err != nil {
			logger.Error("gRPC client init failed", "err", err)
			os.Exit(1)
		}
		defer gc.Close()
		sinks = append(sinks, gc)
	}
	if cfg.ProxyAddr != "" {
		lc := link.New(cfg.ProxyAddr, logger)
		go lc.Run(ctx)
		sinks = append(sinks, lc)
	}

	eng := memengine.New()
	host := &simHost{eng: eng, logger: logger.With("component", "host")}
	adapter := bridge.New(eng, host, bridge.Options{
		Logger:      logger,
		EventBuffer: cfg.EventBuffer,
	})
	host.deliver = adapter.DeliverActivityResult
	defer adapter.Close()

	if err := adapter.Initialize(); err != nil {
		logger.Error("engine init failed", "err", err)
		return
	}
	if cfg.DeviceID != "" {
		adapter.SetDeviceID(cfg.DeviceID)
	}

	rl := relay.New(adapter.DeviceID, logger, sinks...)
	relayDone := make(chan struct{})
	go func() {
		rl.Run(ctx, adapter.Events())
		close(relayDone)
	}()
	adapter.Subscribe()

	if err := startTracking(ctx, adapter, cfg); err != nil {
		logger.Error("tracking startup failed", "code", bridge.Code(err), "err", err)
		return
	}

	<-ctx.Done()
	logger.Info("shutting down")
	if err := adapter.StopTracking(); err != nil {
		logger.Warn("stop tracking failed", "err", err)
	}
	<-relayDone
}

// startTracking walks the permission wizard if needed, then starts tracking
// and the optional speed limit watch.
func startTracking(ctx context.Context, a *bridge.Adapter, cfg config.Config) error {
	h, err := a.ShowPermissionWizard(false, false)
	if err != nil {
		return err
	}
	granted, err := h.Wait(ctx)
	if err != nil {
		return err
	}
	if !granted {
		return bridge.ErrPermission
	}
	if err := a.SetEnableSdk(true); err != nil {
		return err
	}
	if cfg.SpeedViolationsEnabled() {
		limit, timeout := cfg.SpeedLimitKmH, cfg.SpeedLimitTimeout
		if err := a.RegisterSpeedViolations(bridge.SpeedViolationParams{
			SpeedLimitKmH:     &limit,
			SpeedLimitTimeout: &timeout,
		}); err != nil {
			return err
		}
	}
	return a.StartTracking()
}
