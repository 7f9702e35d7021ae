package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	_ "github.com/veesix-networks/osvswitch/internal/inventory"
	_ "github.com/veesix-networks/osvswitch/pkg/bootstrap"

	"github.com/veesix-networks/osvswitch/internal/engine"
	"github.com/veesix-networks/osvswitch/internal/monitor"
	"github.com/veesix-networks/osvswitch/internal/watchdog"
	"github.com/veesix-networks/osvswitch/internal/watchdog/targets"
	"github.com/veesix-networks/osvswitch/pkg/component"
	"github.com/veesix-networks/osvswitch/pkg/config"
	"github.com/veesix-networks/osvswitch/pkg/events/local"
	"github.com/veesix-networks/osvswitch/pkg/ifmgr"
	"github.com/veesix-networks/osvswitch/pkg/logger"
	"github.com/veesix-networks/osvswitch/pkg/metrics"
	"github.com/veesix-networks/osvswitch/pkg/southbound/vpp"
	"github.com/veesix-networks/osvswitch/pkg/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to configuration file (defaults are used when empty)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("osvswitchd", version.Full())
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	levels := make(map[string]logger.LogLevel, len(cfg.Logging.Components))
	for name, lvl := range cfg.Logging.Components {
		levels[name] = logger.LogLevel(lvl)
	}
	logger.Configure(cfg.Logging.Format, logger.LogLevel(cfg.Logging.Level), levels)

	mainLog := logger.Get(logger.Main)
	mainLog.Info("Starting osvswitchd", "version", version.Version, "api_socket", cfg.Engine.APISocket)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	eventBus := local.NewBus(local.WithDebugTopics(cfg.Logging.DebugEvents...))
	interfaces := ifmgr.New()

	session, err := engine.Connect(ctx, cfg, engine.Params{
		Metrics: m,
		Options: []vpp.Option{vpp.WithNotificationSink(vpp.EventPublisher(eventBus))},
	})
	if err != nil {
		log.Fatalf("Failed to connect to engine: %v", err)
	}

	if v, err := session.GetVersion(ctx); err != nil {
		mainLog.Warn("Failed to query engine version", "error", err)
	} else {
		mainLog.Info("Connected to engine", "engine_version", v)
	}

	deps := component.Dependencies{
		EventBus:   eventBus,
		Engine:     session,
		Interfaces: interfaces,
		Config:     cfg,
		Metrics:    m,
	}

	orch := component.NewOrchestrator()

	comps, err := component.LoadAll(deps)
	if err != nil {
		log.Fatalf("Failed to load components: %v", err)
	}
	for _, comp := range comps {
		mainLog.Info("Loaded component", "name", comp.Name())
		orch.Register(comp)
	}

	wd := watchdog.New(watchdog.WithMetrics(m), watchdog.WithEventBus(eventBus))
	if cfg.Watchdog.Enabled {
		registerTargets(wd, cfg, session, interfaces, m)
		orch.Register(wd)
	}

	if cfg.Monitoring.Enabled {
		orch.Register(monitor.New(monitor.Config{
			ListenAddress: cfg.Monitoring.ListenAddress,
			Gatherer:      registry,
			Health:        wd,
			Interfaces:    interfaces,
			EventBus:      eventBus,
		}))
	}

	if err := orch.Start(ctx); err != nil {
		session.Disconnect()
		eventBus.Close()
		log.Fatalf("Failed to start components: %v", err)
	}

	mainLog.Info("osvswitchd started successfully")

	select {
	case <-ctx.Done():
		mainLog.Info("Shutting down osvswitchd...")
	case target := <-wd.Fatal():
		mainLog.Error("Critical target failed, shutting down", "target", target)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := orch.Stop(stopCtx); err != nil {
		mainLog.Error("Error stopping components", "error", err)
	}

	if err := session.Disconnect(); err != nil {
		mainLog.Error("Error closing engine session", "error", err)
	}
	m.SetSessionUp(false)

	eventBus.Close()
	mainLog.Info("osvswitchd stopped")
}

func registerTargets(wd *watchdog.Watchdog, cfg *config.Config, session *engine.Session, interfaces *ifmgr.Manager, m *metrics.Metrics) {
	runner := watchdog.RunnerConfig{
		CheckInterval:    cfg.Watchdog.CheckInterval,
		Timeout:          cfg.Watchdog.Timeout,
		FailureThreshold: cfg.Watchdog.FailureThreshold,
		OnFailure:        watchdog.FailureAction(cfg.Watchdog.OnFailure),
	}

	engineTarget := targets.NewEngineTarget(session, *cfg.Watchdog.Critical)
	engineTarget.SetCallbacks(targets.EngineCallbacks{
		OnDown: func() { m.SetSessionUp(false) },
		OnUp:   func() { m.SetSessionUp(true) },
		OnRecover: func(ctx context.Context) error {
			return interfaces.Sync(ctx, session)
		},
	})
	wd.Register(engineTarget, runner)

	socketRunner := runner
	socketRunner.OnFailure = watchdog.ActionWarn
	wd.Register(targets.NewSocketTarget("api-socket", cfg.Engine.APISocket, false), socketRunner)
}
