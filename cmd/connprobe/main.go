package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"connprobe/internal/batch"
	"connprobe/internal/monitoring"
	"connprobe/internal/probe"
	"connprobe/internal/report"
	"connprobe/internal/targets"
	"connprobe/pkg/config"
	"connprobe/pkg/logger"
)

const appVersion = "1.0.0"

var (
	configPath    = flag.String("config", "", "Path to configuration file")
	endpointsFile = flag.String("endpoints", "", "Path to a file with one host:port per line")
	ipVersionFlag = flag.String("ip", "auto", "IP version to resolve: auto, 4 or 6")
	timeoutFlag   = flag.Float64("timeout", 0, "Connect timeout in seconds (overrides config)")
	retriesFlag   = flag.Int("retries", 0, "Retry count per endpoint (overrides config)")
	delayFlag     = flag.Float64("delay", 0, "Base retry delay in seconds (overrides config)")
	strategyFlag  = flag.String("strategy", "", "Retry strategy: exponential, linear, fixed or adaptive (overrides config)")
	workersFlag   = flag.Int("concurrency", 0, "Maximum concurrent probes (overrides config)")
	outputFlag    = flag.String("output", "", "Write a JSON report to this path")
	watchFlag     = flag.Bool("watch", false, "Keep probing on an interval instead of exiting")
	intervalFlag  = flag.Duration("interval", 0, "Interval between batches in watch mode")
	versionFlag   = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("connprobe v%s\n", appVersion)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ipVersion, err := probe.ParseIPVersion(*ipVersionFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	endpoints, err := resolveEndpoints(ipVersion)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load endpoints: %v\n", err)
		os.Exit(1)
	}

	log.Info("starting connprobe",
		"version", appVersion,
		"endpoints", len(endpoints),
		"strategy", cfg.Probe.Strategy,
		"watch", cfg.Watch.Enabled,
	)

	metrics := monitoring.NewMetrics(cfg.Monitoring.Namespace, cfg.Monitoring.Subsystem)

	engine, err := probe.NewEngine(&cfg.Probe, log, metrics)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	scheduler := batch.NewScheduler(engine, &cfg.Probe, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received shutdown signal")
		cancel()
	}()

	if cfg.Watch.Enabled {
		runWatch(ctx, cfg, log, scheduler, metrics, endpoints, ipVersion)
		return
	}

	rep, err := scheduler.RunBatch(ctx, endpoints)
	if err != nil {
		log.Error("batch failed", "error", err.Error())
		os.Exit(1)
	}

	report.LogSummary(log, rep)
	if cfg.Report.Path != "" {
		if err := report.Write(cfg.Report.Path, rep, cfg.Report.Pretty); err != nil {
			log.Error("failed to write report", "error", err.Error())
			os.Exit(1)
		}
		log.Info("report written", "path", cfg.Report.Path)
	}

	if rep.Summary.Failed > 0 {
		os.Exit(1)
	}
}

// runWatch probes the endpoint list on an interval, reloading the endpoints
// file on change and serving metrics/health until interrupted.
func runWatch(ctx context.Context, cfg *config.Config, log *logger.Logger, scheduler *batch.Scheduler, metrics *monitoring.Metrics, endpoints []probe.Endpoint, ipVersion probe.IPVersion) {
	var mu sync.Mutex
	current := endpoints

	var srv *monitoring.Server
	if cfg.Monitoring.Enabled {
		srv = monitoring.NewServer(&cfg.Monitoring, metrics, log)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Stop(shutdownCtx)
		}()
	}

	if *endpointsFile != "" {
		watcher := targets.NewWatcher(*endpointsFile, ipVersion, log)
		watcher.AddChangeHandler(func(reloaded []probe.Endpoint) {
			mu.Lock()
			current = reloaded
			mu.Unlock()
		})
		go func() {
			if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
				log.Warn("endpoints watcher stopped", "error", err.Error())
			}
		}()
	}

	runOnce := func() {
		mu.Lock()
		eps := make([]probe.Endpoint, len(current))
		copy(eps, current)
		mu.Unlock()

		rep, err := scheduler.RunBatch(ctx, eps)
		if err != nil {
			log.Error("batch failed", "error", err.Error())
			return
		}
		report.LogSummary(log, rep)
		if cfg.Report.Path != "" {
			if err := report.Write(cfg.Report.Path, rep, cfg.Report.Pretty); err != nil {
				log.Error("failed to write report", "error", err.Error())
			}
		}
		if srv != nil {
			srv.RecordRun(rep.ID, rep.Summary.Succeeded, rep.Summary.Failed)
		}
	}

	if srv != nil {
		srv.SetReady(true)
	}
	runOnce()

	ticker := time.NewTicker(cfg.Watch.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("watch mode stopped")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// applyFlagOverrides maps explicitly passed flags onto the loaded config.
func applyFlagOverrides(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "timeout":
			cfg.Probe.TimeoutSeconds = *timeoutFlag
		case "retries":
			cfg.Probe.RetryCount = *retriesFlag
		case "delay":
			cfg.Probe.RetryDelaySeconds = *delayFlag
		case "strategy":
			cfg.Probe.Strategy = *strategyFlag
		case "concurrency":
			cfg.Probe.MaxConcurrentProbes = *workersFlag
		case "output":
			cfg.Report.Path = *outputFlag
		case "watch":
			cfg.Watch.Enabled = *watchFlag
		case "interval":
			cfg.Watch.Interval = *intervalFlag
		}
	})
}

func resolveEndpoints(ipVersion probe.IPVersion) ([]probe.Endpoint, error) {
	if args := flag.Args(); len(args) > 0 {
		return targets.FromArgs(args, ipVersion)
	}
	if *endpointsFile != "" {
		return targets.LoadFile(*endpointsFile, ipVersion)
	}
	return DefaultEndpointsWithVersion(ipVersion), nil
}

func DefaultEndpointsWithVersion(version probe.IPVersion) []probe.Endpoint {
	endpoints := targets.DefaultEndpoints()
	for i := range endpoints {
		endpoints[i].IPVersion = version
	}
	return endpoints
}
