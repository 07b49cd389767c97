package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/theoremus-urban-solutions/bus-tracker/config"
	"github.com/theoremus-urban-solutions/bus-tracker/converter"
	"github.com/theoremus-urban-solutions/bus-tracker/formatter"
	"github.com/theoremus-urban-solutions/bus-tracker/internal/logging"
	"github.com/theoremus-urban-solutions/bus-tracker/internal/observability"
	"github.com/theoremus-urban-solutions/bus-tracker/monitor"
	"github.com/theoremus-urban-solutions/bus-tracker/offline"
	"github.com/theoremus-urban-solutions/bus-tracker/publish"
	"github.com/theoremus-urban-solutions/bus-tracker/server"
	"github.com/theoremus-urban-solutions/bus-tracker/tracking"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml (default: ./config.yml or ./config/config.yml)")
	mode := flag.String("mode", "serve", "serve|oneshot")
	bus := flag.String("bus", "", "comma-separated bus numbers for oneshot (default: poll.buses)")
	format := flag.String("format", "json", "oneshot output: json|siri-json|siri-xml")
	flag.Parse()

	if err := run(*configPath, *mode, *bus, *format); err != nil {
		fmt.Fprintln(os.Stderr, "bus-tracker:", err)
		os.Exit(1)
	}
}

func run(configPath, mode, buses, format string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := logging.NewFromEnv(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, err := observability.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	source, err := newSource(cfg, log)
	if err != nil {
		return err
	}
	conv := converter.NewConverter(cfg.Codespace(), 2*cfg.PollInterval())

	switch mode {
	case "oneshot":
		return oneshot(ctx, cfg, source, conv, buses, format, log)
	case "serve":
		return serve(ctx, cfg, configPath, source, conv, metrics, log)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func loadConfig(path string) (config.AppConfig, error) {
	if path == "" {
		if err := config.LoadAppConfig(); err != nil {
			return config.AppConfig{}, fmt.Errorf("load config: %w", err)
		}
		return config.Config, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config %s: %w", path, err)
	}
	config.Config = cfg
	return cfg, nil
}

func oneshot(ctx context.Context, cfg config.AppConfig, source monitor.Source, conv *converter.Converter, buses, format string, log logging.Logger) error {
	numbers := cfg.Poll.Buses
	if buses != "" {
		numbers = strings.Split(buses, ",")
	}
	tracker := tracking.NewTracker()
	poller := monitor.NewPoller(source, tracker, monitor.Config{Buses: numbers, Logger: log})

	if len(poller.Tracked()) == 0 {
		if _, err := poller.RefreshAll(ctx); err != nil {
			return err
		}
	} else {
		poller.PollOnce(ctx)
	}

	var out []byte
	switch format {
	case "siri-json", "siri-xml":
		f, err := formatter.ParseFormat(strings.TrimPrefix(format, "siri-"))
		if err != nil {
			return err
		}
		vm := conv.BuildVehicleMonitoring(tracker.Snapshot(), converter.Filter{})
		res := formatter.WrapVehicleMonitoringResponse(vm, conv.Codespace)
		out = formatter.NewResponseBuilder().Indented().Build(res, f)
	case "json":
		var err error
		out, err = json.MarshalIndent(tracker.Snapshot(), "", "  ")
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	fmt.Println(string(out))
	return nil
}

func serve(ctx context.Context, cfg config.AppConfig, configPath string, source monitor.Source, conv *converter.Converter, metrics *observability.Collector, log logging.Logger) error {
	tracker := tracking.NewTracker()
	hub := server.NewHub(tracker.Snapshot, log)
	go hub.Run(ctx)

	notifiers := []monitor.Notifier{hub}
	if cfg.AMQP.URL != "" {
		pub, err := publish.Dial(ctx, cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			log.Warn(ctx, "progress publishing disabled", logging.Err(err))
		} else {
			defer func() { _ = pub.Close() }()
			notifiers = append(notifiers, pub)
		}
	}

	poller := monitor.NewPoller(source, tracker, monitor.Config{
		Interval:  cfg.PollInterval(),
		Buses:     cfg.Poll.Buses,
		Metrics:   metrics,
		Logger:    log,
		Notifiers: notifiers,
	})
	go func() { _ = poller.Run(ctx) }()

	if path := watchedPath(configPath); path != "" {
		go func() {
			err := config.Watch(ctx, path, func(next config.AppConfig) {
				log.Info(ctx, "config reloaded", logging.Int("buses", len(next.Poll.Buses)))
				poller.SetBuses(next.Poll.Buses)
			}, func(err error) {
				log.Warn(ctx, "config reload failed", logging.Err(err))
			})
			if err != nil {
				log.Warn(ctx, "config watch stopped", logging.Err(err))
			}
		}()
	}

	deps := server.Deps{
		Tracker:   tracker,
		Poller:    poller,
		Converter: conv,
		Hub:       hub,
		Metrics:   metrics,
		Logger:    log,
		Source:    source.Name(),
	}
	if shell := newShell(ctx, cfg, metrics, log); shell != nil {
		deps.Shell = shell
	}

	return server.New(deps).Run(ctx, fmt.Sprintf(":%d", cfg.Server.Port))
}

// newShell installs the offline web shell when an origin is configured.
// Install failures leave the previous cache generation in place.
func newShell(ctx context.Context, cfg config.AppConfig, metrics *observability.Collector, log logging.Logger) *offline.Shell {
	if cfg.Offline.OriginURL == "" {
		return nil
	}
	store := offline.NewStore(cfg.Offline.CacheName)
	shell := offline.NewShell(store, offline.NewHTTPFetcher(cfg.Offline.OriginURL, 10*time.Second), offline.Config{
		Precache: cfg.Offline.Precache,
		Fallback: cfg.Offline.Fallback,
		Metrics:  metrics,
		Logger:   log,
	})
	if err := shell.Install(ctx); err != nil {
		log.Warn(ctx, "offline shell install failed", logging.Err(err))
		return shell
	}
	shell.Activate(ctx)
	return shell
}

func watchedPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	for _, p := range []string{"config.yml", "./config/config.yml"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
