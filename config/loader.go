package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults applied to zero-valued settings after validation.
const (
	DefaultPort          = 16181
	DefaultBusAPIBaseURL = "http://localhost:8080"
	DefaultTimeoutMS     = 5000
	DefaultPollMS        = 10000
	DefaultSource        = "rest"
	DefaultCacheName     = "bus-tracker-cache-v1"
	DefaultFallback      = "/index.html"
	DefaultExchange      = "bus_progress"
	DefaultCodespace     = "BUS"
)

// DefaultPrecache lists the shell assets cached on install.
var DefaultPrecache = []string{
	"/",
	"/index.html",
	"/manifest.json",
	"/icons/icon-192x192.png",
	"/icons/icon-512x512.png",
}

// Config is the global application configuration
var Config AppConfig

// LoadAppConfig loads config.yml from the working directory into Config
func LoadAppConfig() error {
	paths := []string{"config.yml", "./config/config.yml"}
	var err error
	for _, p := range paths {
		var cfg AppConfig
		cfg, err = Load(p)
		if err == nil {
			Config = cfg
			return nil
		}
		if !os.IsNotExist(err) {
			return err
		}
	}
	return err
}

// Load reads, validates and defaults the configuration at path.
func Load(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	return Parse(data)
}

// Parse validates and defaults raw YAML configuration.
func Parse(data []byte) (AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse config: %w", err)
	}
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return AppConfig{}, fmt.Errorf("validate config: %w", err)
	}
	if cfg.Poll.Source == "gtfsrt" && cfg.GTFSRT.VehiclePositionsURL == "" {
		return AppConfig{}, fmt.Errorf("validate config: gtfsrt source requires gtfsrt.vehiclePositionsURL")
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.BusAPI.BaseURL == "" {
		cfg.BusAPI.BaseURL = DefaultBusAPIBaseURL
	}
	if cfg.BusAPI.TimeoutMS == 0 {
		cfg.BusAPI.TimeoutMS = DefaultTimeoutMS
	}
	if cfg.GTFSRT.TimeoutMS == 0 {
		cfg.GTFSRT.TimeoutMS = DefaultTimeoutMS
	}
	if cfg.Poll.Source == "" {
		cfg.Poll.Source = DefaultSource
	}
	if cfg.Poll.IntervalMS == 0 {
		cfg.Poll.IntervalMS = DefaultPollMS
	}
	if cfg.Offline.CacheName == "" {
		cfg.Offline.CacheName = DefaultCacheName
	}
	if cfg.Offline.Fallback == "" {
		cfg.Offline.Fallback = DefaultFallback
	}
	if len(cfg.Offline.Precache) == 0 {
		cfg.Offline.Precache = append([]string(nil), DefaultPrecache...)
	}
	if cfg.AMQP.Exchange == "" {
		cfg.AMQP.Exchange = DefaultExchange
	}
	if cfg.Siri.Codespace == "" {
		cfg.Siri.Codespace = DefaultCodespace
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// PollInterval returns the poll interval as a duration
func (c AppConfig) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMS) * time.Millisecond
}

// BusAPITimeout returns the bus API request timeout
func (c AppConfig) BusAPITimeout() time.Duration {
	return time.Duration(c.BusAPI.TimeoutMS) * time.Millisecond
}

// GTFSRTTimeout returns the GTFS-RT request timeout
func (c AppConfig) GTFSRTTimeout() time.Duration {
	return time.Duration(c.GTFSRT.TimeoutMS) * time.Millisecond
}

// Codespace returns the SIRI reference prefix
func (c AppConfig) Codespace() string {
	return c.Siri.Codespace
}
