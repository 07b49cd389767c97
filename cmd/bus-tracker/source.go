package main

import (
	"context"
	"fmt"

	"github.com/theoremus-urban-solutions/bus-tracker/busapi"
	"github.com/theoremus-urban-solutions/bus-tracker/config"
	"github.com/theoremus-urban-solutions/bus-tracker/gtfs"
	"github.com/theoremus-urban-solutions/bus-tracker/gtfsrt"
	"github.com/theoremus-urban-solutions/bus-tracker/internal/logging"
	"github.com/theoremus-urban-solutions/bus-tracker/monitor"
)

// newSource builds the location source selected by poll.source.
func newSource(cfg config.AppConfig, log logging.Logger) (monitor.Source, error) {
	switch cfg.Poll.Source {
	case "", "rest":
		return monitor.NewRESTSource(busapi.NewClient(cfg.BusAPI.BaseURL, cfg.BusAPITimeout())), nil
	case "gtfsrt":
		var index *gtfs.Index
		if cfg.GTFSRT.StaticPath != "" {
			var err error
			index, err = gtfs.LoadCached(cfg.GTFSRT.StaticPath, cfg.GTFSRT.StaticCachePath)
			if err != nil {
				return nil, fmt.Errorf("load static GTFS: %w", err)
			}
			log.Info(context.Background(), "static GTFS loaded",
				logging.String("path", cfg.GTFSRT.StaticPath),
				logging.Int("trips", index.TripCount()))
		}
		client := gtfsrt.NewClient(cfg.GTFSRTTimeout())
		return monitor.NewGTFSRTSource(client, cfg.GTFSRT.VehiclePositionsURL, index, log), nil
	default:
		return nil, fmt.Errorf("unknown poll source %q", cfg.Poll.Source)
	}
}
