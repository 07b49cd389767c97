package config

// ServerConfig contains server configuration
type ServerConfig struct {
	Port int `yaml:"port" validate:"gte=0,lte=65535"`
}

// BusAPIConfig points at the bus REST API
type BusAPIConfig struct {
	BaseURL   string `yaml:"baseURL" validate:"omitempty,url"`
	TimeoutMS int    `yaml:"timeoutMS" validate:"gte=0"`
}

// GTFSRTConfig contains GTFS-Realtime feed configuration
type GTFSRTConfig struct {
	VehiclePositionsURL string `yaml:"vehiclePositionsURL" validate:"omitempty"`
	StaticPath          string `yaml:"staticPath" validate:"omitempty"`
	StaticCachePath     string `yaml:"staticCachePath" validate:"omitempty"`
	TimeoutMS           int    `yaml:"timeoutMS" validate:"gte=0"`
}

// PollConfig controls the refresh loop
type PollConfig struct {
	Source     string   `yaml:"source" validate:"omitempty,oneof=rest gtfsrt"`
	IntervalMS int      `yaml:"intervalMS" validate:"gte=0"`
	Buses      []string `yaml:"buses" validate:"dive,required"`
}

// OfflineConfig configures the versioned web-shell cache
type OfflineConfig struct {
	CacheName string   `yaml:"cacheName"`
	OriginURL string   `yaml:"originURL" validate:"omitempty,url"`
	Precache  []string `yaml:"precache"`
	Fallback  string   `yaml:"fallback"`
}

// AMQPConfig configures progress event publishing
type AMQPConfig struct {
	URL      string `yaml:"url" validate:"omitempty,url"`
	Exchange string `yaml:"exchange"`
}

// SiriConfig controls the SIRI VehicleMonitoring output
type SiriConfig struct {
	Codespace string `yaml:"codespace" validate:"omitempty,alphanum"`
}

// LoggingConfig selects log level and format
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// AppConfig is the root configuration structure
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	BusAPI  BusAPIConfig  `yaml:"busAPI"`
	GTFSRT  GTFSRTConfig  `yaml:"gtfsrt"`
	Poll    PollConfig    `yaml:"poll"`
	Offline OfflineConfig `yaml:"offline"`
	AMQP    AMQPConfig    `yaml:"amqp"`
	Siri    SiriConfig    `yaml:"siri"`
	Logging LoggingConfig `yaml:"logging"`
}
