package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "tracker.cfg.json"

var validate = validator.New()

// TrackingConfig holds the location feed cadence and timer settings.
type TrackingConfig struct {
	Interval              time.Duration `validate:"gt=0"`
	MinDisplacementMeters float64       `validate:"gte=0"`
	TimerPeriod           time.Duration `validate:"gt=0"`
	Providers             []string      `validate:"min=1,dive,required"`
	SeedPlaceLabel        string
	ReplayFile            string
	ReplaySpeed           float64 `validate:"gte=0"`
}

// StorageConfig selects the run archive backend.
type StorageConfig struct {
	Type         string `validate:"oneof=memory sqlite"`
	HistoryLimit int    `validate:"gte=0"`
	SQLite       SQLiteConfig
}

// SQLiteConfig holds in-memory SQLite archive settings.
type SQLiteConfig struct {
	FlushInterval time.Duration `validate:"gt=0"`
}

// StreamConfig holds the live map client endpoint.
type StreamConfig struct {
	Enabled bool
	URL     string `validate:"required_if=Enabled true"`
	Secret  string
}

// PresenterConfig selects the map outputs.
type PresenterConfig struct {
	GeoJSON bool
	Stream  StreamConfig
}

// InfluxConfig holds InfluxDB telemetry settings.
type InfluxConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Protocol string `validate:"oneof=http https"`
	Token    string
	Org      string
	Bucket   string `validate:"required"`
}

// GraylogConfig enables the GELF log sink.
type GraylogConfig struct {
	Enabled  bool
	Address  string `validate:"required_if=Enabled true,omitempty,hostname_port"`
	Facility string
}

// MonitorConfig holds the status monitor settings.
type MonitorConfig struct {
	Interval time.Duration `validate:"gt=0"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string `validate:"required"`
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./trackerlogs")

	viper.SetDefault("tracking.intervalMs", 30000)
	viper.SetDefault("tracking.minDisplacementMeters", 10.0)
	viper.SetDefault("tracking.timerPeriod", "1s")
	viper.SetDefault("tracking.providers", []string{"gps", "network"})
	viper.SetDefault("tracking.seedPlaceLabel", "Starting point")
	viper.SetDefault("tracking.replayFile", "")
	viper.SetDefault("tracking.replaySpeed", 0.0)

	viper.SetDefault("permission.location", true)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.historyLimit", 50)
	viper.SetDefault("storage.sqlite.flushInterval", "5s")

	viper.SetDefault("presenter.geojson", true)
	viper.SetDefault("presenter.stream.enabled", false)
	viper.SetDefault("presenter.stream.url", "ws://localhost:8765/map")
	viper.SetDefault("presenter.stream.secret", "")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "tracker")
	viper.SetDefault("influx.bucket", "tracking")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
	viper.SetDefault("graylog.facility", "tracker")

	viper.SetDefault("monitor.interval", "10s")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "tracker")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load sets default values and reads the JSON config file from configDir.
// Defaults stay in effect when the file is missing; the error tells the caller.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

func check(section string, v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid %s config: %w", section, err)
	}
	return nil
}

// GetTrackingConfig returns the validated tracking section.
func GetTrackingConfig() (TrackingConfig, error) {
	cfg := TrackingConfig{
		Interval:              time.Duration(viper.GetInt("tracking.intervalMs")) * time.Millisecond,
		MinDisplacementMeters: viper.GetFloat64("tracking.minDisplacementMeters"),
		TimerPeriod:           viper.GetDuration("tracking.timerPeriod"),
		Providers:             viper.GetStringSlice("tracking.providers"),
		SeedPlaceLabel:        viper.GetString("tracking.seedPlaceLabel"),
		ReplayFile:            viper.GetString("tracking.replayFile"),
		ReplaySpeed:           viper.GetFloat64("tracking.replaySpeed"),
	}
	return cfg, check("tracking", cfg)
}

// GetStorageConfig returns the validated storage section.
func GetStorageConfig() (StorageConfig, error) {
	cfg := StorageConfig{
		Type:         viper.GetString("storage.type"),
		HistoryLimit: viper.GetInt("storage.historyLimit"),
		SQLite: SQLiteConfig{
			FlushInterval: viper.GetDuration("storage.sqlite.flushInterval"),
		},
	}
	return cfg, check("storage", cfg)
}

// GetPresenterConfig returns the validated presenter section.
func GetPresenterConfig() (PresenterConfig, error) {
	cfg := PresenterConfig{
		GeoJSON: viper.GetBool("presenter.geojson"),
		Stream: StreamConfig{
			Enabled: viper.GetBool("presenter.stream.enabled"),
			URL:     viper.GetString("presenter.stream.url"),
			Secret:  viper.GetString("presenter.stream.secret"),
		},
	}
	return cfg, check("presenter", cfg)
}

// GetInfluxConfig returns the validated influx section.
func GetInfluxConfig() (InfluxConfig, error) {
	cfg := InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
	return cfg, check("influx", cfg)
}

// GetGraylogConfig returns the validated graylog section.
func GetGraylogConfig() (GraylogConfig, error) {
	cfg := GraylogConfig{
		Enabled:  viper.GetBool("graylog.enabled"),
		Address:  viper.GetString("graylog.address"),
		Facility: viper.GetString("graylog.facility"),
	}
	return cfg, check("graylog", cfg)
}

// GetMonitorConfig returns the validated monitor section.
func GetMonitorConfig() (MonitorConfig, error) {
	cfg := MonitorConfig{Interval: viper.GetDuration("monitor.interval")}
	return cfg, check("monitor", cfg)
}

// GetOTelConfig returns the validated otel section.
func GetOTelConfig() (OTelConfig, error) {
	cfg := OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
	return cfg, check("otel", cfg)
}
