package sentin

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Names of the external data sources feeding a scan.
const (
	SourceWeather    = "weather"
	SourceAirQuality = "air_quality"
	SourceTrends     = "trends"
	SourceBaseline   = "baseline"
)

// Duration wraps time.Duration so config files can use "30m" / "15s" syntax.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds the configuration options for the Sentin runtime.
type Config struct {
	// Service boundary
	ListenAddr string `yaml:"listen_addr"`

	// Per-source cache TTLs, keyed by source name
	SourceTTL map[string]Duration `yaml:"source_ttl"`

	// Decision cache TTL
	DecisionTTL Duration `yaml:"decision_ttl"`

	// Fetcher configuration
	Latitude   float64  `yaml:"latitude"`
	Longitude  float64  `yaml:"longitude"`
	MaxRetries int      `yaml:"max_retries"`
	RetryDelay Duration `yaml:"retry_delay"`

	// Source endpoints. Empty weather and air quality endpoints select the
	// public APIs; the trends endpoint has no public default.
	WeatherEndpoint    string `yaml:"weather_endpoint"`
	AirQualityEndpoint string `yaml:"air_quality_endpoint"`
	TrendsEndpoint     string `yaml:"trends_endpoint"`
	BaselinePath       string `yaml:"baseline_path"`

	// Purchase order handling
	FulfillmentDelay Duration `yaml:"fulfillment_delay"`
	Vendor           string   `yaml:"vendor"`
	OrdersDir        string   `yaml:"orders_dir"`

	// Seed inventory, keyed by line item
	Inventory map[string]int `yaml:"inventory"`

	// Event bus configuration
	EnableEventBus      bool `yaml:"enable_event_bus"`
	EventBusBufferSize  int  `yaml:"event_bus_buffer_size"`
	EventBusWorkerCount int  `yaml:"event_bus_worker_count"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr: ":8000",
		SourceTTL: map[string]Duration{
			SourceWeather:    Duration(time.Hour),
			SourceAirQuality: Duration(time.Hour),
			SourceTrends:     Duration(time.Hour),
			SourceBaseline:   Duration(time.Hour),
		},
		DecisionTTL:      Duration(30 * time.Minute),
		Latitude:         28.61,
		Longitude:        77.20,
		MaxRetries:       3,
		RetryDelay:       Duration(2 * time.Second),
		BaselinePath:     "baseline.csv",
		FulfillmentDelay: Duration(15 * time.Second),
		Vendor:           "MedSupply Co.",
		OrdersDir:        "orders",
		Inventory: map[string]int{
			"masks":          454,
			"oxygen":         32,
			"beds_available": 17,
			"ors_packs":      50,
		},
		EnableEventBus:      true,
		EventBusBufferSize:  100,
		EventBusWorkerCount: 5,
	}
}

// LoadConfig reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return cfg, nil
}

// SourceTTLOrDefault returns the TTL configured for a source, falling back
// to one hour.
func (c Config) SourceTTLOrDefault(source string) time.Duration {
	if ttl, ok := c.SourceTTL[source]; ok {
		return ttl.Std()
	}
	return time.Hour
}
