package core

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the root scenario configuration, unmarshalled from a YAML file.
type Config struct {
	Core     CoreConfig     `yaml:"core"`
	Tables   TablesConfig   `yaml:"tables"`
	Scenario ScenarioConfig `yaml:"scenario"`
}

// ScenarioConfig describes the fixed two-node-plus-producer demo topology
// cmd/ndnfwsim drives: a consumer node whose Content Store hits become
// validation probes, an edge node those probes transit, and the origin
// Producer the edge node routes to.
type ScenarioConfig struct {
	ProducerPrefix            string `yaml:"producer_prefix"`
	ProducerFreshnessMs       int    `yaml:"producer_freshness_ms"`
	ProducerAverageUpdateTime int    `yaml:"producer_average_update_time"`
	ConsumerName              string `yaml:"consumer_name"`
	IntervalMs                int    `yaml:"interval_ms"`
	DurationMs                int    `yaml:"duration_ms"`
}

// CoreConfig holds process-wide settings.
type CoreConfig struct {
	LogLevel string `yaml:"log_level"`
	BaseDir  string `yaml:"-"`
}

// TablesConfig holds the sizing knobs for the shared tables.
type TablesConfig struct {
	DeadNonceListLifetimeMs int64  `yaml:"dead_nonce_list_lifetime_ms"`
	ContentStoreCapacity    int    `yaml:"content_store_capacity"`
	ContentStoreBadgerPath  string `yaml:"content_store_badger_path"`
}

// DefaultConfig returns a Config with the defaults the forwarder falls back
// to when a scenario file doesn't override them.
func DefaultConfig() *Config {
	return &Config{
		Core: CoreConfig{LogLevel: "INFO"},
		Tables: TablesConfig{
			DeadNonceListLifetimeMs: 6000,
			ContentStoreCapacity:    1024,
		},
		Scenario: ScenarioConfig{
			ProducerPrefix:            "/ndn/edu/ucla/ping",
			ProducerFreshnessMs:       4000,
			ProducerAverageUpdateTime: 10,
			ConsumerName:              "/ndn/edu/ucla/ping",
			IntervalMs:                1000,
			DurationMs:                5000,
		},
	}
}

// ReadYaml unmarshals the YAML file at path into cfg.
func ReadYaml(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
