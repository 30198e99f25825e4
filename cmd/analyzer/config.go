// Package main provides the AIOps analyzer server CLI.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the analyzer configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
	Verbose    bool             `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	HTTPAddress      string `yaml:"http_address"`       // API listen address (default: :8080)
	MetricsAddress   string `yaml:"metrics_address"`    // Prometheus listen address (default: :9090)
	AnalyzeRateLimit int    `yaml:"analyze_rate_limit"` // /api/analyze requests per minute per client
}

// AnalysisConfig contains detection thresholds and scheduling.
type AnalysisConfig struct {
	ErrorThreshold          int     `yaml:"error_threshold"`            // repeated-error count threshold (default: 10)
	ResponseTimeThresholdMs float64 `yaml:"response_time_threshold_ms"` // absolute response time ceiling (default: 2000)
	IntervalSeconds         int     `yaml:"interval_seconds"`           // scheduled run interval (default: 60)
	WindowMinutes           int     `yaml:"window_minutes"`             // analyzed window span (default: 15)
	FrontendService         string  `yaml:"frontend_service"`           // service carrying response times
	BackendService          string  `yaml:"backend_service"`            // service carrying endpoint traffic
}

// ClickHouseConfig contains log store connection settings.
type ClickHouseConfig struct {
	Addresses   []string `yaml:"addresses"`   // host:port list
	Database    string   `yaml:"database"`    // database name
	Username    string   `yaml:"username"`    // auth user
	Password    string   `yaml:"password"`    // auth password
	Environment string   `yaml:"environment"` // environment tag filter (default: staging)
	Compression bool     `yaml:"compression"` // enable LZ4
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values, with
// environment overrides applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.setDefaults()
	return cfg
}

// applyEnv overlays AIOPS_* environment variables onto the config.
// Unparseable values are ignored in favor of the file/defaults.
func (c *Config) applyEnv() {
	if v := os.Getenv("AIOPS_HTTP_ADDR"); v != "" {
		c.Server.HTTPAddress = v
	}
	if v := os.Getenv("AIOPS_METRICS_ADDR"); v != "" {
		c.Server.MetricsAddress = v
	}
	if v := os.Getenv("AIOPS_ERROR_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.ErrorThreshold = n
		}
	}
	if v := os.Getenv("AIOPS_RESPONSE_TIME_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Analysis.ResponseTimeThresholdMs = f
		}
	}
	if v := os.Getenv("AIOPS_ANALYSIS_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.IntervalSeconds = n
		}
	}
	if v := os.Getenv("AIOPS_CLICKHOUSE_ADDR"); v != "" {
		c.ClickHouse.Addresses = []string{v}
	}
	if v := os.Getenv("AIOPS_ENVIRONMENT"); v != "" {
		c.ClickHouse.Environment = v
	}
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = ":8080"
	}
	if c.Server.MetricsAddress == "" {
		c.Server.MetricsAddress = ":9090"
	}
	if c.Server.AnalyzeRateLimit <= 0 {
		c.Server.AnalyzeRateLimit = 10
	}
	if c.Analysis.ErrorThreshold <= 0 {
		c.Analysis.ErrorThreshold = 10
	}
	if c.Analysis.ResponseTimeThresholdMs <= 0 {
		c.Analysis.ResponseTimeThresholdMs = 2000
	}
	if c.Analysis.IntervalSeconds <= 0 {
		c.Analysis.IntervalSeconds = 60
	}
	if c.Analysis.WindowMinutes <= 0 {
		c.Analysis.WindowMinutes = 15
	}
	if c.Analysis.FrontendService == "" {
		c.Analysis.FrontendService = "frontend"
	}
	if c.Analysis.BackendService == "" {
		c.Analysis.BackendService = "backend"
	}
	if len(c.ClickHouse.Addresses) == 0 {
		c.ClickHouse.Addresses = []string{"localhost:9000"}
	}
	if c.ClickHouse.Database == "" {
		c.ClickHouse.Database = "logs"
	}
	if c.ClickHouse.Environment == "" {
		c.ClickHouse.Environment = "staging"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.HTTPAddress == "" {
		return fmt.Errorf("server.http_address is required")
	}
	if len(c.ClickHouse.Addresses) == 0 {
		return fmt.Errorf("clickhouse.addresses is required")
	}
	for i, addr := range c.ClickHouse.Addresses {
		if addr == "" {
			return fmt.Errorf("clickhouse.addresses[%d] is empty", i)
		}
	}
	if c.Analysis.WindowMinutes <= 0 {
		return fmt.Errorf("analysis.window_minutes must be positive")
	}
	return nil
}

// Interval returns the scheduled run interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Analysis.IntervalSeconds) * time.Second
}

// Window returns the analyzed window span as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Analysis.WindowMinutes) * time.Minute
}
