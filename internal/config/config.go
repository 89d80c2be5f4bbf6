// Package config loads the application configuration for the diagnostics
// log buffer server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fidde/logring/internal/analyzer"
	"github.com/fidde/logring/pkg/models"
)

// ClusterConfig configures the error-cluster analysis pass.
type ClusterConfig struct {
	// MinLevel is the severity floor for clustering (default "Error").
	MinLevel string `yaml:"min_level"`

	// MaxSamples bounds the representative entries kept per cluster.
	MaxSamples int `yaml:"max_samples"`

	// Severity tier cut-points, ascending.
	LowThreshold    int64 `yaml:"low_threshold"`
	MediumThreshold int64 `yaml:"medium_threshold"`
	HighThreshold   int64 `yaml:"high_threshold"`
}

// Config is the application configuration. Values not present in the YAML
// file keep their defaults; listen addresses may additionally be overridden
// from the environment by the caller.
type Config struct {
	// BufferCapacity is the fixed ring capacity. Must be positive.
	BufferCapacity int `yaml:"buffer_capacity"`

	// NotifyQueueSize bounds the subscriber notification queue.
	NotifyQueueSize int `yaml:"notify_queue_size"`

	// PatternsFile optionally points at a YAML file with custom
	// normalization patterns. Empty selects the built-in defaults.
	PatternsFile string `yaml:"patterns_file"`

	Cluster ClusterConfig `yaml:"cluster"`

	OTLPHTTPAddr string `yaml:"otlp_http_addr"`
	OTLPGRPCAddr string `yaml:"otlp_grpc_addr"`
	PprofAddr    string `yaml:"pprof_addr"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		BufferCapacity:  1000,
		NotifyQueueSize: 256,
		Cluster: ClusterConfig{
			MinLevel:        models.LevelError.String(),
			MaxSamples:      5,
			LowThreshold:    5,
			MediumThreshold: 20,
			HighThreshold:   100,
		},
		OTLPHTTPAddr: "0.0.0.0:4318",
		OTLPGRPCAddr: "0.0.0.0:4317",
		PprofAddr:    "localhost:6060",
	}
}

// Load reads configuration from a YAML file, applied over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ClusterAnalyzerConfig converts the cluster section into the analyzer's
// configuration.
func (c Config) ClusterAnalyzerConfig() (analyzer.Config, error) {
	minLevel, err := models.ParseLevel(c.Cluster.MinLevel)
	if err != nil {
		return analyzer.Config{}, fmt.Errorf("cluster min_level: %w", err)
	}
	return analyzer.Config{
		MinLevel:   minLevel,
		MaxSamples: c.Cluster.MaxSamples,
		Thresholds: analyzer.Thresholds{
			Low:    c.Cluster.LowThreshold,
			Medium: c.Cluster.MediumThreshold,
			High:   c.Cluster.HighThreshold,
		},
	}, nil
}

func (c Config) validate() error {
	if c.BufferCapacity <= 0 {
		return fmt.Errorf("buffer_capacity must be positive, got %d", c.BufferCapacity)
	}
	if _, err := models.ParseLevel(c.Cluster.MinLevel); err != nil {
		return err
	}
	if c.Cluster.LowThreshold > c.Cluster.MediumThreshold || c.Cluster.MediumThreshold > c.Cluster.HighThreshold {
		return fmt.Errorf("cluster thresholds must be ascending: %d/%d/%d",
			c.Cluster.LowThreshold, c.Cluster.MediumThreshold, c.Cluster.HighThreshold)
	}
	return nil
}
