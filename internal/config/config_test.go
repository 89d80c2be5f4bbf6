package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fidde/logring/pkg/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logring.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.BufferCapacity != 1000 {
		t.Errorf("expected default capacity 1000, got %d", cfg.BufferCapacity)
	}
	if cfg.Cluster.MinLevel != "Error" {
		t.Errorf("expected default cluster floor Error, got %s", cfg.Cluster.MinLevel)
	}

	acfg, err := cfg.ClusterAnalyzerConfig()
	if err != nil {
		t.Fatalf("ClusterAnalyzerConfig failed: %v", err)
	}
	if acfg.MinLevel != models.LevelError {
		t.Errorf("expected Error floor, got %s", acfg.MinLevel)
	}
	if acfg.Thresholds.Low != 5 || acfg.Thresholds.Medium != 20 || acfg.Thresholds.High != 100 {
		t.Errorf("unexpected default thresholds: %+v", acfg.Thresholds)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
buffer_capacity: 5000
notify_queue_size: 64
otlp_http_addr: "127.0.0.1:14318"
cluster:
  min_level: warning
  max_samples: 3
  low_threshold: 2
  medium_threshold: 10
  high_threshold: 50
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.BufferCapacity != 5000 {
		t.Errorf("expected capacity 5000, got %d", cfg.BufferCapacity)
	}
	if cfg.NotifyQueueSize != 64 {
		t.Errorf("expected queue size 64, got %d", cfg.NotifyQueueSize)
	}
	if cfg.OTLPHTTPAddr != "127.0.0.1:14318" {
		t.Errorf("unexpected http addr %s", cfg.OTLPHTTPAddr)
	}
	// Unset keys keep their defaults.
	if cfg.OTLPGRPCAddr != Default().OTLPGRPCAddr {
		t.Errorf("expected default grpc addr, got %s", cfg.OTLPGRPCAddr)
	}

	acfg, err := cfg.ClusterAnalyzerConfig()
	if err != nil {
		t.Fatalf("ClusterAnalyzerConfig failed: %v", err)
	}
	if acfg.MinLevel != models.LevelWarning {
		t.Errorf("expected Warning floor, got %s", acfg.MinLevel)
	}
	if acfg.MaxSamples != 3 {
		t.Errorf("expected 3 samples, got %d", acfg.MaxSamples)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"non-positive capacity", "buffer_capacity: 0"},
		{"negative capacity", "buffer_capacity: -5"},
		{"unknown level", "cluster:\n  min_level: loud\n  low_threshold: 5\n  medium_threshold: 20\n  high_threshold: 100"},
		{"descending thresholds", "cluster:\n  min_level: error\n  low_threshold: 100\n  medium_threshold: 20\n  high_threshold: 5"},
		{"bad yaml", "buffer_capacity: [not a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
