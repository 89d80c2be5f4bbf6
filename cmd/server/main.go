// Package main is the entry point for the logring diagnostics buffer server.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fidde/logring/internal/analyzer"
	"github.com/fidde/logring/internal/buffer"
	"github.com/fidde/logring/internal/config"
	"github.com/fidde/logring/internal/patterns"
	"github.com/fidde/logring/internal/receiver"
	"github.com/fidde/logring/pkg/models"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("starting logring diagnostics buffer")

	// Load configuration: YAML file if present, env overrides on top.
	cfg := config.Default()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatalf("Config error: %v", err)
		}
		cfg = loaded
	}
	cfg.BufferCapacity = getEnvInt("BUFFER_CAPACITY", cfg.BufferCapacity)
	cfg.OTLPHTTPAddr = getEnv("OTLP_HTTP_ADDR", cfg.OTLPHTTPAddr)
	cfg.OTLPGRPCAddr = getEnv("OTLP_GRPC_ADDR", cfg.OTLPGRPCAddr)
	cfg.PprofAddr = getEnv("PPROF_ADDR", cfg.PprofAddr)
	cfg.PatternsFile = getEnv("PATTERNS_FILE", cfg.PatternsFile)

	// Create the buffer. A bad capacity is fatal at construction.
	buf, err := buffer.New(buffer.Config{
		Capacity:        cfg.BufferCapacity,
		NotifyQueueSize: cfg.NotifyQueueSize,
	})
	if err != nil {
		log.Fatalf("Buffer error: %v", err)
	}
	defer buf.Close()
	logger.Info("buffer created", "capacity", cfg.BufferCapacity)

	// Normalization patterns for error clustering.
	var pats []patterns.CompiledPattern
	if cfg.PatternsFile != "" {
		pats, err = patterns.Load(cfg.PatternsFile)
		if err != nil {
			log.Fatalf("Patterns error: %v", err)
		}
		logger.Info("loaded normalization patterns", "file", cfg.PatternsFile, "count", len(pats))
	}

	clusterCfg, err := cfg.ClusterAnalyzerConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	clusters := analyzer.NewClusterAnalyzer(clusterCfg, pats)

	// Optional live tail: log every buffered entry through slog.
	if getEnvBool("LIVE_TAIL", false) {
		buf.Subscribe(func(entry *models.LogEntry) {
			logger.Info("tail",
				"id", entry.ID,
				"level", entry.Level.String(),
				"source", entry.SourceContext,
				"message", entry.Message)
		})
		logger.Info("live tail enabled")
	}

	// Periodic cluster report for operator triage.
	reportInterval := time.Duration(getEnvInt("CLUSTER_REPORT_SECONDS", 0)) * time.Second
	reportDone := make(chan struct{})
	if reportInterval > 0 {
		go func() {
			ticker := time.NewTicker(reportInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					for _, c := range clusters.Clusters(buf.Snapshot(), 10) {
						logger.Info("error cluster",
							"pattern", c.Pattern,
							"count", c.Count,
							"severity", string(c.Severity),
							"last_seen", c.LastSeen)
					}
				case <-reportDone:
					return
				}
			}
		}()
	}
	defer close(reportDone)

	// OTLP receivers feeding the buffer.
	httpReceiver := receiver.NewHTTPReceiver(cfg.OTLPHTTPAddr, buf)
	grpcReceiver := receiver.NewGRPCReceiver(cfg.OTLPGRPCAddr, buf)

	// Start pprof server for profiling (separate port)
	go func() {
		logger.Info("starting pprof server", "addr", cfg.PprofAddr)
		if err := http.ListenAndServe(cfg.PprofAddr, nil); err != nil {
			logger.Error("pprof server error", "error", err)
		}
	}()

	errChan := make(chan error, 2)

	go func() {
		logger.Info("starting OTLP HTTP receiver", "addr", cfg.OTLPHTTPAddr)
		if err := httpReceiver.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("OTLP HTTP receiver error: %w", err)
		}
	}()

	go func() {
		logger.Info("starting OTLP gRPC receiver", "addr", cfg.OTLPGRPCAddr)
		if err := grpcReceiver.Start(); err != nil {
			errChan <- fmt.Errorf("OTLP gRPC receiver error: %w", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpReceiver.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down OTLP HTTP receiver", "error", err)
	}
	if err := grpcReceiver.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down OTLP gRPC receiver", "error", err)
	}

	stats := buf.Stats()
	logger.Info("shutdown complete",
		"buffered_entries", stats.TotalEntries,
		"dropped_notifications", stats.DroppedNotifications)
}

// getEnv gets an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default fallback.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
