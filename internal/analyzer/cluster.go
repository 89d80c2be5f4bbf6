// Package analyzer groups near-duplicate error logs into actionable
// clusters by normalizing messages into patterns.
package analyzer

import (
	"sort"
	"strings"

	"github.com/fidde/logring/internal/patterns"
	"github.com/fidde/logring/pkg/models"
)

// emptyPattern is the pattern assigned to entries without a message, so
// normalization is total and never fails.
const emptyPattern = "<EMPTY>"

// Thresholds are the ascending count cut-points for cluster severity tiers:
// count <= Low is low, <= Medium is medium, <= High is high, above is
// critical.
type Thresholds struct {
	Low    int64
	Medium int64
	High   int64
}

// Config holds cluster analysis parameters.
type Config struct {
	// MinLevel is the severity floor for entries worth clustering.
	MinLevel models.Level

	// MaxSamples bounds the representative entries kept per cluster.
	MaxSamples int

	// Thresholds derive the severity tier from the cluster count.
	Thresholds Thresholds
}

// DefaultConfig returns the reference clustering behavior: errors only,
// five samples, 5/20/100 severity cut-points.
func DefaultConfig() Config {
	return Config{
		MinLevel:   models.LevelError,
		MaxSamples: 5,
		Thresholds: Thresholds{Low: 5, Medium: 20, High: 100},
	}
}

// ClusterAnalyzer computes error clusters over a snapshot of buffer
// contents. It holds no state between passes; clusters are never cached.
type ClusterAnalyzer struct {
	cfg      Config
	patterns []patterns.CompiledPattern
}

// NewClusterAnalyzer creates an analyzer. A nil pattern set selects the
// built-in defaults.
func NewClusterAnalyzer(cfg Config, pats []patterns.CompiledPattern) *ClusterAnalyzer {
	if pats == nil {
		pats = patterns.DefaultPatterns()
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = DefaultConfig().MaxSamples
	}
	return &ClusterAnalyzer{cfg: cfg, patterns: pats}
}

// ExtractPattern normalizes a message into its cluster pattern by replacing
// high-cardinality fragments with placeholders and collapsing whitespace.
// Every input yields some pattern; an empty message maps to a fixed marker.
func (a *ClusterAnalyzer) ExtractPattern(message string) string {
	pattern := message
	for _, p := range a.patterns {
		pattern = p.Regex.ReplaceAllString(pattern, p.Placeholder)
	}

	pattern = strings.Join(strings.Fields(pattern), " ")
	if pattern == "" {
		return emptyPattern
	}
	return pattern
}

// Clusters groups the qualifying entries of a buffer snapshot by pattern and
// returns the clusters ordered by count descending (pattern ascending on
// ties, so the result is independent of insertion order). maxClusters <= 0
// means no truncation.
//
// Entries must be supplied in insertion order (oldest first), as returned by
// the buffer snapshot; samples are kept most-recent-first.
func (a *ClusterAnalyzer) Clusters(entries []*models.LogEntry, maxClusters int) []*models.ErrorCluster {
	groups := make(map[string]*models.ErrorCluster)

	for _, entry := range entries {
		if entry.Level < a.cfg.MinLevel {
			continue
		}

		pattern := a.ExtractPattern(entry.Message)
		cluster, ok := groups[pattern]
		if !ok {
			cluster = &models.ErrorCluster{
				Pattern:   pattern,
				FirstSeen: entry.Timestamp,
				LastSeen:  entry.Timestamp,
			}
			groups[pattern] = cluster
		}

		cluster.Count++
		if entry.Timestamp.Before(cluster.FirstSeen) {
			cluster.FirstSeen = entry.Timestamp
		}
		if entry.Timestamp.After(cluster.LastSeen) {
			cluster.LastSeen = entry.Timestamp
		}

		// Entries arrive oldest first, so prepending keeps samples
		// most-recent-first; the slice is bounded at MaxSamples.
		cluster.Samples = append([]*models.LogEntry{entry}, cluster.Samples...)
		if len(cluster.Samples) > a.cfg.MaxSamples {
			cluster.Samples = cluster.Samples[:a.cfg.MaxSamples]
		}
	}

	clusters := make([]*models.ErrorCluster, 0, len(groups))
	for _, cluster := range groups {
		cluster.Severity = a.severityFor(cluster.Count)
		clusters = append(clusters, cluster)
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].Count != clusters[j].Count {
			return clusters[i].Count > clusters[j].Count
		}
		return clusters[i].Pattern < clusters[j].Pattern
	})

	if maxClusters > 0 && len(clusters) > maxClusters {
		clusters = clusters[:maxClusters]
	}
	return clusters
}

// severityFor maps a cluster count to its triage tier.
func (a *ClusterAnalyzer) severityFor(count int64) models.ClusterSeverity {
	t := a.cfg.Thresholds
	switch {
	case count <= t.Low:
		return models.ClusterSeverityLow
	case count <= t.Medium:
		return models.ClusterSeverityMedium
	case count <= t.High:
		return models.ClusterSeverityHigh
	default:
		return models.ClusterSeverityCritical
	}
}
