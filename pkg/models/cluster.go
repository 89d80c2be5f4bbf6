package models

import "time"

// ClusterSeverity is the triage tier of an error cluster, derived from the
// cluster's entry count.
type ClusterSeverity string

const (
	ClusterSeverityLow      ClusterSeverity = "low"
	ClusterSeverityMedium   ClusterSeverity = "medium"
	ClusterSeverityHigh     ClusterSeverity = "high"
	ClusterSeverityCritical ClusterSeverity = "critical"
)

// ErrorCluster is a group of buffered entries whose messages normalize to
// the same pattern. Clusters are computed on demand and never stored.
type ErrorCluster struct {
	Pattern   string          `json:"pattern"`
	Count     int64           `json:"count"`
	Severity  ClusterSeverity `json:"severity"`
	FirstSeen time.Time       `json:"first_seen"`
	LastSeen  time.Time       `json:"last_seen"`
	Samples   []*LogEntry     `json:"samples"`
}
