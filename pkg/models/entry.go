// Package models defines the data model for the diagnostics log buffer.
package models

import "time"

// entryOverheadBytes is the fixed per-entry cost added to the payload size
// when estimating memory usage (struct header, timestamp, slot pointer).
const entryOverheadBytes = 64

// ExceptionInfo describes an exception attached to a log entry.
type ExceptionInfo struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StackTrace string `json:"stack_trace,omitempty"`
}

// LogEntry is a single buffered log record. Entries are immutable once
// stored; the ID is assigned by the buffer at insertion time and is strictly
// increasing across all inserts for the life of the process.
type LogEntry struct {
	ID            int64          `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	Level         Level          `json:"level"`
	Message       string         `json:"message"`
	SourceContext string         `json:"source_context"`
	Exception     *ExceptionInfo `json:"exception,omitempty"`
}

// EstimatedSize returns the approximate memory cost of the entry in bytes.
// It is an estimate over string payloads plus a fixed overhead, not an exact
// heap measurement.
func (e *LogEntry) EstimatedSize() int64 {
	size := int64(entryOverheadBytes + len(e.Message) + len(e.SourceContext))
	if e.Exception != nil {
		size += int64(len(e.Exception.Type) + len(e.Exception.Message) + len(e.Exception.StackTrace))
	}
	return size
}

// BufferStats is a point-in-time snapshot of the buffer's aggregate state.
// EntriesByLevel contains only levels with a non-zero count. OldestEntry and
// NewestEntry are nil when the buffer is empty.
type BufferStats struct {
	TotalEntries         int64           `json:"total_entries"`
	MaxCapacity          int64           `json:"max_capacity"`
	MemoryUsageBytes     int64           `json:"memory_usage_bytes"`
	EntriesByLevel       map[Level]int64 `json:"entries_by_level"`
	OldestEntry          *time.Time      `json:"oldest_entry,omitempty"`
	NewestEntry          *time.Time      `json:"newest_entry,omitempty"`
	DroppedNotifications uint64          `json:"dropped_notifications"`
}
