package buffer

import (
	"fmt"
	"testing"
	"time"

	"github.com/fidde/logring/pkg/models"
)

func newTestBuffer(t *testing.T, capacity int) *Buffer {
	t.Helper()
	buf, err := New(Config{Capacity: capacity, NotifyQueueSize: 16})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(buf.Close)
	return buf
}

func entryAt(level models.Level, message string) models.LogEntry {
	return models.LogEntry{
		Timestamp:     time.Now(),
		Level:         level,
		Message:       message,
		SourceContext: "App.Services.TestService",
	}
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, -100} {
		t.Run(fmt.Sprintf("capacity=%d", capacity), func(t *testing.T) {
			if _, err := New(Config{Capacity: capacity}); err == nil {
				t.Errorf("expected error for capacity %d, got nil", capacity)
			}
		})
	}
}

func TestAdd_BelowCapacity(t *testing.T) {
	buf := newTestBuffer(t, 10)

	for i := 0; i < 5; i++ {
		buf.Add(entryAt(models.LevelInformation, fmt.Sprintf("message %d", i)))
	}

	stats := buf.Stats()
	if stats.TotalEntries != 5 {
		t.Errorf("expected 5 entries, got %d", stats.TotalEntries)
	}
	if stats.MaxCapacity != 10 {
		t.Errorf("expected capacity 10, got %d", stats.MaxCapacity)
	}
	if got := len(buf.RecentEntries(100)); got != 5 {
		t.Errorf("expected 5 recent entries, got %d", got)
	}
}

func TestAdd_EvictsOldest(t *testing.T) {
	buf := newTestBuffer(t, 3)

	ids := make([]int64, 0, 4)
	for i := 1; i <= 4; i++ {
		ids = append(ids, buf.Add(entryAt(models.LevelInformation, fmt.Sprintf("E%d", i))))
	}

	recent := buf.RecentEntries(10)
	if len(recent) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(recent))
	}

	// Most-recent-first: E4, E3, E2. E1 was evicted.
	wantMessages := []string{"E4", "E3", "E2"}
	for i, want := range wantMessages {
		if recent[i].Message != want {
			t.Errorf("recent[%d]: expected %q, got %q", i, want, recent[i].Message)
		}
	}

	for _, e := range recent {
		if e.ID == ids[0] {
			t.Errorf("evicted entry id %d still resident", ids[0])
		}
	}

	stats := buf.Stats()
	if stats.TotalEntries != 3 {
		t.Errorf("expected TotalEntries 3 after eviction, got %d", stats.TotalEntries)
	}
}

func TestAdd_IDsStrictlyIncreasing(t *testing.T) {
	buf := newTestBuffer(t, 5)

	var prev int64
	for i := 0; i < 20; i++ {
		id := buf.Add(entryAt(models.LevelDebug, "message"))
		if id <= prev {
			t.Fatalf("id %d not greater than previous %d", id, prev)
		}
		prev = id
	}
}

func TestAdd_ZeroTimestampNormalized(t *testing.T) {
	buf := newTestBuffer(t, 5)

	buf.Add(models.LogEntry{Level: models.LevelInformation, Message: "no timestamp"})

	recent := buf.RecentEntries(1)
	if len(recent) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(recent))
	}
	if recent[0].Timestamp.IsZero() {
		t.Error("expected zero timestamp to be normalized to insertion time")
	}
}

func TestStats_LevelCountsMatchTotal(t *testing.T) {
	buf := newTestBuffer(t, 4)

	levels := []models.Level{
		models.LevelDebug,
		models.LevelInformation,
		models.LevelWarning,
		models.LevelError,
		models.LevelError,
		models.LevelCritical,
	}
	for _, level := range levels {
		buf.Add(entryAt(level, "message"))

		stats := buf.Stats()
		var sum int64
		for _, n := range stats.EntriesByLevel {
			sum += n
		}
		if sum != stats.TotalEntries {
			t.Fatalf("level counts sum %d != total %d", sum, stats.TotalEntries)
		}
	}

	// Capacity 4: Debug and Information were evicted and their levels must
	// not linger as explicit zeroes.
	stats := buf.Stats()
	if _, ok := stats.EntriesByLevel[models.LevelDebug]; ok {
		t.Error("evicted level Debug still present in EntriesByLevel")
	}
	if stats.EntriesByLevel[models.LevelError] != 2 {
		t.Errorf("expected 2 Error entries, got %d", stats.EntriesByLevel[models.LevelError])
	}
}

func TestStats_MemoryAccounting(t *testing.T) {
	buf := newTestBuffer(t, 2)

	buf.Add(entryAt(models.LevelInformation, "first message"))
	after1 := buf.Stats().MemoryUsageBytes
	if after1 <= 0 {
		t.Fatalf("expected positive memory usage, got %d", after1)
	}

	buf.Add(entryAt(models.LevelInformation, "second message"))
	after2 := buf.Stats().MemoryUsageBytes
	if after2 <= after1 {
		t.Fatalf("expected memory to grow, got %d then %d", after1, after2)
	}

	// Third insert evicts the first: usage must reflect retraction, not
	// keep accumulating.
	buf.Add(entryAt(models.LevelInformation, "third message"))
	after3 := buf.Stats().MemoryUsageBytes
	if after3 >= after1+after2 {
		t.Errorf("eviction did not retract memory estimate: %d", after3)
	}
}

func TestStats_Timestamps(t *testing.T) {
	buf := newTestBuffer(t, 3)

	if stats := buf.Stats(); stats.OldestEntry != nil || stats.NewestEntry != nil {
		t.Error("expected nil timestamps on empty buffer")
	}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		buf.Add(models.LogEntry{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Level:     models.LevelInformation,
			Message:   "m",
		})
	}

	stats := buf.Stats()
	if stats.OldestEntry == nil || stats.NewestEntry == nil {
		t.Fatal("expected timestamps on populated buffer")
	}
	// First entry evicted; oldest resident is base+1m.
	if !stats.OldestEntry.Equal(base.Add(time.Minute)) {
		t.Errorf("oldest: expected %v, got %v", base.Add(time.Minute), stats.OldestEntry)
	}
	if !stats.NewestEntry.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("newest: expected %v, got %v", base.Add(3*time.Minute), stats.NewestEntry)
	}
}

func TestClear(t *testing.T) {
	buf := newTestBuffer(t, 5)

	for i := 0; i < 5; i++ {
		buf.Add(entryAt(models.LevelError, "failure"))
	}
	lastID := buf.Add(entryAt(models.LevelError, "failure"))

	buf.Clear()

	stats := buf.Stats()
	if stats.TotalEntries != 0 {
		t.Errorf("expected 0 entries after clear, got %d", stats.TotalEntries)
	}
	if stats.MemoryUsageBytes != 0 {
		t.Errorf("expected 0 memory after clear, got %d", stats.MemoryUsageBytes)
	}
	if len(stats.EntriesByLevel) != 0 {
		t.Errorf("expected empty level map after clear, got %v", stats.EntriesByLevel)
	}
	if stats.OldestEntry != nil || stats.NewestEntry != nil {
		t.Error("expected nil timestamps after clear")
	}
	if got := len(buf.RecentEntries(10)); got != 0 {
		t.Errorf("expected no entries after clear, got %d", got)
	}

	// The ID counter keeps running across Clear so old cursors stay valid.
	newID := buf.Add(entryAt(models.LevelInformation, "post clear"))
	if newID <= lastID {
		t.Errorf("expected post-clear id %d to exceed pre-clear id %d", newID, lastID)
	}
	recent := buf.RecentEntries(10)
	if len(recent) != 1 || recent[0].Message != "post clear" {
		t.Errorf("expected post-clear entry to be retrievable, got %v", recent)
	}
}

func TestSnapshot_InsertionOrder(t *testing.T) {
	buf := newTestBuffer(t, 3)

	for i := 1; i <= 5; i++ {
		buf.Add(entryAt(models.LevelInformation, fmt.Sprintf("E%d", i)))
	}

	snapshot := buf.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(snapshot))
	}
	for i, want := range []string{"E3", "E4", "E5"} {
		if snapshot[i].Message != want {
			t.Errorf("snapshot[%d]: expected %q, got %q", i, want, snapshot[i].Message)
		}
	}
}

func BenchmarkAdd(b *testing.B) {
	buf, err := New(Config{Capacity: 1000, NotifyQueueSize: 256})
	if err != nil {
		b.Fatalf("New failed: %v", err)
	}
	defer buf.Close()

	entry := models.LogEntry{
		Timestamp:     time.Now(),
		Level:         models.LevelInformation,
		Message:       "User 550e8400-e29b-41d4-a716-446655440000 not found",
		SourceContext: "App.Services.UserService",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Add(entry)
	}
}
