package buffer

import (
	"regexp"
	"strings"

	"github.com/fidde/logring/pkg/models"
)

// FilterOptions are the independent criteria of a Filtered query. All
// supplied criteria must match (logical AND); zero-valued fields are ignored.
type FilterOptions struct {
	// MinLevel keeps entries with Level >= MinLevel when non-nil.
	MinLevel *models.Level

	// Sources keeps entries whose SourceContext starts with any of the
	// listed prefixes.
	Sources []string

	// SearchPattern is compiled as a regular expression and matched
	// against Message and, when present, Exception.Message. An invalid
	// regex degrades to a literal substring match instead of failing.
	SearchPattern string

	// ExceptionsOnly keeps only entries carrying an exception.
	ExceptionsOnly bool

	// MaxCount caps the result length after filtering. Zero means no cap.
	MaxCount int
}

// predicate decides whether an entry passes one filter criterion.
type predicate func(*models.LogEntry) bool

// RecentEntries returns up to count entries, most-recently-inserted first.
// A non-positive count yields an empty slice.
func (b *Buffer) RecentEntries(count int) []*models.LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if count <= 0 {
		return []*models.LogEntry{}
	}
	if count > b.count {
		count = b.count
	}

	out := make([]*models.LogEntry, 0, count)
	for i := 1; i <= count; i++ {
		out = append(out, b.entries[(b.head-i+b.capacity)%b.capacity])
	}
	return out
}

// EntriesBefore returns up to count entries with ID < beforeID,
// most-recent-first. It is the backward-pagination cursor companion to
// RecentEntries.
func (b *Buffer) EntriesBefore(beforeID int64, count int) []*models.LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := []*models.LogEntry{}
	if count <= 0 {
		return out
	}

	for i := 1; i <= b.count && len(out) < count; i++ {
		entry := b.entries[(b.head-i+b.capacity)%b.capacity]
		if entry.ID < beforeID {
			out = append(out, entry)
		}
	}
	return out
}

// Filtered returns the entries matching all supplied criteria,
// most-recent-first. With no criteria it returns all entries. Queries are
// total: they never fail, they return an empty slice when nothing matches.
func (b *Buffer) Filtered(opts FilterOptions) []*models.LogEntry {
	preds := compileFilters(opts)

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := []*models.LogEntry{}
	for i := 1; i <= b.count; i++ {
		entry := b.entries[(b.head-i+b.capacity)%b.capacity]
		if matchesAll(entry, preds) {
			out = append(out, entry)
			if opts.MaxCount > 0 && len(out) >= opts.MaxCount {
				break
			}
		}
	}
	return out
}

// compileFilters builds the predicate set for one query. Predicates are
// compiled once per call, not per entry.
func compileFilters(opts FilterOptions) []predicate {
	var preds []predicate

	if opts.MinLevel != nil {
		floor := *opts.MinLevel
		preds = append(preds, func(e *models.LogEntry) bool {
			return e.Level >= floor
		})
	}

	if len(opts.Sources) > 0 {
		prefixes := opts.Sources
		preds = append(preds, func(e *models.LogEntry) bool {
			for _, prefix := range prefixes {
				if strings.HasPrefix(e.SourceContext, prefix) {
					return true
				}
			}
			return false
		})
	}

	if opts.SearchPattern != "" {
		preds = append(preds, compileSearch(opts.SearchPattern))
	}

	if opts.ExceptionsOnly {
		preds = append(preds, func(e *models.LogEntry) bool {
			return e.Exception != nil
		})
	}

	return preds
}

// compileSearch builds the text-search predicate. An unparseable pattern is
// not an error: it degrades to a literal substring match.
func compileSearch(pattern string) predicate {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return func(e *models.LogEntry) bool {
			if strings.Contains(e.Message, pattern) {
				return true
			}
			return e.Exception != nil && strings.Contains(e.Exception.Message, pattern)
		}
	}
	return func(e *models.LogEntry) bool {
		if re.MatchString(e.Message) {
			return true
		}
		return e.Exception != nil && re.MatchString(e.Exception.Message)
	}
}

func matchesAll(entry *models.LogEntry, preds []predicate) bool {
	for _, pred := range preds {
		if !pred(entry) {
			return false
		}
	}
	return true
}
