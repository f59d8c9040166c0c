package analysis

import (
	"sync"

	"github.com/hesabdari/backend/internal/domain/analysis"
)

// DatasetStore holds the currently loaded canonical records, one slice
// per source type. The ingestion layer replaces whole slices on reload;
// readers get immutable snapshots, so analyses running during a reload
// keep seeing a consistent dataset.
type DatasetStore struct {
	mu       sync.RWMutex
	records  analysis.Dataset
	warnings map[analysis.SourceType][]analysis.NormalizationWarning
}

// NewDatasetStore creates an empty store
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{
		records:  make(analysis.Dataset),
		warnings: make(map[analysis.SourceType][]analysis.NormalizationWarning),
	}
}

// Replace swaps in a freshly normalized batch for one source type,
// along with the warnings its normalization produced.
func (s *DatasetStore) Replace(source analysis.SourceType, records []analysis.CanonicalRecord, warnings []analysis.NormalizationWarning) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[source] = records
	s.warnings[source] = warnings
}

// Snapshot returns the current dataset. The returned map is a copy;
// the record slices are shared but never mutated after Replace.
func (s *DatasetStore) Snapshot() analysis.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(analysis.Dataset, len(s.records))
	for st, recs := range s.records {
		snapshot[st] = recs
	}
	return snapshot
}

// Warnings returns the normalization warnings of the last reload for a
// source type.
func (s *DatasetStore) Warnings(source analysis.SourceType) []analysis.NormalizationWarning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.warnings[source]
}

// Counts returns the number of loaded records per source type.
func (s *DatasetStore) Counts() map[analysis.SourceType]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[analysis.SourceType]int, len(s.records))
	for st, recs := range s.records {
		counts[st] = len(recs)
	}
	return counts
}
