package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hesabdari/backend/internal/domain/analysis"
	"github.com/hesabdari/backend/internal/domain/shared"
	"github.com/hesabdari/backend/internal/infrastructure/cache"
)

// Service runs analyses through the cache: identical requests inside
// the TTL window return the previously computed payload byte for byte,
// and concurrent misses for the same fingerprint collapse into a
// single computation.
type Service struct {
	datasets   *DatasetStore
	engine     *analysis.Engine
	normalizer *analysis.Normalizer
	cache      *cache.Manager
	logger     *zap.Logger
	now        func() time.Time

	flightMu sync.Mutex
	flights  map[string]*flight
}

type flight struct {
	mu   sync.Mutex
	refs int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger.
func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceClock overrides the time source, used by tests to pin the
// default reference date.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the analysis pipeline together.
func NewService(datasets *DatasetStore, engine *analysis.Engine, normalizer *analysis.Normalizer, cacheManager *cache.Manager, opts ...ServiceOption) *Service {
	s := &Service{
		datasets:   datasets,
		engine:     engine,
		normalizer: normalizer,
		cache:      cacheManager,
		logger:     zap.NewNop(),
		now:        time.Now,
		flights:    make(map[string]*flight),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cachedResult is the wire form of a cache entry. The payload is kept
// as raw JSON so a hit returns exactly the bytes that were stored.
type cachedResult struct {
	ID         uuid.UUID       `json:"id"`
	ComputedAt time.Time       `json:"computed_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Analyze resolves one analysis request. The returned bool reports
// whether the result came from the cache.
func (s *Service) Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, bool, error) {
	canon := req.Canonical(s.now())
	if err := canon.Params.Validate(); err != nil {
		return nil, false, err
	}
	key := canon.Fingerprint()

	if result, ok := s.lookup(ctx, canon, key); ok {
		return result, true, nil
	}

	release := s.lockFlight(key)
	defer release()

	// Another request may have computed and stored this fingerprint
	// while we waited for the flight lock.
	if result, ok := s.lookup(ctx, canon, key); ok {
		return result, true, nil
	}

	payload, err := s.engine.Analyze(s.datasets.Snapshot(), canon)
	if err != nil {
		return nil, false, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("encode %s payload: %w", canon.Kind, err)
	}

	entry := cachedResult{
		ID:         uuid.New(),
		ComputedAt: s.now().UTC(),
		Payload:    raw,
	}
	if data, err := json.Marshal(entry); err == nil {
		s.cache.Set(ctx, key, data)
	}

	s.logger.Debug("analysis computed",
		zap.String("kind", string(canon.Kind)),
		zap.String("source", string(canon.Source)),
		zap.String("fingerprint", key))

	return s.materialize(canon, key, entry), false, nil
}

func (s *Service) lookup(ctx context.Context, canon analysis.Request, key string) (*analysis.Result, bool) {
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var entry cachedResult
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn("discarding malformed cache entry",
			zap.String("fingerprint", key), zap.Error(err))
		return nil, false
	}
	return s.materialize(canon, key, entry), true
}

func (s *Service) materialize(canon analysis.Request, key string, entry cachedResult) *analysis.Result {
	return &analysis.Result{
		ID:          entry.ID,
		Kind:        canon.Kind,
		Source:      canon.Source,
		Payload:     entry.Payload,
		ComputedAt:  entry.ComputedAt,
		Fingerprint: key,
	}
}

// lockFlight serializes computations per fingerprint so a burst of
// identical misses runs the engine once. The returned func releases
// the slot and drops the map entry once nobody else is waiting.
func (s *Service) lockFlight(key string) func() {
	s.flightMu.Lock()
	f := s.flights[key]
	if f == nil {
		f = &flight{}
		s.flights[key] = f
	}
	f.refs++
	s.flightMu.Unlock()

	f.mu.Lock()
	return func() {
		f.mu.Unlock()
		s.flightMu.Lock()
		f.refs--
		if f.refs == 0 {
			delete(s.flights, key)
		}
		s.flightMu.Unlock()
	}
}

// LoadRows normalizes a raw batch for one source type, swaps it into
// the dataset store, and invalidates every cached analysis the new
// data can affect.
func (s *Service) LoadRows(ctx context.Context, source analysis.SourceType, rows []analysis.RawRow) (int, []analysis.NormalizationWarning, error) {
	if source == analysis.SourceAll {
		return 0, nil, fmt.Errorf("%w: cannot load rows into source %q", shared.ErrInvalidParameter, source)
	}
	records, warnings := s.normalizer.Normalize(rows, source)
	s.datasets.Replace(source, records, warnings)
	s.Invalidate(ctx, source)
	s.logger.Info("dataset reloaded",
		zap.String("source", string(source)),
		zap.Int("records", len(records)),
		zap.Int("warnings", len(warnings)))
	return len(records), warnings, nil
}

// Invalidate clears cached analyses for a source selector. Single-source
// invalidation also clears the cross-source entries, which depend on
// every source; invalidating "all" clears everything.
func (s *Service) Invalidate(ctx context.Context, source analysis.SourceType) {
	if source == analysis.SourceAll {
		s.cache.Invalidate(ctx, "analysis:")
		return
	}
	s.cache.Invalidate(ctx, analysis.FingerprintPrefix(source))
	s.cache.Invalidate(ctx, analysis.FingerprintPrefix(analysis.SourceAll))
}

// Counts reports how many records are loaded per source type.
func (s *Service) Counts() map[analysis.SourceType]int {
	return s.datasets.Counts()
}

// Warnings reports the normalization warnings of the last reload for a
// source type.
func (s *Service) Warnings(source analysis.SourceType) []analysis.NormalizationWarning {
	return s.datasets.Warnings(source)
}
