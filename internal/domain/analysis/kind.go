package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hesabdari/backend/internal/domain/shared"
)

// Kind is the closed set of analyses the engine can run. Dispatch is a
// switch over these values; an unknown kind is rejected, never
// defaulted.
type Kind string

const (
	KindDailyBreakdown    Kind = "daily_breakdown"
	KindCumulative        Kind = "cumulative"
	KindTopCounterparties Kind = "top_counterparties"
	KindSummaryStats      Kind = "summary_stats"
	KindCustomerLoyalty   Kind = "customer_loyalty"
	KindCashFlow          Kind = "cash_flow"
	KindAccountsAging     Kind = "accounts_aging"
	KindProfitability     Kind = "profitability"
	KindForecast          Kind = "forecast"
)

// Kinds lists every analysis kind.
var Kinds = []Kind{
	KindDailyBreakdown,
	KindCumulative,
	KindTopCounterparties,
	KindSummaryStats,
	KindCustomerLoyalty,
	KindCashFlow,
	KindAccountsAging,
	KindProfitability,
	KindForecast,
}

// ParseKind maps a request string to a Kind. Unknown kinds are an
// INVALID_PARAMETER: a wrong kind is a caller bug, not missing data.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown analysis kind %q", shared.ErrInvalidParameter, s)
}

// CrossSource reports whether the kind aggregates over every source type
// regardless of the request's source selector.
func (k Kind) CrossSource() bool {
	switch k {
	case KindCashFlow, KindAccountsAging, KindProfitability, KindForecast:
		return true
	}
	return false
}

// Forecast horizon bounds. Out-of-range requests are clamped, not
// rejected.
const (
	MinForecastDays     = 1
	MaxForecastDays     = 180
	DefaultForecastDays = 90
	DefaultTopN         = 10
)

// Params carries the per-kind knobs of an analysis request. The zero
// value is valid; Normalized fills in defaults.
type Params struct {
	// TopN bounds the counterparty rankings. Defaults to 10.
	TopN int
	// ForecastDays is the forecast horizon, clamped to [1, 180].
	ForecastDays int
	// ReferenceDate is the as-of date for aging and forecast windows.
	// Injected explicitly so tests and concurrent requests cannot
	// interfere; defaults to today (UTC).
	ReferenceDate time.Time
	// NetRevenue optionally supplies a net-of-discount revenue total for
	// profitability margin calculations.
	NetRevenue *decimal.Decimal
}

// Validate rejects parameter values that indicate a call-site bug.
// ForecastDays is deliberately absent: out-of-range horizons clamp.
func (p Params) Validate() error {
	if p.TopN < 0 {
		return fmt.Errorf("%w: top_n must not be negative, got %d", shared.ErrInvalidParameter, p.TopN)
	}
	return nil
}

// Normalized returns a copy with defaults applied and the forecast
// horizon clamped. now supplies the default reference date.
func (p Params) Normalized(now time.Time) Params {
	out := p
	if out.TopN == 0 {
		out.TopN = DefaultTopN
	}
	if out.ForecastDays == 0 {
		out.ForecastDays = DefaultForecastDays
	}
	if out.ForecastDays < MinForecastDays {
		out.ForecastDays = MinForecastDays
	}
	if out.ForecastDays > MaxForecastDays {
		out.ForecastDays = MaxForecastDays
	}
	if out.ReferenceDate.IsZero() {
		out.ReferenceDate = now
	}
	out.ReferenceDate = truncateToDay(out.ReferenceDate)
	return out
}

// Request is one analysis request: a source selector, a kind and its
// parameters. Cross-source kinds canonicalize the selector to "all" so
// equivalent requests share a fingerprint.
type Request struct {
	Source SourceType
	Kind   Kind
	Params Params
}

// Canonical returns the request with defaults applied and the selector
// normalized for cross-source kinds.
func (r Request) Canonical(now time.Time) Request {
	out := r
	out.Params = r.Params.Normalized(now)
	if r.Kind.CrossSource() {
		out.Source = SourceAll
	}
	return out
}

// FingerprintPrefix is the cache-key prefix shared by every analysis
// entry for a source selector; invalidation works on this prefix.
func FingerprintPrefix(source SourceType) string {
	return fmt.Sprintf("analysis:%s:", source)
}

// Fingerprint derives the deterministic cache key of a canonical
// request. Identical inputs always produce identical fingerprints; the
// parameter encoding has a fixed field order, so no map iteration can
// leak into the key.
func (r Request) Fingerprint() string {
	params := fmt.Sprintf("top_n=%d&forecast_days=%d&reference_date=%s&net_revenue=%s",
		r.Params.TopN,
		r.Params.ForecastDays,
		r.Params.ReferenceDate.Format("2006-01-02"),
		netRevenueKey(r.Params.NetRevenue),
	)
	sum := sha256.Sum256([]byte(params))
	return fmt.Sprintf("%s%s:%s", FingerprintPrefix(r.Source), r.Kind, hex.EncodeToString(sum[:8]))
}

func netRevenueKey(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
