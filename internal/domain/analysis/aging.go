package analysis

import (
	"time"

	"github.com/shopspring/decimal"
)

// accountsAging ages payables and receivables independently against the
// same reference date. Records dated after the reference date are not
// yet due and excluded entirely; a record due exactly on the reference
// date sits in the "current" bucket with zero days overdue. Amounts are
// magnitudes. Zero-amount records participate like any other.
func (e *Engine) accountsAging(ds Dataset, referenceDate time.Time) AccountsAgingPayload {
	payload := AccountsAgingPayload{
		ReferenceDate:       isoDate(referenceDate),
		ReferenceJalaliDate: FormatJalali(referenceDate),
		Payables:            e.ageSide(ds[SourcePayable], referenceDate),
		Receivables:         e.ageSide(ds[SourceReceivable], referenceDate),
	}
	payload.NetPosition = payload.Receivables.Total.Sub(payload.Payables.Total)
	return payload
}

func (e *Engine) ageSide(records []CanonicalRecord, referenceDate time.Time) AgingSide {
	side := AgingSide{Buckets: newAgingBuckets()}

	for _, r := range records {
		if r.EventDate.After(referenceDate) {
			continue
		}
		amount := r.Amount.Abs()
		daysOverdue := int(referenceDate.Sub(r.EventDate).Hours() / 24)

		side.Total = side.Total.Add(amount)
		bucket := bucketFor(daysOverdue)
		side.Buckets[bucket] = side.Buckets[bucket].Add(amount)
		if daysOverdue > 0 {
			side.TotalOverdue = side.TotalOverdue.Add(amount)
		}
	}

	return side
}

func bucketFor(daysOverdue int) string {
	switch {
	case daysOverdue <= 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return Bucket1To30
	case daysOverdue <= 60:
		return Bucket31To60
	case daysOverdue <= 90:
		return Bucket61To90
	default:
		return Bucket90Plus
	}
}

func newAgingBuckets() map[string]decimal.Decimal {
	buckets := make(map[string]decimal.Decimal, len(AgingBucketNames))
	for _, name := range AgingBucketNames {
		buckets[name] = decimal.Decimal{}
	}
	return buckets
}
