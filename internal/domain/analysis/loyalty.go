package analysis

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// customerLoyalty ranks counterparties by how often they transact, with
// total and average value and the date of their latest event. Records
// without a counterparty group under UnknownCounterparty, same as the
// top-counterparties ranking.
func (e *Engine) customerLoyalty(records []CanonicalRecord) CustomerLoyaltyPayload {
	type accum struct {
		name  string
		sum   decimal.Decimal
		count int64
		last  time.Time
	}

	byName := make(map[string]int)
	accums := make([]accum, 0)
	for _, r := range records {
		name := r.Counterparty
		if name == "" {
			name = UnknownCounterparty
		}
		idx, ok := byName[name]
		if !ok {
			idx = len(accums)
			byName[name] = idx
			accums = append(accums, accum{name: name})
		}
		accums[idx].sum = accums[idx].sum.Add(r.Amount)
		accums[idx].count++
		if r.EventDate.After(accums[idx].last) {
			accums[idx].last = r.EventDate
		}
	}

	sort.SliceStable(accums, func(i, j int) bool { return accums[i].count > accums[j].count })

	customers := make([]LoyaltyStat, 0, len(accums))
	for _, a := range accums {
		customers = append(customers, LoyaltyStat{
			Name:               a.name,
			TotalValue:         a.sum,
			OrderCount:         a.count,
			AverageValue:       a.sum.Div(decimal.NewFromInt(a.count)),
			LastPurchase:       isoDate(a.last),
			LastPurchaseJalali: FormatJalali(a.last),
		})
	}

	return CustomerLoyaltyPayload{TotalCustomers: len(customers), Customers: customers}
}
