package reconciliation

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgingBuckets sums open remainders by days past due.
type AgingBuckets struct {
	Current decimal.Decimal `json:"current"`
	Days30  decimal.Decimal `json:"days30"`
	Days60  decimal.Decimal `json:"days60"`
	Days90  decimal.Decimal `json:"days90"`
	Over90  decimal.Decimal `json:"over90"`
}

func newAgingBuckets() AgingBuckets {
	return AgingBuckets{Current: decimal.Zero, Days30: decimal.Zero, Days60: decimal.Zero, Days90: decimal.Zero, Over90: decimal.Zero}
}

// add places one open invoice. Invoices without a due date age from creation.
func (b *AgingBuckets) add(inv OpenInvoice, asOf time.Time) {
	due := inv.CreatedAt
	if inv.DueDate != nil {
		due = *inv.DueDate
	}
	days := int(asOf.Sub(due).Hours() / 24)
	switch {
	case days <= 0:
		b.Current = b.Current.Add(inv.Remaining)
	case days <= 30:
		b.Days30 = b.Days30.Add(inv.Remaining)
	case days <= 60:
		b.Days60 = b.Days60.Add(inv.Remaining)
	case days <= 90:
		b.Days90 = b.Days90.Add(inv.Remaining)
	default:
		b.Over90 = b.Over90.Add(inv.Remaining)
	}
}

// Total is the sum of every bucket.
func (b AgingBuckets) Total() decimal.Decimal {
	return b.Current.Add(b.Days30).Add(b.Days60).Add(b.Days90).Add(b.Over90)
}

func ageParties(parties []PartyBalance, asOf time.Time) AgingBuckets {
	buckets := newAgingBuckets()
	for _, p := range parties {
		for _, inv := range p.Invoices {
			buckets.add(inv, asOf)
		}
	}
	return buckets
}
