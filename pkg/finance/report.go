package finance

import (
	"sort"

	"github.com/shopspring/decimal"

	"brokerdesk/models"
)

// TypeBreakdown is the per-type slice of a financial summary.
type TypeBreakdown struct {
	Total   decimal.Decimal `json:"total"`
	Pending decimal.Decimal `json:"pending"`
}

// Summary aggregates a filtered transaction set.
type Summary struct {
	Total         decimal.Decimal `json:"total"`
	Count         int             `json:"count"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Receivables   TypeBreakdown   `json:"receivables"`
	Payables      TypeBreakdown   `json:"payables"`
}

// Summarize computes the financial summary over the given rows. Pure
// function over already-filtered data; calling it twice on the same set
// yields identical results.
func Summarize(rows []models.Transaction) Summary {
	s := Summary{
		Total:         decimal.Zero,
		PendingAmount: decimal.Zero,
		PaidAmount:    decimal.Zero,
		Receivables:   TypeBreakdown{Total: decimal.Zero, Pending: decimal.Zero},
		Payables:      TypeBreakdown{Total: decimal.Zero, Pending: decimal.Zero},
	}
	for _, t := range rows {
		s.Count++
		s.Total = s.Total.Add(t.Amount)
		switch t.Status {
		case models.StatusPending:
			s.PendingAmount = s.PendingAmount.Add(t.Amount)
		case models.StatusPaid:
			s.PaidAmount = s.PaidAmount.Add(t.Amount)
		}
		switch t.Type {
		case models.TypeReceivable:
			s.Receivables.Total = s.Receivables.Total.Add(t.Amount)
			if t.Status == models.StatusPending {
				s.Receivables.Pending = s.Receivables.Pending.Add(t.Amount)
			}
		case models.TypePayable:
			s.Payables.Total = s.Payables.Total.Add(t.Amount)
			if t.Status == models.StatusPending {
				s.Payables.Pending = s.Payables.Pending.Add(t.Amount)
			}
		}
	}
	return s
}

// CashFlowBucket is one due-date day within a cash-flow report.
type CashFlowBucket struct {
	Date    string          `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// CashFlow buckets the rows by due date at day granularity, splitting
// receivables into income and payables into expense. Balance is the
// per-day net, not a running total. Cancelled entries carry no expected
// money movement and are skipped. Buckets come back sorted by date, one
// per distinct due date present.
func CashFlow(rows []models.Transaction) []CashFlowBucket {
	byDay := map[string]*CashFlowBucket{}
	for _, t := range rows {
		if t.Status == models.StatusCancelled {
			continue
		}
		day := t.DueDate.Format(DateLayout)
		b, ok := byDay[day]
		if !ok {
			b = &CashFlowBucket{Date: day, Income: decimal.Zero, Expense: decimal.Zero}
			byDay[day] = b
		}
		switch t.Type {
		case models.TypeReceivable:
			b.Income = b.Income.Add(t.Amount)
		case models.TypePayable:
			b.Expense = b.Expense.Add(t.Amount)
		}
	}
	buckets := make([]CashFlowBucket, 0, len(byDay))
	for _, b := range byDay {
		b.Balance = b.Income.Sub(b.Expense)
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Date < buckets[j].Date })
	return buckets
}
