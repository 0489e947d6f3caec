package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Daily cash reconciliation
// ============================================================

// CashStatus is the register state for one calendar date. CLOSED is terminal.
type CashStatus string

const (
	CashOpen   CashStatus = "OPEN"
	CashClosed CashStatus = "CLOSED"
)

// DailyCashReport reconciles all register activity for one calendar date.
type DailyCashReport struct {
	ID              int64           `json:"id"`
	Date            time.Time       `json:"date"`
	Status          CashStatus      `json:"status"`
	OpeningBalance  decimal.Decimal `json:"openingBalance"`
	CashIncome      decimal.Decimal `json:"cashIncome"`
	CardIncome      decimal.Decimal `json:"cardIncome"`
	PixIncome       decimal.Decimal `json:"pixIncome"`
	OtherIncome     decimal.Decimal `json:"otherIncome"`
	CashExpense     decimal.Decimal `json:"cashExpense"`
	CardExpense     decimal.Decimal `json:"cardExpense"`
	PixExpense      decimal.Decimal `json:"pixExpense"`
	OtherExpense    decimal.Decimal `json:"otherExpense"`
	TotalIncome     decimal.Decimal `json:"totalIncome"`
	TotalExpense    decimal.Decimal `json:"totalExpense"`
	ExpectedBalance decimal.Decimal `json:"expectedBalance"`
	ClosingBalance  decimal.Decimal `json:"closingBalance"`
	Difference      decimal.Decimal `json:"difference"`
	ClosedBy        string          `json:"closedBy,omitempty"`
	ClosedAt        *time.Time      `json:"closedAt,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`

	Transactions []FinancialTransaction `json:"transactions,omitempty"`
}

// NewDailyCashReport opens a register for date with the given balance.
func NewDailyCashReport(date time.Time, opening decimal.Decimal) *DailyCashReport {
	return &DailyCashReport{
		Date:            date,
		Status:          CashOpen,
		OpeningBalance:  opening,
		ExpectedBalance: opening,
		ClosingBalance:  opening,
	}
}

// Recompute rebuilds every total from txs. It never patches totals
// incrementally, so calling it twice with the same input is a no-op.
func (r *DailyCashReport) Recompute(txs []FinancialTransaction) {
	income := map[CashBucket]decimal.Decimal{}
	expense := map[CashBucket]decimal.Decimal{}
	for _, tx := range txs {
		b := tx.PaymentMethod.Bucket()
		if tx.Type == Income {
			income[b] = income[b].Add(tx.Amount)
		} else {
			expense[b] = expense[b].Add(tx.Amount)
		}
	}

	r.CashIncome, r.CardIncome = income[BucketCash], income[BucketCard]
	r.PixIncome, r.OtherIncome = income[BucketPix], income[BucketOther]
	r.CashExpense, r.CardExpense = expense[BucketCash], expense[BucketCard]
	r.PixExpense, r.OtherExpense = expense[BucketPix], expense[BucketOther]

	r.TotalIncome = r.CashIncome.Add(r.CardIncome).Add(r.PixIncome).Add(r.OtherIncome)
	r.TotalExpense = r.CashExpense.Add(r.CardExpense).Add(r.PixExpense).Add(r.OtherExpense)
	r.ClosingBalance = r.OpeningBalance.Add(r.TotalIncome).Sub(r.TotalExpense)
	r.ExpectedBalance = r.ClosingBalance
}

// Close finalizes the register. Difference is actual minus expected:
// positive is a surplus, negative a shortage.
func (r *DailyCashReport) Close(actual decimal.Decimal, closedBy, notes string, at time.Time) {
	r.Status = CashClosed
	r.ClosedAt = &at
	r.ClosedBy = closedBy
	r.Difference = actual.Sub(r.ExpectedBalance)
	r.ClosingBalance = actual
	r.Notes = notes
}

// OpenCashRequest is the payload for POST /v1/financial/daily-cash/open.
type OpenCashRequest struct {
	Date           time.Time
	OpeningBalance decimal.Decimal
}

// RecordCashRequest registers one income or expense on a date's register.
type RecordCashRequest struct {
	Date           time.Time
	Description    string
	Amount         decimal.Decimal
	PaymentMethod  PaymentMethod
	CategoryID     *int64
	PayableID      *int64
	ReceivableID   *int64
	Reference      string
	DocumentNumber string
	Note           string
}

// CloseCashRequest closes a date's register with the counted balance.
type CloseCashRequest struct {
	Date          time.Time
	ActualBalance decimal.Decimal
	Notes         string
}

// CashReportFilter selects registers. To is inclusive.
type CashReportFilter struct {
	Status CashStatus
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// CashSummary sums report-level totals across a date range.
type CashSummary struct {
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	TotalExpense decimal.Decimal `json:"totalExpense"`
	CashIncome   decimal.Decimal `json:"cashIncome"`
	CardIncome   decimal.Decimal `json:"cardIncome"`
	PixIncome    decimal.Decimal `json:"pixIncome"`
	OtherIncome  decimal.Decimal `json:"otherIncome"`
	CashExpense  decimal.Decimal `json:"cashExpense"`
	CardExpense  decimal.Decimal `json:"cardExpense"`
	PixExpense   decimal.Decimal `json:"pixExpense"`
	OtherExpense decimal.Decimal `json:"otherExpense"`
	NetFlow      decimal.Decimal `json:"netFlow"`
	DaysCount    int             `json:"daysCount"`
}

// Summarize folds report totals; raw transactions are not re-read.
func Summarize(reports []DailyCashReport) CashSummary {
	var s CashSummary
	for _, r := range reports {
		s.TotalIncome = s.TotalIncome.Add(r.TotalIncome)
		s.TotalExpense = s.TotalExpense.Add(r.TotalExpense)
		s.CashIncome = s.CashIncome.Add(r.CashIncome)
		s.CardIncome = s.CardIncome.Add(r.CardIncome)
		s.PixIncome = s.PixIncome.Add(r.PixIncome)
		s.OtherIncome = s.OtherIncome.Add(r.OtherIncome)
		s.CashExpense = s.CashExpense.Add(r.CashExpense)
		s.CardExpense = s.CardExpense.Add(r.CardExpense)
		s.PixExpense = s.PixExpense.Add(r.PixExpense)
		s.OtherExpense = s.OtherExpense.Add(r.OtherExpense)
	}
	s.NetFlow = s.TotalIncome.Sub(s.TotalExpense)
	s.DaysCount = len(reports)
	return s
}
