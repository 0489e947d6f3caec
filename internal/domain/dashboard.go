package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Dashboard read models
// ============================================================

// AmountCount is a sum with the number of rows behind it.
type AmountCount struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// LedgerOverview summarizes one side of the ledger.
type LedgerOverview struct {
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
	Overdue AmountCount     `json:"overdue"`
	DueSoon AmountCount     `json:"dueSoon"`
}

// MethodFlow is income and expense through one payment bucket.
type MethodFlow struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// CashFlowOverview is the register summary as shown on the dashboard.
type CashFlowOverview struct {
	TotalIncome  decimal.Decimal           `json:"totalIncome"`
	TotalExpense decimal.Decimal           `json:"totalExpense"`
	NetFlow      decimal.Decimal           `json:"netFlow"`
	ByMethod     map[CashBucket]MethodFlow `json:"byMethod"`
}

// AlertOverview counts unread alerts.
type AlertOverview struct {
	Unread     int                   `json:"unread"`
	ByPriority map[AlertPriority]int `json:"byPriority"`
}

// Overview is the main financial dashboard.
type Overview struct {
	AccountsPayable    LedgerOverview   `json:"accountsPayable"`
	AccountsReceivable LedgerOverview   `json:"accountsReceivable"`
	CashFlow           CashFlowOverview `json:"cashFlow"`
	ProjectedBalance   decimal.Decimal  `json:"projectedBalance"`
	Alerts             AlertOverview    `json:"alerts"`
	Period             DateRange        `json:"period"`
}

// CashFlowDay is one bucket of the projected cash flow.
type CashFlowDay struct {
	Date    time.Time       `json:"-"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	NetFlow decimal.Decimal `json:"netFlow"`
	Balance decimal.Decimal `json:"balance"`
}

// MarshalJSON renders the bucket date as a calendar date.
func (d CashFlowDay) MarshalJSON() ([]byte, error) {
	type plain CashFlowDay
	return json.Marshal(struct {
		Date string `json:"date"`
		plain
	}{Date: CivilDate(d.Date), plain: plain(d)})
}

// CategoryRef names a category in an analysis row.
type CategoryRef struct {
	ID   *int64       `json:"id,omitempty"`
	Name string       `json:"name"`
	Type CategoryType `json:"type"`
}

// UncategorizedName labels rows without a category.
const UncategorizedName = "Uncategorized"

// CategoryTotal is one row of the category analysis.
type CategoryTotal struct {
	Category CategoryRef     `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// CategoryAnalysis groups both ledger sides by category.
type CategoryAnalysis struct {
	Expenses []CategoryTotal `json:"expenses"`
	Income   []CategoryTotal `json:"income"`
}

// CounterpartyTotal ranks a supplier or customer by amount.
type CounterpartyTotal struct {
	CounterpartyID int64           `json:"counterpartyId"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	AccountsCount  int             `json:"accountsCount"`
}

// BankBalance is a bank account name with its balance.
type BankBalance struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
}

// FinancialStats is the compact month-to-date summary.
type FinancialStats struct {
	PayablesPending    decimal.Decimal `json:"payablesPending"`
	ReceivablesPending decimal.Decimal `json:"receivablesPending"`
	IncomeMonth        decimal.Decimal `json:"incomeMonth"`
	ExpenseMonth       decimal.Decimal `json:"expenseMonth"`
	Accounts           []BankBalance   `json:"accounts"`
}
