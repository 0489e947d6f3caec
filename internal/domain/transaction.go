package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Cash-flow transactions (append-only)
// ============================================================

// TransactionType is the cash-flow direction.
type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// PaymentMethod is how money moved.
type PaymentMethod string

const (
	MethodCash       PaymentMethod = "CASH"
	MethodCreditCard PaymentMethod = "CREDIT_CARD"
	MethodDebitCard  PaymentMethod = "DEBIT_CARD"
	MethodPix        PaymentMethod = "PIX"
	MethodOther      PaymentMethod = "OTHER"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCreditCard, MethodDebitCard, MethodPix, MethodOther:
		return true
	}
	return false
}

// CashBucket groups payment methods the way the daily register totals them.
type CashBucket string

const (
	BucketCash  CashBucket = "cash"
	BucketCard  CashBucket = "card"
	BucketPix   CashBucket = "pix"
	BucketOther CashBucket = "other"
)

// Bucket maps a payment method to its register bucket.
func (m PaymentMethod) Bucket() CashBucket {
	switch m {
	case MethodCash:
		return BucketCash
	case MethodCreditCard, MethodDebitCard:
		return BucketCard
	case MethodPix:
		return BucketPix
	default:
		return BucketOther
	}
}

// FinancialTransaction is an immutable ledger entry.
type FinancialTransaction struct {
	ID                int64           `json:"id"`
	Type              TransactionType `json:"type"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	Date              time.Time       `json:"date"`
	PaymentMethod     PaymentMethod   `json:"paymentMethod"`
	BankAccountID     *int64          `json:"bankAccountId,omitempty"`
	CategoryID        *int64          `json:"categoryId,omitempty"`
	PayableID         *int64          `json:"accountsPayableId,omitempty"`
	ReceivableID      *int64          `json:"accountsReceivableId,omitempty"`
	DailyCashReportID *int64          `json:"dailyCashReportId,omitempty"`
	UserID            string          `json:"userId,omitempty"`
	Reference         string          `json:"reference,omitempty"`
	DocumentNumber    string          `json:"documentNumber,omitempty"`
	Note              string          `json:"note,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// TransactionFilter selects ledger entries. To is exclusive.
type TransactionFilter struct {
	From          *time.Time
	To            *time.Time
	BankAccountID *int64
	Type          TransactionType
	ReportID      *int64
	PayableID     *int64
	ReceivableID  *int64
}
