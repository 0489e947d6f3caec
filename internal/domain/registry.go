package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Financial categories
// ============================================================

// CategoryType separates expense categories from income categories.
type CategoryType string

const (
	CategoryExpense CategoryType = "EXPENSE"
	CategoryIncome  CategoryType = "INCOME"
)

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	return t == CategoryExpense || t == CategoryIncome
}

// FinancialCategory classifies payables, receivables and transactions.
// Categories are never deleted once used; they are deactivated instead.
type FinancialCategory struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Type        CategoryType `json:"type"`
	Description string       `json:"description,omitempty"`
	Active      bool         `json:"active"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// CreateCategoryRequest is the payload for POST /v1/financial/categories.
type CreateCategoryRequest struct {
	Name        string       `json:"name"`
	Type        CategoryType `json:"type"`
	Description string       `json:"description,omitempty"`
}

// ============================================================
// Bank accounts
// ============================================================

// BankAccount holds a running balance mutated only by settlements.
type BankAccount struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	BankName       string          `json:"bankName"`
	Agency         string          `json:"agency,omitempty"`
	AccountNumber  string          `json:"accountNumber,omitempty"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// CreateBankAccountRequest is the payload for POST /v1/financial/bank-accounts.
type CreateBankAccountRequest struct {
	Name           string          `json:"name"`
	BankName       string          `json:"bankName"`
	Agency         string          `json:"agency,omitempty"`
	AccountNumber  string          `json:"accountNumber,omitempty"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}
