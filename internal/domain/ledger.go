package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Ledger accounts (payables and receivables)
// ============================================================

// AccountKind tells payables (money owed by the business) apart from
// receivables (money owed to the business).
type AccountKind string

const (
	Payable    AccountKind = "PAYABLE"
	Receivable AccountKind = "RECEIVABLE"
)

// Valid reports whether k is a known account kind.
func (k AccountKind) Valid() bool {
	return k == Payable || k == Receivable
}

// Resource is the human name used in errors and logs.
func (k AccountKind) Resource() string {
	if k == Receivable {
		return "accounts receivable"
	}
	return "accounts payable"
}

// Table is the audit table name for the kind.
func (k AccountKind) Table() string {
	if k == Receivable {
		return "fin_accounts_receivable"
	}
	return "fin_accounts_payable"
}

// TransactionType is the cash-flow direction a settlement of this kind produces.
func (k AccountKind) TransactionType() TransactionType {
	if k == Receivable {
		return Income
	}
	return Expense
}

// BalanceDelta returns the signed bank balance change for settling amount.
func (k AccountKind) BalanceDelta(amount decimal.Decimal) decimal.Decimal {
	if k == Receivable {
		return amount
	}
	return amount.Neg()
}

// AccountStatus is the persisted lifecycle state of an account.
type AccountStatus string

const (
	StatusPending       AccountStatus = "PENDING"
	StatusPartiallyPaid AccountStatus = "PARTIALLY_PAID"
	StatusPaid          AccountStatus = "PAID"
	StatusCancelled     AccountStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPartiallyPaid, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Open reports whether an account in this status still has money due.
func (s AccountStatus) Open() bool {
	return s == StatusPending || s == StatusPartiallyPaid
}

// OpenStatuses lists every status that still has money due.
var OpenStatuses = []AccountStatus{StatusPending, StatusPartiallyPaid}

// Attachment is an uploaded file reference. The upload collaborator has
// already validated and stored the file; only its metadata is kept here.
type Attachment struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName,omitempty"`
	MimeType     string    `json:"mimeType,omitempty"`
	Size         int64     `json:"size,omitempty"`
	Path         string    `json:"path"`
	UploadedBy   string    `json:"uploadedBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Account is a payable or a receivable. CounterpartyID is the supplier for
// payables and the customer for receivables; SaleID links a receivable to
// the order it originated from.
type Account struct {
	ID                int64           `json:"id"`
	Kind              AccountKind     `json:"kind"`
	Description       string          `json:"description"`
	CounterpartyID    *int64          `json:"-"`
	CategoryID        *int64          `json:"categoryId,omitempty"`
	SaleID            *int64          `json:"saleId,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	PaidAmount        decimal.Decimal `json:"paidAmount"`
	DueDate           time.Time       `json:"dueDate"`
	Status            AccountStatus   `json:"status"`
	SettledDate       *time.Time      `json:"-"`
	PaymentMethod     *PaymentMethod  `json:"paymentMethod,omitempty"`
	DocumentNumber    string          `json:"documentNumber,omitempty"`
	Note              string          `json:"note,omitempty"`
	TotalInstallments int             `json:"totalInstallments"`
	Attachments       []Attachment    `json:"attachments"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Outstanding returns the amount still due.
func (a *Account) Outstanding() decimal.Decimal {
	return a.Amount.Sub(a.PaidAmount)
}

// Clone returns a deep copy, used to capture the audit "old" state.
func (a *Account) Clone() *Account {
	c := *a
	if a.Attachments != nil {
		c.Attachments = append([]Attachment(nil), a.Attachments...)
	}
	return &c
}

// MarshalJSON renders the counterparty and settlement date under the names
// each kind uses on the wire (supplierId/paidDate, customerId/receivedDate).
func (a Account) MarshalJSON() ([]byte, error) {
	type plain Account
	out := struct {
		plain
		SupplierID   *int64     `json:"supplierId,omitempty"`
		CustomerID   *int64     `json:"customerId,omitempty"`
		PaidDate     *time.Time `json:"paidDate,omitempty"`
		ReceivedDate *time.Time `json:"receivedDate,omitempty"`
	}{plain: plain(a)}
	if a.Kind == Receivable {
		out.CustomerID = a.CounterpartyID
		out.ReceivedDate = a.SettledDate
	} else {
		out.SupplierID = a.CounterpartyID
		out.PaidDate = a.SettledDate
	}
	return json.Marshal(out)
}

// AccountView is an account plus its derived, never-stored due status.
type AccountView struct {
	Account
	VirtualStatus VirtualStatus `json:"virtualStatus,omitempty"`
	DaysUntilDue  int           `json:"daysUntilDue"`
}

// MarshalJSON keeps the embedded account's wire names.
func (v AccountView) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(v.Account)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	if v.VirtualStatus != "" {
		fields["virtualStatus"], _ = json.Marshal(v.VirtualStatus)
	}
	fields["daysUntilDue"], _ = json.Marshal(v.DaysUntilDue)
	return json.Marshal(fields)
}

// AccountDetail is returned by findById.
type AccountDetail struct {
	AccountView
	Installments []Installment           `json:"installments"`
	Transactions []FinancialTransaction `json:"transactions"`
	Alerts       []PaymentAlert          `json:"alerts"`
}

// MarshalJSON flattens the view and appends the related collections.
func (d AccountDetail) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(d.AccountView)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	fields["installments"], _ = json.Marshal(nonNil(d.Installments))
	fields["transactions"], _ = json.Marshal(nonNil(d.Transactions))
	fields["alerts"], _ = json.Marshal(nonNil(d.Alerts))
	return json.Marshal(fields)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ============================================================
// Commands
// ============================================================

// CreateAccountRequest creates a payable or receivable.
type CreateAccountRequest struct {
	Description       string          `json:"description"`
	CounterpartyID    *int64          `json:"-"`
	CategoryID        *int64          `json:"categoryId,omitempty"`
	SaleID            *int64          `json:"saleId,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           time.Time       `json:"-"`
	DocumentNumber    string          `json:"documentNumber,omitempty"`
	Note              string          `json:"note,omitempty"`
	TotalInstallments int             `json:"totalInstallments,omitempty"`
	Attachments       []Attachment    `json:"attachments,omitempty"`
}

// UpdateAccountRequest patches the editable fields of an open account.
// Nil fields are left untouched.
type UpdateAccountRequest struct {
	Description    *string          `json:"description,omitempty"`
	CounterpartyID *int64           `json:"-"`
	CategoryID     *int64           `json:"categoryId,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	DueDate        *time.Time       `json:"-"`
	DocumentNumber *string          `json:"documentNumber,omitempty"`
	Note           *string          `json:"note,omitempty"`
	Status         *AccountStatus   `json:"status,omitempty"`
}

// SettleRequest marks a payable as paid or a receivable as received.
// Amount defaults to the outstanding balance; Date defaults to now.
type SettleRequest struct {
	PaymentMethod PaymentMethod    `json:"paymentMethod"`
	BankAccountID *int64           `json:"bankAccountId,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Date          *time.Time       `json:"-"`
}

// AccountFilter selects accounts. DueBefore is exclusive; a zero Limit
// disables pagination.
type AccountFilter struct {
	Kind           AccountKind
	Statuses       []AccountStatus
	CounterpartyID *int64
	DueFrom        *time.Time
	DueBefore      *time.Time
	Page           int
	Limit          int
}

// PendingTotal aggregates the outstanding balance of open accounts.
type PendingTotal struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// SaleSummary is the read-only view of an order exposed by the sales collaborator.
type SaleSummary struct {
	ID           int64           `json:"id"`
	CustomerID   *int64          `json:"customerId,omitempty"`
	CustomerName string          `json:"customerName"`
	GrandTotal   decimal.Decimal `json:"grandTotal"`
}

// Page is the envelope every paginated list returns.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

// NewPage builds a page envelope, computing totalPages from limit.
func NewPage[T any](items []T, total, page, limit int) Page[T] {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page[T]{Items: nonNil(items), Total: total, Page: page, TotalPages: pages}
}
