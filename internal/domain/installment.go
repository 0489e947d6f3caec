package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus is the state of one scheduled partial payment.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "PENDING"
	InstallmentPaid    InstallmentStatus = "PAID"
)

// Installment is one scheduled share of a payable or receivable.
type Installment struct {
	ID        int64             `json:"id"`
	Kind      AccountKind       `json:"kind"`
	AccountID int64             `json:"accountId"`
	Number    int               `json:"number"`
	Amount    decimal.Decimal   `json:"amount"`
	DueDate   time.Time         `json:"dueDate"`
	Status    InstallmentStatus `json:"status"`
}

// GenerateInstallments splits principal into count monthly installments
// starting at dueDate. Every share is truncated to cents and the last
// installment absorbs the remainder, so the amounts always sum to principal.
func GenerateInstallments(principal decimal.Decimal, dueDate time.Time, count int) ([]Installment, error) {
	if count < 1 {
		return nil, &ErrValidation{Field: "totalInstallments", Message: "must be at least 1"}
	}
	if !principal.IsPositive() {
		return nil, &ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if !IsMoney(principal) {
		return nil, &ErrValidation{Field: "amount", Message: "must have at most 2 decimal places"}
	}
	if count == 1 {
		return []Installment{{Number: 1, Amount: principal, DueDate: dueDate, Status: InstallmentPending}}, nil
	}

	n := decimal.NewFromInt(int64(count))
	share := principal.Div(n).RoundDown(MoneyScale)
	if !share.IsPositive() {
		return nil, &ErrValidation{
			Field:   "totalInstallments",
			Message: fmt.Sprintf("amount %s cannot be split into %d installments", principal.StringFixed(MoneyScale), count),
		}
	}
	last := principal.Sub(share.Mul(decimal.NewFromInt(int64(count - 1))))

	out := make([]Installment, 0, count)
	for i := 1; i <= count; i++ {
		amount := share
		if i == count {
			amount = last
		}
		out = append(out, Installment{
			Number:  i,
			Amount:  amount,
			DueDate: AddMonths(dueDate, i-1),
			Status:  InstallmentPending,
		})
	}
	return out, nil
}

// ApplyPayments marks installments paid, in order, while the cumulative
// installment amount is covered by paid. It returns the indexes it changed.
func ApplyPayments(installments []Installment, paid decimal.Decimal) []int {
	var changed []int
	covered := decimal.Zero
	for i := range installments {
		covered = covered.Add(installments[i].Amount)
		if covered.GreaterThan(paid) {
			break
		}
		if installments[i].Status != InstallmentPaid {
			installments[i].Status = InstallmentPaid
			changed = append(changed, i)
		}
	}
	return changed
}
