package domain_test

import (
	"testing"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestDailyCashReport_RecomputeAndClose(t *testing.T) {
	day := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	r := domain.NewDailyCashReport(day, d("100"))

	txs := []domain.FinancialTransaction{
		{Type: domain.Income, Amount: d("50"), PaymentMethod: domain.MethodCash},
		{Type: domain.Expense, Amount: d("20"), PaymentMethod: domain.MethodPix},
	}
	r.Recompute(txs)
	first := *r
	r.Recompute(txs)

	if !r.ExpectedBalance.Equal(d("130")) {
		t.Fatalf("expected balance 130, got %s", r.ExpectedBalance)
	}
	if !first.TotalIncome.Equal(r.TotalIncome) || !first.ExpectedBalance.Equal(r.ExpectedBalance) {
		t.Error("recompute must be idempotent")
	}

	at := day.Add(18 * time.Hour)
	r.Close(d("125"), "cashier-1", "short five", at)
	if r.Status != domain.CashClosed || r.ClosedBy != "cashier-1" || !r.ClosedAt.Equal(at) {
		t.Errorf("unexpected close state: %+v", r)
	}
	if !r.Difference.Equal(d("-5")) {
		t.Errorf("expected difference -5, got %s", r.Difference)
	}
	if !r.ClosingBalance.Equal(d("125")) || !r.ExpectedBalance.Equal(d("130")) {
		t.Errorf("closing %s expected %s", r.ClosingBalance, r.ExpectedBalance)
	}
}

func TestDailyCashReport_Buckets(t *testing.T) {
	r := domain.NewDailyCashReport(time.Time{}, decimal.Zero)
	r.Recompute([]domain.FinancialTransaction{
		{Type: domain.Income, Amount: d("1"), PaymentMethod: domain.MethodCreditCard},
		{Type: domain.Income, Amount: d("2"), PaymentMethod: domain.MethodDebitCard},
		{Type: domain.Income, Amount: d("4"), PaymentMethod: domain.MethodOther},
		{Type: domain.Expense, Amount: d("8"), PaymentMethod: domain.MethodCreditCard},
	})

	if !r.CardIncome.Equal(d("3")) || !r.OtherIncome.Equal(d("4")) || !r.CardExpense.Equal(d("8")) {
		t.Errorf("unexpected buckets: card=%s other=%s cardExpense=%s", r.CardIncome, r.OtherIncome, r.CardExpense)
	}
	if !r.ExpectedBalance.Equal(d("-1")) {
		t.Errorf("expected -1, got %s", r.ExpectedBalance)
	}
}

func TestSummarize(t *testing.T) {
	a := domain.DailyCashReport{TotalIncome: d("100"), PixIncome: d("100"), TotalExpense: d("10"), CashExpense: d("10")}
	b := domain.DailyCashReport{TotalIncome: d("60.5"), CashIncome: d("60.5"), TotalExpense: d("0")}

	s := domain.Summarize([]domain.DailyCashReport{a, b})
	if s.DaysCount != 2 {
		t.Errorf("expected 2 days, got %d", s.DaysCount)
	}
	if !s.TotalIncome.Equal(d("160.5")) || !s.NetFlow.Equal(d("150.5")) {
		t.Errorf("income %s net %s", s.TotalIncome, s.NetFlow)
	}
	if !s.CashIncome.Equal(d("60.5")) || !s.PixIncome.Equal(d("100")) || !s.CashExpense.Equal(d("10")) {
		t.Errorf("unexpected method totals: %+v", s)
	}

	empty := domain.Summarize(nil)
	if empty.DaysCount != 0 || !empty.NetFlow.IsZero() {
		t.Errorf("unexpected empty summary: %+v", empty)
	}
}
