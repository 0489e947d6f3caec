package service_test

import (
	"context"
	"testing"

	"github.com/jorgyvanlima/pdvc1/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectedCashFlow_RunningBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.account(t, domain.Receivable, "100", 1)
	f.account(t, domain.Payable, "30", 1)
	f.account(t, domain.Payable, "50", 3)
	f.account(t, domain.Payable, "999", 9)  // beyond the window
	f.account(t, domain.Receivable, "7", -1) // overdue, not projected

	days, err := f.dashboard.ProjectedCashFlow(ctx, 5)
	require.NoError(t, err)
	require.Len(t, days, 6)

	wantBalance := []string{"0", "70", "70", "20", "20", "20"}
	for i, d := range days {
		assert.True(t, d.Date.Equal(f.day(i)), "bucket %d date %s", i, d.Date)
		requireDecimal(t, wantBalance[i], d.Balance, "bucket", i)
	}
	requireDecimal(t, "100", days[1].Income)
	requireDecimal(t, "30", days[1].Expense)
	requireDecimal(t, "70", days[1].NetFlow)
	requireDecimal(t, "-50", days[3].NetFlow)
	requireDecimal(t, "0", days[2].NetFlow)
}

func TestProjectedCashFlow_Bounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	days, err := f.dashboard.ProjectedCashFlow(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, days, 31)

	for _, n := range []int{-1, 367} {
		_, err := f.dashboard.ProjectedCashFlow(ctx, n)
		var verr *domain.ErrValidation
		require.ErrorAs(t, err, &verr, "days=%d", n)
	}
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.account(t, domain.Payable, "40", -2)
	f.account(t, domain.Payable, "60", 3)
	f.account(t, domain.Payable, "10", 20)
	f.account(t, domain.Receivable, "300", 0)
	partial := f.account(t, domain.Receivable, "200", 30)
	_, err := f.ledger.Settle(ctx, domain.Receivable, actor, partial.ID, &domain.SettleRequest{PaymentMethod: domain.MethodPix, Amount: ptr(dec("50"))})
	require.NoError(t, err)

	_, err = f.cash.RecordIncome(ctx, actor, &domain.RecordCashRequest{Description: "sales", Amount: dec("25"), PaymentMethod: domain.MethodCreditCard})
	require.NoError(t, err)
	_, err = f.alerts.Generate(ctx, actor)
	require.NoError(t, err)

	ov, err := f.dashboard.Overview(ctx, nil)
	require.NoError(t, err)

	requireDecimal(t, "110", ov.AccountsPayable.Total)
	assert.Equal(t, 3, ov.AccountsPayable.Count)
	requireDecimal(t, "40", ov.AccountsPayable.Overdue.Total)
	assert.Equal(t, 1, ov.AccountsPayable.Overdue.Count)
	requireDecimal(t, "60", ov.AccountsPayable.DueSoon.Total)

	requireDecimal(t, "450", ov.AccountsReceivable.Total)
	requireDecimal(t, "300", ov.AccountsReceivable.DueSoon.Total)
	requireDecimal(t, "340", ov.ProjectedBalance)

	requireDecimal(t, "25", ov.CashFlow.TotalIncome)
	requireDecimal(t, "25", ov.CashFlow.ByMethod[domain.BucketCard].Income)
	requireDecimal(t, "25", ov.CashFlow.NetFlow)

	assert.Equal(t, 3, ov.Alerts.Unread)
	assert.Equal(t, 2, ov.Alerts.ByPriority[domain.PriorityUrgent])
	assert.Equal(t, 1, ov.Alerts.ByPriority[domain.PriorityMedium])
	assert.True(t, ov.Period.Start.Equal(f.today.AddDate(0, 0, -9)))
}

func TestCategoryAnalysis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rent, err := f.registry.CreateCategory(ctx, actor, &domain.CreateCategoryRequest{Name: "Rent", Type: domain.CategoryExpense})
	require.NoError(t, err)
	for _, amount := range []string{"1200", "300"} {
		_, err := f.ledger.Create(ctx, domain.Payable, actor, &domain.CreateAccountRequest{
			Description: "rent", Amount: dec(amount), DueDate: f.day(2), CategoryID: &rent.ID,
		})
		require.NoError(t, err)
	}
	f.account(t, domain.Payable, "80", 4)
	f.account(t, domain.Receivable, "90", 1)
	cancelled := f.account(t, domain.Payable, "5000", 3)
	_, err = f.ledger.Update(ctx, domain.Payable, actor, cancelled.ID, &domain.UpdateAccountRequest{Status: ptr(domain.StatusCancelled)})
	require.NoError(t, err)

	analysis, err := f.dashboard.CategoryAnalysis(ctx, &domain.DateRange{Start: f.day(0), End: f.day(10)})
	require.NoError(t, err)

	require.Len(t, analysis.Expenses, 2)
	assert.Equal(t, "Rent", analysis.Expenses[0].Category.Name)
	requireDecimal(t, "1500", analysis.Expenses[0].Total)
	assert.Equal(t, 2, analysis.Expenses[0].Count)
	assert.Equal(t, domain.UncategorizedName, analysis.Expenses[1].Category.Name)
	assert.Nil(t, analysis.Expenses[1].Category.ID)

	require.Len(t, analysis.Income, 1)
	assert.Equal(t, domain.CategoryIncome, analysis.Income[0].Category.Type)
}

func TestTopCounterparties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, row := range []struct {
		supplier int64
		amount   string
	}{{1, "100"}, {2, "500"}, {1, "450"}, {3, "550"}, {4, "10"}} {
		_, err := f.ledger.Create(ctx, domain.Payable, actor, &domain.CreateAccountRequest{
			Description: "supplies", Amount: dec(row.amount), DueDate: f.day(1), CounterpartyID: ptr(row.supplier),
		})
		require.NoError(t, err)
	}

	top, err := f.dashboard.TopCounterparties(ctx, domain.Payable, 3, nil)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, int64(1), top[0].CounterpartyID)
	requireDecimal(t, "550", top[0].TotalAmount)
	assert.Equal(t, 2, top[0].AccountsCount)
	assert.Equal(t, int64(3), top[1].CounterpartyID, "ties break by id")
	assert.Equal(t, int64(2), top[2].CounterpartyID)

	none, err := f.dashboard.TopCounterparties(ctx, domain.Receivable, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bank := f.bank(t, "1000")
	pay := f.account(t, domain.Payable, "100", 2)
	f.account(t, domain.Payable, "35", 5)
	f.account(t, domain.Receivable, "70", 5)

	_, err := f.ledger.Settle(ctx, domain.Payable, actor, pay.ID, &domain.SettleRequest{PaymentMethod: domain.MethodPix, BankAccountID: &bank.ID})
	require.NoError(t, err)
	_, err = f.cash.RecordIncome(ctx, actor, &domain.RecordCashRequest{Description: "sales", Amount: dec("12"), PaymentMethod: domain.MethodCash})
	require.NoError(t, err)

	stats, err := f.dashboard.Stats(ctx)
	require.NoError(t, err)
	requireDecimal(t, "35", stats.PayablesPending)
	requireDecimal(t, "70", stats.ReceivablesPending)
	requireDecimal(t, "12", stats.IncomeMonth)
	requireDecimal(t, "100", stats.ExpenseMonth)
	require.Len(t, stats.Accounts, 1)
	requireDecimal(t, "900", stats.Accounts[0].CurrentBalance)
}
