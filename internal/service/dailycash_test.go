package service_test

import (
	"context"
	"testing"

	"github.com/jorgyvanlima/pdvc1/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyCash_OpenRecordAndClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opened, err := f.cash.Open(ctx, actor, &domain.OpenCashRequest{Date: f.today, OpeningBalance: dec("100")})
	require.NoError(t, err)
	assert.Equal(t, domain.CashOpen, opened.Status)
	requireDecimal(t, "100", opened.ExpectedBalance)
	requireDecimal(t, "100", opened.ClosingBalance)

	_, err = f.cash.RecordIncome(ctx, actor, &domain.RecordCashRequest{
		Date: f.today, Description: "Counter sales", Amount: dec("50"), PaymentMethod: domain.MethodCash,
	})
	require.NoError(t, err)
	_, err = f.cash.RecordExpense(ctx, actor, &domain.RecordCashRequest{
		Date: f.today, Description: "Courier", Amount: dec("20"), PaymentMethod: domain.MethodPix,
	})
	require.NoError(t, err)

	report, err := f.cash.FindByDate(ctx, f.today)
	require.NoError(t, err)
	requireDecimal(t, "50", report.CashIncome)
	requireDecimal(t, "20", report.PixExpense)
	requireDecimal(t, "50", report.TotalIncome)
	requireDecimal(t, "20", report.TotalExpense)
	requireDecimal(t, "130", report.ExpectedBalance)
	requireDecimal(t, "130", report.ClosingBalance)
	assert.Len(t, report.Transactions, 2)

	closed, err := f.cash.Close(ctx, actor, &domain.CloseCashRequest{Date: f.today, ActualBalance: dec("125"), Notes: "short five"})
	require.NoError(t, err)
	assert.Equal(t, domain.CashClosed, closed.Status)
	requireDecimal(t, "-5", closed.Difference)
	requireDecimal(t, "125", closed.ClosingBalance)
	requireDecimal(t, "130", closed.ExpectedBalance)
	assert.Equal(t, actor, closed.ClosedBy)
	assert.Equal(t, "short five", closed.Notes)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, int64(1), f.metrics.Snapshot().RegistersClosed)
}

func TestDailyCash_OpenTwiceIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cash.Open(ctx, actor, &domain.OpenCashRequest{Date: f.today, OpeningBalance: dec("10")})
	require.NoError(t, err)

	_, err = f.cash.Open(ctx, actor, &domain.OpenCashRequest{Date: f.today, OpeningBalance: dec("20")})
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)
}

func TestDailyCash_CloseErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cash.Close(ctx, actor, &domain.CloseCashRequest{Date: f.day(-1), ActualBalance: dec("0")})
	var nf *domain.ErrNotFound
	require.ErrorAs(t, err, &nf)

	_, err = f.cash.Open(ctx, actor, &domain.OpenCashRequest{Date: f.day(-1)})
	require.NoError(t, err)
	_, err = f.cash.Close(ctx, actor, &domain.CloseCashRequest{Date: f.day(-1), ActualBalance: dec("0")})
	require.NoError(t, err)

	_, err = f.cash.Close(ctx, actor, &domain.CloseCashRequest{Date: f.day(-1), ActualBalance: dec("0")})
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)

	_, err = f.cash.RecordIncome(ctx, actor, &domain.RecordCashRequest{
		Date: f.day(-1), Description: "late sale", Amount: dec("5"), PaymentMethod: domain.MethodCash,
	})
	require.ErrorAs(t, err, &conflict)
}

func TestDailyCash_RecordAutoOpensAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.cash.RecordIncome(ctx, actor, &domain.RecordCashRequest{
		Description: "Card sale", Amount: dec("42.10"), PaymentMethod: domain.MethodDebitCard,
	})
	require.NoError(t, err)
	require.NotNil(t, tx.DailyCashReportID)
	assert.Equal(t, domain.Income, tx.Type)

	report, err := f.cash.FindByDate(ctx, f.today)
	require.NoError(t, err)
	assert.Equal(t, *tx.DailyCashReportID, report.ID)
	requireDecimal(t, "0", report.OpeningBalance)
	requireDecimal(t, "42.10", report.CardIncome)
	requireDecimal(t, "42.10", report.ExpectedBalance)
}

func TestDailyCash_RecordRejectsUnknownAccountLinks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cash.RecordExpense(ctx, actor, &domain.RecordCashRequest{
		Description: "Supplier refund", Amount: dec("10"), PaymentMethod: domain.MethodCash, PayableID: ptr(int64(999)),
	})
	var nf *domain.ErrNotFound
	require.ErrorAs(t, err, &nf)

	_, err = f.cash.RecordIncome(ctx, actor, &domain.RecordCashRequest{
		Description: "Deposit", Amount: dec("10"), PaymentMethod: domain.MethodCash, ReceivableID: ptr(int64(999)),
	})
	require.ErrorAs(t, err, &nf)

	_, err = f.cash.FindByDate(ctx, f.today)
	require.ErrorAs(t, err, &nf, "rejected entries must not open a register")

	acc := f.account(t, domain.Receivable, "55", 0)
	tx, err := f.cash.RecordIncome(ctx, actor, &domain.RecordCashRequest{
		Description: "Deposit", Amount: dec("10"), PaymentMethod: domain.MethodCash, ReceivableID: &acc.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, tx.ReceivableID)
	assert.Equal(t, acc.ID, *tx.ReceivableID)
}

func TestDailyCash_RecordValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   domain.RecordCashRequest
		field string
	}{
		{"missing description", domain.RecordCashRequest{Amount: dec("1"), PaymentMethod: domain.MethodCash}, "description"},
		{"zero amount", domain.RecordCashRequest{Description: "x", Amount: dec("0"), PaymentMethod: domain.MethodCash}, "amount"},
		{"unknown method", domain.RecordCashRequest{Description: "x", Amount: dec("1"), PaymentMethod: "BARTER"}, "paymentMethod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.cash.RecordExpense(ctx, actor, &tt.req)
			var verr *domain.ErrValidation
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	_, err := f.cash.FindByDate(ctx, f.today)
	var nf *domain.ErrNotFound
	require.ErrorAs(t, err, &nf, "failed entries must not open a register")
}

func TestDailyCash_RecomputeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cash.Open(ctx, actor, &domain.OpenCashRequest{Date: f.today, OpeningBalance: dec("80")})
	require.NoError(t, err)
	for _, m := range []domain.PaymentMethod{domain.MethodCash, domain.MethodCreditCard, domain.MethodPix, domain.MethodOther} {
		_, err := f.cash.RecordIncome(ctx, actor, &domain.RecordCashRequest{Description: "sale", Amount: dec("10.25"), PaymentMethod: m})
		require.NoError(t, err)
	}
	_, err = f.cash.RecordExpense(ctx, actor, &domain.RecordCashRequest{Description: "change", Amount: dec("3"), PaymentMethod: domain.MethodCash})
	require.NoError(t, err)

	first, err := f.cash.Recompute(ctx, f.today)
	require.NoError(t, err)
	second, err := f.cash.Recompute(ctx, f.today)
	require.NoError(t, err)

	requireDecimal(t, "41", first.TotalIncome)
	requireDecimal(t, "118", first.ExpectedBalance)
	for _, pair := range [][2]string{
		{first.TotalIncome.String(), second.TotalIncome.String()},
		{first.TotalExpense.String(), second.TotalExpense.String()},
		{first.CashIncome.String(), second.CashIncome.String()},
		{first.CardIncome.String(), second.CardIncome.String()},
		{first.ExpectedBalance.String(), second.ExpectedBalance.String()},
		{first.ClosingBalance.String(), second.ClosingBalance.String()},
	} {
		assert.Equal(t, pair[0], pair[1])
	}
}

func TestDailyCash_ListAndSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, amount := range []string{"100", "60", "40"} {
		date := f.day(-i)
		_, err := f.cash.Open(ctx, actor, &domain.OpenCashRequest{Date: date})
		require.NoError(t, err)
		_, err = f.cash.RecordIncome(ctx, actor, &domain.RecordCashRequest{Date: date, Description: "sales", Amount: dec(amount), PaymentMethod: domain.MethodPix})
		require.NoError(t, err)
		_, err = f.cash.RecordExpense(ctx, actor, &domain.RecordCashRequest{Date: date, Description: "supplies", Amount: dec("10"), PaymentMethod: domain.MethodCash})
		require.NoError(t, err)
	}
	_, err := f.cash.Close(ctx, actor, &domain.CloseCashRequest{Date: f.day(-2), ActualBalance: dec("30")})
	require.NoError(t, err)

	summary, err := f.cash.Summary(ctx, domain.DateRange{Start: f.day(-1), End: f.day(0)})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.DaysCount)
	requireDecimal(t, "160", summary.TotalIncome)
	requireDecimal(t, "160", summary.PixIncome)
	requireDecimal(t, "20", summary.CashExpense)
	requireDecimal(t, "140", summary.NetFlow)

	page, err := f.cash.List(ctx, domain.CashReportFilter{Status: domain.CashOpen})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].Date.After(page.Items[1].Date), "newest first")

	_, err = f.cash.Summary(ctx, domain.DateRange{Start: f.day(0), End: f.day(-1)})
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)
}
