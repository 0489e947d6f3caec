package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/port"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// queries implements port.Queries on one pgx transaction.
type queries struct {
	db  querier
	loc *time.Location
}

var _ port.Queries = (*queries)(nil)

type scanner interface {
	Scan(dest ...any) error
}

// day converts a scanned DATE (UTC midnight) into midnight in the ledger zone.
func (q *queries) day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, q.loc)
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

// where accumulates AND-ed conditions. Each "?" becomes the next $n.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.Replace(clause, "?", "$"+strconv.Itoa(len(w.args)), 1))
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// page appends LIMIT/OFFSET for a 1-based page. A zero limit adds nothing.
func (w *where) page(page, limit int) string {
	if limit <= 0 {
		return ""
	}
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, (page-1)*limit)
}

// ============================================================
// Categories
// ============================================================

const categoryColumns = `id, name, type, description, active, created_at`

func scanCategory(row scanner) (*domain.FinancialCategory, error) {
	var c domain.FinancialCategory
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &c.Description, &c.Active, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (q *queries) ListCategories(ctx context.Context, t domain.CategoryType, activeOnly bool) ([]domain.FinancialCategory, error) {
	w := &where{}
	if activeOnly {
		w.clauses = append(w.clauses, "active")
	}
	if t != "" {
		w.add("type = ?", string(t))
	}
	rows, err := q.db.Query(ctx, `SELECT `+categoryColumns+` FROM fin_categories`+w.String()+` ORDER BY name, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []domain.FinancialCategory{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (q *queries) GetCategory(ctx context.Context, cid int64) (*domain.FinancialCategory, error) {
	c, err := scanCategory(q.db.QueryRow(ctx, `SELECT `+categoryColumns+` FROM fin_categories WHERE id = $1`, cid))
	if err != nil {
		return nil, notFoundOr(err, "category", id(cid))
	}
	return c, nil
}

func (q *queries) InsertCategory(ctx context.Context, c *domain.FinancialCategory) error {
	err := q.db.QueryRow(ctx, `
INSERT INTO fin_categories (name, type, description, active, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`, c.Name, string(c.Type), c.Description, c.Active, c.CreatedAt).Scan(&c.ID)
	if isUniqueViolation(err) {
		return &domain.ErrDuplicate{Key: "category:" + string(c.Type) + ":" + c.Name}
	}
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (q *queries) SetCategoryActive(ctx context.Context, cid int64, active bool) error {
	tag, err := q.db.Exec(ctx, `UPDATE fin_categories SET active = $2 WHERE id = $1`, cid, active)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "category", ID: id(cid)}
	}
	return nil
}

// ============================================================
// Bank accounts
// ============================================================

const bankColumns = `id, name, bank_name, agency, account_number, current_balance, active, created_at`

func scanBank(row scanner) (*domain.BankAccount, error) {
	var b domain.BankAccount
	err := row.Scan(&b.ID, &b.Name, &b.BankName, &b.Agency, &b.AccountNumber, &b.CurrentBalance, &b.Active, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (q *queries) ListBankAccounts(ctx context.Context, activeOnly bool) ([]domain.BankAccount, error) {
	sql := `SELECT ` + bankColumns + ` FROM fin_bank_accounts`
	if activeOnly {
		sql += ` WHERE active`
	}
	rows, err := q.db.Query(ctx, sql+` ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	defer rows.Close()

	out := []domain.BankAccount{}
	for rows.Next() {
		b, err := scanBank(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bank account: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (q *queries) GetBankAccount(ctx context.Context, bid int64) (*domain.BankAccount, error) {
	b, err := scanBank(q.db.QueryRow(ctx, `SELECT `+bankColumns+` FROM fin_bank_accounts WHERE id = $1`, bid))
	if err != nil {
		return nil, notFoundOr(err, "bank account", id(bid))
	}
	return b, nil
}

func (q *queries) InsertBankAccount(ctx context.Context, b *domain.BankAccount) error {
	err := q.db.QueryRow(ctx, `
INSERT INTO fin_bank_accounts (name, bank_name, agency, account_number, current_balance, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`, b.Name, b.BankName, b.Agency, b.AccountNumber, b.CurrentBalance, b.Active, b.CreatedAt).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert bank account: %w", err)
	}
	return nil
}

func (q *queries) AdjustBankBalance(ctx context.Context, bid int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := q.db.QueryRow(ctx, `
UPDATE fin_bank_accounts SET current_balance = current_balance + $2
WHERE id = $1
RETURNING current_balance`, bid, delta).Scan(&balance)
	if err != nil {
		return decimal.Zero, notFoundOr(err, "bank account", id(bid))
	}
	return balance, nil
}

// ============================================================
// Payables and receivables
// ============================================================

const accountColumns = `id, kind, description, counterparty_id, category_id, sale_id, amount, paid_amount,
due_date, status, settled_date, payment_method, document_number, note, total_installments, created_at, updated_at`

func (q *queries) scanAccount(row scanner) (*domain.Account, error) {
	var a domain.Account
	var method *string
	err := row.Scan(&a.ID, &a.Kind, &a.Description, &a.CounterpartyID, &a.CategoryID, &a.SaleID,
		&a.Amount, &a.PaidAmount, &a.DueDate, &a.Status, &a.SettledDate, &method,
		&a.DocumentNumber, &a.Note, &a.TotalInstallments, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.DueDate = q.day(a.DueDate)
	if a.SettledDate != nil {
		t := a.SettledDate.In(q.loc)
		a.SettledDate = &t
	}
	if method != nil {
		pm := domain.PaymentMethod(*method)
		a.PaymentMethod = &pm
	}
	a.Attachments = []domain.Attachment{}
	return &a, nil
}

func methodArg(pm *domain.PaymentMethod) *string {
	if pm == nil {
		return nil
	}
	s := string(*pm)
	return &s
}

func (q *queries) InsertAccount(ctx context.Context, a *domain.Account) error {
	err := q.db.QueryRow(ctx, `
INSERT INTO fin_accounts (kind, description, counterparty_id, category_id, sale_id, amount, paid_amount,
	due_date, status, settled_date, payment_method, document_number, note, total_installments, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING id`,
		string(a.Kind), a.Description, a.CounterpartyID, a.CategoryID, a.SaleID, a.Amount, a.PaidAmount,
		a.DueDate, string(a.Status), a.SettledDate, methodArg(a.PaymentMethod), a.DocumentNumber, a.Note,
		a.TotalInstallments, a.CreatedAt, a.UpdatedAt).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert %s: %w", a.Kind.Resource(), err)
	}
	for i := range a.Attachments {
		if err := q.InsertAttachment(ctx, a.Kind, a.ID, &a.Attachments[i]); err != nil {
			return err
		}
	}
	return nil
}

func (q *queries) getAccount(ctx context.Context, kind domain.AccountKind, aid int64, lock bool) (*domain.Account, error) {
	sql := `SELECT ` + accountColumns + ` FROM fin_accounts WHERE kind = $1 AND id = $2`
	if lock {
		sql += ` FOR UPDATE`
	}
	a, err := q.scanAccount(q.db.QueryRow(ctx, sql, string(kind), aid))
	if err != nil {
		return nil, notFoundOr(err, kind.Resource(), id(aid))
	}
	atts, err := q.attachments(ctx, []int64{aid})
	if err != nil {
		return nil, err
	}
	if list, ok := atts[aid]; ok {
		a.Attachments = list
	}
	return a, nil
}

func (q *queries) GetAccount(ctx context.Context, kind domain.AccountKind, aid int64) (*domain.Account, error) {
	return q.getAccount(ctx, kind, aid, false)
}

func (q *queries) LockAccount(ctx context.Context, kind domain.AccountKind, aid int64) (*domain.Account, error) {
	return q.getAccount(ctx, kind, aid, true)
}

func (q *queries) UpdateAccount(ctx context.Context, a *domain.Account) error {
	tag, err := q.db.Exec(ctx, `
UPDATE fin_accounts SET
	description = $3, counterparty_id = $4, category_id = $5, amount = $6, paid_amount = $7,
	due_date = $8, status = $9, settled_date = $10, payment_method = $11,
	document_number = $12, note = $13, updated_at = $14
WHERE kind = $1 AND id = $2`,
		string(a.Kind), a.ID, a.Description, a.CounterpartyID, a.CategoryID, a.Amount, a.PaidAmount,
		a.DueDate, string(a.Status), a.SettledDate, methodArg(a.PaymentMethod),
		a.DocumentNumber, a.Note, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update %s %d: %w", a.Kind.Resource(), a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: a.Kind.Resource(), ID: id(a.ID)}
	}
	return nil
}

// DeleteAccount relies on ON DELETE CASCADE for installments, attachments and alerts.
func (q *queries) DeleteAccount(ctx context.Context, kind domain.AccountKind, aid int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM fin_accounts WHERE kind = $1 AND id = $2`, string(kind), aid)
	if err != nil {
		return fmt.Errorf("delete %s %d: %w", kind.Resource(), aid, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: kind.Resource(), ID: id(aid)}
	}
	return nil
}

func (q *queries) ListAccounts(ctx context.Context, f domain.AccountFilter) ([]domain.Account, int, error) {
	w := &where{}
	w.add("kind = ?", string(f.Kind))
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		w.add("status = ANY(?)", statuses)
	}
	if f.CounterpartyID != nil {
		w.add("counterparty_id = ?", *f.CounterpartyID)
	}
	if f.DueFrom != nil {
		w.add("due_date >= ?", *f.DueFrom)
	}
	if f.DueBefore != nil {
		w.add("due_date < ?", *f.DueBefore)
	}

	var total int
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM fin_accounts`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", f.Kind.Resource(), err)
	}

	rows, err := q.db.Query(ctx,
		`SELECT `+accountColumns+` FROM fin_accounts`+w.String()+` ORDER BY due_date, id`+w.page(f.Page, f.Limit),
		w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", f.Kind.Resource(), err)
	}
	defer rows.Close()

	out := []domain.Account{}
	ids := []int64{}
	for rows.Next() {
		a, err := q.scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, *a)
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	atts, err := q.attachments(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		if list, ok := atts[out[i].ID]; ok {
			out[i].Attachments = list
		}
	}
	return out, total, nil
}

func (q *queries) attachments(ctx context.Context, accountIDs []int64) (map[int64][]domain.Attachment, error) {
	out := make(map[int64][]domain.Attachment)
	if len(accountIDs) == 0 {
		return out, nil
	}
	rows, err := q.db.Query(ctx, `
SELECT account_id, id, filename, original_name, mime_type, size, path, uploaded_by, created_at
FROM fin_attachments WHERE account_id = ANY($1)
ORDER BY account_id, id`, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var accountID int64
		var a domain.Attachment
		if err := rows.Scan(&accountID, &a.ID, &a.Filename, &a.OriginalName, &a.MimeType, &a.Size, &a.Path, &a.UploadedBy, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		out[accountID] = append(out[accountID], a)
	}
	return out, rows.Err()
}

func (q *queries) InsertAttachment(ctx context.Context, kind domain.AccountKind, accountID int64, att *domain.Attachment) error {
	err := q.db.QueryRow(ctx, `
INSERT INTO fin_attachments (account_id, filename, original_name, mime_type, size, path, uploaded_by, created_at)
SELECT id, $3, $4, $5, $6, $7, $8, $9 FROM fin_accounts WHERE kind = $1 AND id = $2
RETURNING id`, string(kind), accountID, att.Filename, att.OriginalName, att.MimeType, att.Size, att.Path, att.UploadedBy, att.CreatedAt).Scan(&att.ID)
	if err != nil {
		return notFoundOr(err, kind.Resource(), id(accountID))
	}
	return nil
}

// ============================================================
// Installments
// ============================================================

func (q *queries) InsertInstallments(ctx context.Context, kind domain.AccountKind, accountID int64, items []domain.Installment) error {
	for i := range items {
		items[i].Kind = kind
		items[i].AccountID = accountID
		err := q.db.QueryRow(ctx, `
INSERT INTO fin_installments (account_id, number, amount, due_date, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`, accountID, items[i].Number, items[i].Amount, items[i].DueDate, string(items[i].Status)).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert installment %d of %s %d: %w", items[i].Number, kind.Resource(), accountID, err)
		}
	}
	return nil
}

func (q *queries) ListInstallments(ctx context.Context, kind domain.AccountKind, accountID int64) ([]domain.Installment, error) {
	rows, err := q.db.Query(ctx, `
SELECT i.id, i.number, i.amount, i.due_date, i.status
FROM fin_installments i JOIN fin_accounts a ON a.id = i.account_id
WHERE a.kind = $1 AND i.account_id = $2
ORDER BY i.number`, string(kind), accountID)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	defer rows.Close()

	out := []domain.Installment{}
	for rows.Next() {
		inst := domain.Installment{Kind: kind, AccountID: accountID}
		if err := rows.Scan(&inst.ID, &inst.Number, &inst.Amount, &inst.DueDate, &inst.Status); err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		inst.DueDate = q.day(inst.DueDate)
		out = append(out, inst)
	}
	return out, rows.Err()
}

func (q *queries) SetInstallmentStatus(ctx context.Context, iid int64, status domain.InstallmentStatus) error {
	tag, err := q.db.Exec(ctx, `UPDATE fin_installments SET status = $2 WHERE id = $1`, iid, string(status))
	if err != nil {
		return fmt.Errorf("update installment %d: %w", iid, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "installment", ID: id(iid)}
	}
	return nil
}

// ============================================================
// Transactions
// ============================================================

const transactionColumns = `id, type, description, amount, date, payment_method, bank_account_id, category_id,
payable_id, receivable_id, daily_cash_report_id, user_id, reference, document_number, note, created_at`

func (q *queries) InsertTransaction(ctx context.Context, tx *domain.FinancialTransaction) error {
	err := q.db.QueryRow(ctx, `
INSERT INTO fin_transactions (type, description, amount, date, payment_method, bank_account_id, category_id,
	payable_id, receivable_id, daily_cash_report_id, user_id, reference, document_number, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id`,
		string(tx.Type), tx.Description, tx.Amount, tx.Date, string(tx.PaymentMethod), tx.BankAccountID, tx.CategoryID,
		tx.PayableID, tx.ReceivableID, tx.DailyCashReportID, tx.UserID, tx.Reference, tx.DocumentNumber, tx.Note,
		tx.CreatedAt).Scan(&tx.ID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (q *queries) ListTransactions(ctx context.Context, f domain.TransactionFilter) ([]domain.FinancialTransaction, error) {
	w := &where{}
	if f.From != nil {
		w.add("date >= ?", *f.From)
	}
	if f.To != nil {
		w.add("date < ?", *f.To)
	}
	if f.Type != "" {
		w.add("type = ?", string(f.Type))
	}
	if f.BankAccountID != nil {
		w.add("bank_account_id = ?", *f.BankAccountID)
	}
	if f.ReportID != nil {
		w.add("daily_cash_report_id = ?", *f.ReportID)
	}
	if f.PayableID != nil {
		w.add("payable_id = ?", *f.PayableID)
	}
	if f.ReceivableID != nil {
		w.add("receivable_id = ?", *f.ReceivableID)
	}

	rows, err := q.db.Query(ctx, `SELECT `+transactionColumns+` FROM fin_transactions`+w.String()+` ORDER BY date DESC, id DESC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []domain.FinancialTransaction{}
	for rows.Next() {
		var tx domain.FinancialTransaction
		err := rows.Scan(&tx.ID, &tx.Type, &tx.Description, &tx.Amount, &tx.Date, &tx.PaymentMethod,
			&tx.BankAccountID, &tx.CategoryID, &tx.PayableID, &tx.ReceivableID, &tx.DailyCashReportID,
			&tx.UserID, &tx.Reference, &tx.DocumentNumber, &tx.Note, &tx.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Date = tx.Date.In(q.loc)
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (q *queries) CountAccountTransactions(ctx context.Context, kind domain.AccountKind, accountID int64) (int, error) {
	column := "payable_id"
	if kind == domain.Receivable {
		column = "receivable_id"
	}
	var n int
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM fin_transactions WHERE `+column+` = $1`, accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// ============================================================
// Daily cash
// ============================================================

const reportColumns = `id, date, status, opening_balance, cash_income, card_income, pix_income, other_income,
cash_expense, card_expense, pix_expense, other_expense, total_income, total_expense, expected_balance,
closing_balance, difference, closed_by, closed_at, notes, created_at, updated_at`

func (q *queries) scanReport(row scanner) (*domain.DailyCashReport, error) {
	var r domain.DailyCashReport
	err := row.Scan(&r.ID, &r.Date, &r.Status, &r.OpeningBalance,
		&r.CashIncome, &r.CardIncome, &r.PixIncome, &r.OtherIncome,
		&r.CashExpense, &r.CardExpense, &r.PixExpense, &r.OtherExpense,
		&r.TotalIncome, &r.TotalExpense, &r.ExpectedBalance, &r.ClosingBalance, &r.Difference,
		&r.ClosedBy, &r.ClosedAt, &r.Notes, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Date = q.day(r.Date)
	return &r, nil
}

func (q *queries) getReport(ctx context.Context, date time.Time, lock bool) (*domain.DailyCashReport, error) {
	sql := `SELECT ` + reportColumns + ` FROM fin_daily_cash_reports WHERE date = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	r, err := q.scanReport(q.db.QueryRow(ctx, sql, date))
	if err != nil {
		return nil, notFoundOr(err, "daily cash report", domain.CivilDate(date))
	}
	return r, nil
}

func (q *queries) GetCashReport(ctx context.Context, date time.Time) (*domain.DailyCashReport, error) {
	return q.getReport(ctx, date, false)
}

func (q *queries) LockCashReport(ctx context.Context, date time.Time) (*domain.DailyCashReport, error) {
	return q.getReport(ctx, date, true)
}

func (q *queries) InsertCashReport(ctx context.Context, r *domain.DailyCashReport) error {
	err := q.db.QueryRow(ctx, `
INSERT INTO fin_daily_cash_reports (date, status, opening_balance, expected_balance, closing_balance, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`, r.Date, string(r.Status), r.OpeningBalance, r.ExpectedBalance, r.ClosingBalance, r.CreatedAt, r.UpdatedAt).Scan(&r.ID)
	if isUniqueViolation(err) {
		return &domain.ErrDuplicate{Key: "daily_cash:" + domain.CivilDate(r.Date)}
	}
	if err != nil {
		return fmt.Errorf("insert daily cash report: %w", err)
	}
	return nil
}

func (q *queries) UpdateCashReport(ctx context.Context, r *domain.DailyCashReport) error {
	tag, err := q.db.Exec(ctx, `
UPDATE fin_daily_cash_reports SET
	status = $2, opening_balance = $3,
	cash_income = $4, card_income = $5, pix_income = $6, other_income = $7,
	cash_expense = $8, card_expense = $9, pix_expense = $10, other_expense = $11,
	total_income = $12, total_expense = $13, expected_balance = $14, closing_balance = $15,
	difference = $16, closed_by = $17, closed_at = $18, notes = $19, updated_at = $20
WHERE id = $1`,
		r.ID, string(r.Status), r.OpeningBalance,
		r.CashIncome, r.CardIncome, r.PixIncome, r.OtherIncome,
		r.CashExpense, r.CardExpense, r.PixExpense, r.OtherExpense,
		r.TotalIncome, r.TotalExpense, r.ExpectedBalance, r.ClosingBalance,
		r.Difference, r.ClosedBy, r.ClosedAt, r.Notes, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update daily cash report %d: %w", r.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "daily cash report", ID: id(r.ID)}
	}
	return nil
}

func (q *queries) ListCashReports(ctx context.Context, f domain.CashReportFilter) ([]domain.DailyCashReport, int, error) {
	w := &where{}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if f.From != nil {
		w.add("date >= ?", *f.From)
	}
	if f.To != nil {
		w.add("date <= ?", *f.To)
	}

	var total int
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM fin_daily_cash_reports`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count daily cash reports: %w", err)
	}
	rows, err := q.db.Query(ctx,
		`SELECT `+reportColumns+` FROM fin_daily_cash_reports`+w.String()+` ORDER BY date DESC`+w.page(f.Page, f.Limit),
		w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list daily cash reports: %w", err)
	}
	defer rows.Close()

	out := []domain.DailyCashReport{}
	for rows.Next() {
		r, err := q.scanReport(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan daily cash report: %w", err)
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}

// ============================================================
// Alerts
// ============================================================

const alertColumns = `id, kind, account_id, alert_date, alert_day, due_date, amount, type, priority, read, read_at, dismissed`

func (q *queries) scanAlert(row scanner) (*domain.PaymentAlert, error) {
	var a domain.PaymentAlert
	err := row.Scan(&a.ID, &a.Kind, &a.AccountID, &a.AlertDate, &a.AlertDay, &a.DueDate,
		&a.Amount, &a.Type, &a.Priority, &a.Read, &a.ReadAt, &a.Dismissed)
	if err != nil {
		return nil, err
	}
	a.AlertDay = q.day(a.AlertDay)
	a.DueDate = q.day(a.DueDate)
	a.AlertDate = a.AlertDate.In(q.loc)
	return &a, nil
}

// InsertAlert leans on the (kind, account_id, type, alert_day) unique key.
func (q *queries) InsertAlert(ctx context.Context, a *domain.PaymentAlert) error {
	err := q.db.QueryRow(ctx, `
INSERT INTO fin_payment_alerts (kind, account_id, alert_date, alert_day, due_date, amount, type, priority, priority_rank, read, dismissed)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, FALSE)
ON CONFLICT (kind, account_id, type, alert_day) DO NOTHING
RETURNING id`,
		string(a.Kind), a.AccountID, a.AlertDate, a.AlertDay, a.DueDate, a.Amount,
		string(a.Type), string(a.Priority), a.Priority.Rank()).Scan(&a.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.ErrDuplicate{Key: fmt.Sprintf("%s:%d:%s:%s", a.Kind, a.AccountID, a.Type, domain.CivilDate(a.AlertDay))}
	}
	if err != nil {
		return fmt.Errorf("insert payment alert: %w", err)
	}
	return nil
}

func (q *queries) GetAlert(ctx context.Context, aid int64) (*domain.PaymentAlert, error) {
	a, err := q.scanAlert(q.db.QueryRow(ctx, `SELECT `+alertColumns+` FROM fin_payment_alerts WHERE id = $1`, aid))
	if err != nil {
		return nil, notFoundOr(err, "payment alert", id(aid))
	}
	return a, nil
}

func (q *queries) UpdateAlert(ctx context.Context, a *domain.PaymentAlert) error {
	tag, err := q.db.Exec(ctx, `UPDATE fin_payment_alerts SET read = $2, read_at = $3, dismissed = $4 WHERE id = $1`,
		a.ID, a.Read, a.ReadAt, a.Dismissed)
	if err != nil {
		return fmt.Errorf("update payment alert %d: %w", a.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.ErrNotFound{Resource: "payment alert", ID: id(a.ID)}
	}
	return nil
}

func (q *queries) ListAlerts(ctx context.Context, f domain.AlertFilter) ([]domain.PaymentAlert, int, error) {
	w := &where{}
	if f.Read != nil {
		w.add("read = ?", *f.Read)
	}
	if f.Dismissed != nil {
		w.add("dismissed = ?", *f.Dismissed)
	}
	if f.Priority != "" {
		w.add("priority = ?", string(f.Priority))
	}
	if f.Type != "" {
		w.add("type = ?", string(f.Type))
	}
	if f.Kind != "" {
		w.add("kind = ?", string(f.Kind))
	}
	if f.AccountID != nil {
		w.add("account_id = ?", *f.AccountID)
	}

	var total int
	if err := q.db.QueryRow(ctx, `SELECT count(*) FROM fin_payment_alerts`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count payment alerts: %w", err)
	}
	rows, err := q.db.Query(ctx,
		`SELECT `+alertColumns+` FROM fin_payment_alerts`+w.String()+
			` ORDER BY priority_rank DESC, alert_date DESC, id DESC`+w.page(f.Page, f.Limit),
		w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list payment alerts: %w", err)
	}
	defer rows.Close()

	out := []domain.PaymentAlert{}
	for rows.Next() {
		a, err := q.scanAlert(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan payment alert: %w", err)
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

func (q *queries) CountActiveAlerts(ctx context.Context) (map[domain.AlertPriority]int, error) {
	rows, err := q.db.Query(ctx, `
SELECT priority, count(*) FROM fin_payment_alerts
WHERE NOT read AND NOT dismissed
GROUP BY priority`)
	if err != nil {
		return nil, fmt.Errorf("count active alerts: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.AlertPriority]int)
	for rows.Next() {
		var p domain.AlertPriority
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, fmt.Errorf("scan alert count: %w", err)
		}
		out[p] = n
	}
	return out, rows.Err()
}

// ============================================================
// Audit
// ============================================================

func (q *queries) InsertAudit(ctx context.Context, e *domain.AuditEntry) error {
	_, err := q.db.Exec(ctx, `
INSERT INTO fin_audit_log (id, actor_id, table_name, record_id, operation, old_values, new_values, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.ActorID, e.Table, e.RecordID, string(e.Operation), []byte(e.OldValues), []byte(e.NewValues), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
