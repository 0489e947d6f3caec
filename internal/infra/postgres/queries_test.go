package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jorgyvanlima/pdvc1/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestWhere_NumbersPlaceholdersInOrder(t *testing.T) {
	tests := []struct {
		name  string
		build func(w *where)
		want  string
		args  int
	}{
		{"empty", func(*where) {}, "", 0},
		{"single", func(w *where) { w.add("status = ?", "PENDING") }, " WHERE status = $1", 1},
		{
			"several",
			func(w *where) {
				w.add("due_date >= ?", "2025-03-01")
				w.add("due_date < ?", "2025-04-01")
				w.add("supplier_id = ?", int64(7))
			},
			" WHERE due_date >= $1 AND due_date < $2 AND supplier_id = $3",
			3,
		},
		{
			"bare clause keeps numbering",
			func(w *where) {
				w.clauses = append(w.clauses, "active")
				w.add("type = ?", "EXPENSE")
			},
			" WHERE active AND type = $1",
			1,
		},
		{"one placeholder per call", func(w *where) { w.add("status = ANY(?)", []string{"PENDING", "PARTIALLY_PAID"}) }, " WHERE status = ANY($1)", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &where{}
			tt.build(w)
			if got := w.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if len(w.args) != tt.args {
				t.Errorf("expected %d args, got %d", tt.args, len(w.args))
			}
		})
	}
}

func TestWhere_Page(t *testing.T) {
	w := &where{}
	tests := []struct {
		page, limit int
		want        string
	}{
		{1, 25, " LIMIT 25 OFFSET 0"},
		{3, 10, " LIMIT 10 OFFSET 20"},
		{0, 10, " LIMIT 10 OFFSET 0"},
		{-2, 5, " LIMIT 5 OFFSET 0"},
		{4, 0, ""},
	}
	for _, tt := range tests {
		if got := w.page(tt.page, tt.limit); got != tt.want {
			t.Errorf("page(%d, %d) = %q, want %q", tt.page, tt.limit, got, tt.want)
		}
	}
}

func TestNotFoundOr(t *testing.T) {
	err := notFoundOr(pgx.ErrNoRows, "accounts payable", "9")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) || nf.ID != "9" {
		t.Fatalf("expected ErrNotFound for id 9, got %v", err)
	}

	boom := errors.New("connection reset")
	err = notFoundOr(boom, "category", "3")
	if errors.As(err, &nf) {
		t.Fatal("unexpected ErrNotFound for a driver failure")
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected the driver error to stay wrapped, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(fmt.Errorf("insert alert: %w", &pgconn.PgError{Code: "23505"})) {
		t.Error("expected 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("a foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("plain")) {
		t.Error("plain errors are not unique violations")
	}
}

func TestQueries_DayUsesLedgerZone(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	q := &queries{loc: loc}

	got := q.day(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC))
	want := time.Date(2025, time.March, 10, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("day() = %s, want %s", got, want)
	}
}
