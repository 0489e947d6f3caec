// Package service provides the business logic layer (use cases).
// Each ledger component is one service object built once at start-up and
// handed to the HTTP layer; every mutating operation opens exactly one unit
// of work on the store and writes its audit record inside it.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/port"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Options carries the ledger rules shared by every service.
type Options struct {
	// Location defines calendar-day boundaries.
	Location *time.Location
	// DueSoonDays is the one due-soon threshold used everywhere.
	DueSoonDays int
	// PageSize is the default list page size; AlertPageSize the alert one.
	PageSize      int
	AlertPageSize int
	// Now is the clock. Tests pin it.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.DueSoonDays < 0 {
		o.DueSoonDays = 0
	}
	if o.PageSize < 1 {
		o.PageSize = 25
	}
	if o.AlertPageSize < 1 {
		o.AlertPageSize = 50
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func (o Options) now() time.Time {
	return o.Now().In(o.Location)
}

// today is midnight of the current calendar day.
func (o Options) today() time.Time {
	return domain.StartOfDay(o.Now(), o.Location)
}

func (o Options) day(t time.Time) time.Time {
	return domain.StartOfDay(t, o.Location)
}

// normalizePage applies the 1-based page and the default limit.
func normalizePage(page, limit, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	return page, limit
}

// writeAudit records one mutation inside the caller's unit of work. A nil
// old or new state is left out of the record.
func writeAudit(
	ctx context.Context,
	q port.Queries,
	actorID, table string,
	recordID int64,
	op domain.AuditOperation,
	oldState, newState any,
	at time.Time,
) error {
	entry := &domain.AuditEntry{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Table:     table,
		RecordID:  strconv.FormatInt(recordID, 10),
		Operation: op,
		CreatedAt: at,
	}
	if oldState != nil {
		raw, err := json.Marshal(oldState)
		if err != nil {
			return err
		}
		entry.OldValues = raw
	}
	if newState != nil {
		raw, err := json.Marshal(newState)
		if err != nil {
			return err
		}
		entry.NewValues = raw
	}
	return q.InsertAudit(ctx, entry)
}

// isClientError reports whether err is caused by the request rather than
// by the store.
func isClientError(err error) bool {
	var (
		validation *domain.ErrValidation
		notFound   *domain.ErrNotFound
		conflict   *domain.ErrConflict
	)
	return errors.As(err, &validation) || errors.As(err, &notFound) || errors.As(err, &conflict)
}

func isDuplicate(err error) bool {
	var dup *domain.ErrDuplicate
	return errors.As(err, &dup)
}

func isNotFound(err error) bool {
	var nf *domain.ErrNotFound
	return errors.As(err, &nf)
}

func validMoney(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return &domain.ErrValidation{Field: field, Message: "must be positive"}
	}
	if !domain.IsMoney(d) {
		return &domain.ErrValidation{Field: field, Message: "must have at most 2 decimal places"}
	}
	return nil
}
