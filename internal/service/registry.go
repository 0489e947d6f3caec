package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
	"github.com/jorgyvanlima/pdvc1/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var registryTracer = otel.Tracer("service/registry")

// RegistryService manages the reference data: categories and bank accounts.
type RegistryService struct {
	store  port.Store
	logger *zap.Logger
	opts   Options
}

// NewRegistryService creates a new registry service.
func NewRegistryService(store port.Store, logger *zap.Logger, opts Options) *RegistryService {
	return &RegistryService{store: store, logger: logger, opts: opts.withDefaults()}
}

// ============================================================
// Categories
// ============================================================

// ListCategories returns active categories ordered by name. An empty type
// returns both.
func (s *RegistryService) ListCategories(ctx context.Context, t domain.CategoryType) ([]domain.FinancialCategory, error) {
	ctx, span := registryTracer.Start(ctx, "RegistryService.ListCategories")
	defer span.End()

	if t != "" && !t.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be EXPENSE or INCOME"}
	}

	var out []domain.FinancialCategory
	err := s.store.View(ctx, func(q port.Queries) error {
		var err error
		out, err = q.ListCategories(ctx, t, true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (s *RegistryService) CreateCategory(ctx context.Context, actorID string, req *domain.CreateCategoryRequest) (*domain.FinancialCategory, error) {
	ctx, span := registryTracer.Start(ctx, "RegistryService.CreateCategory")
	defer span.End()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "is required"}
	}
	if !req.Type.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be EXPENSE or INCOME"}
	}

	c := &domain.FinancialCategory{
		Name:        name,
		Type:        req.Type,
		Description: strings.TrimSpace(req.Description),
		Active:      true,
		CreatedAt:   s.opts.now(),
	}
	err := s.store.Tx(ctx, func(q port.Queries) error {
		if err := q.InsertCategory(ctx, c); err != nil {
			return err
		}
		return writeAudit(ctx, q, actorID, "fin_categories", c.ID, domain.AuditCreate, nil, c, c.CreatedAt)
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, &domain.ErrConflict{Message: fmt.Sprintf("category %q of type %s already exists", name, req.Type)}
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.logger.Info("category created", zap.Int64("category_id", c.ID), zap.String("type", string(c.Type)))
	return c, nil
}

// DeactivateCategory hides a category from listings. Categories already
// referenced by ledger rows are kept.
func (s *RegistryService) DeactivateCategory(ctx context.Context, actorID string, id int64) error {
	ctx, span := registryTracer.Start(ctx, "RegistryService.DeactivateCategory")
	defer span.End()
	span.SetAttributes(attribute.Int64("category.id", id))

	err := s.store.Tx(ctx, func(q port.Queries) error {
		old, err := q.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		if err := q.SetCategoryActive(ctx, id, false); err != nil {
			return err
		}
		updated := *old
		updated.Active = false
		return writeAudit(ctx, q, actorID, "fin_categories", id, domain.AuditUpdate, old, &updated, s.opts.now())
	})
	if err != nil {
		return fmt.Errorf("deactivate category %d: %w", id, err)
	}
	return nil
}

// ============================================================
// Bank accounts
// ============================================================

// ListBankAccounts returns active bank accounts ordered by name.
func (s *RegistryService) ListBankAccounts(ctx context.Context) ([]domain.BankAccount, error) {
	ctx, span := registryTracer.Start(ctx, "RegistryService.ListBankAccounts")
	defer span.End()

	var out []domain.BankAccount
	err := s.store.View(ctx, func(q port.Queries) error {
		var err error
		out, err = q.ListBankAccounts(ctx, true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	return out, nil
}

func (s *RegistryService) GetBankAccount(ctx context.Context, id int64) (*domain.BankAccount, error) {
	ctx, span := registryTracer.Start(ctx, "RegistryService.GetBankAccount")
	defer span.End()
	span.SetAttributes(attribute.Int64("bank_account.id", id))

	var out *domain.BankAccount
	err := s.store.View(ctx, func(q port.Queries) error {
		var err error
		out, err = q.GetBankAccount(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get bank account %d: %w", id, err)
	}
	return out, nil
}

func (s *RegistryService) CreateBankAccount(ctx context.Context, actorID string, req *domain.CreateBankAccountRequest) (*domain.BankAccount, error) {
	ctx, span := registryTracer.Start(ctx, "RegistryService.CreateBankAccount")
	defer span.End()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "is required"}
	}
	bank := strings.TrimSpace(req.BankName)
	if bank == "" {
		return nil, &domain.ErrValidation{Field: "bankName", Message: "is required"}
	}
	if !domain.IsMoney(req.InitialBalance) {
		return nil, &domain.ErrValidation{Field: "initialBalance", Message: "must have at most 2 decimal places"}
	}

	b := &domain.BankAccount{
		Name:           name,
		BankName:       bank,
		Agency:         strings.TrimSpace(req.Agency),
		AccountNumber:  strings.TrimSpace(req.AccountNumber),
		CurrentBalance: req.InitialBalance,
		Active:         true,
		CreatedAt:      s.opts.now(),
	}
	err := s.store.Tx(ctx, func(q port.Queries) error {
		if err := q.InsertBankAccount(ctx, b); err != nil {
			return err
		}
		return writeAudit(ctx, q, actorID, "fin_bank_accounts", b.ID, domain.AuditCreate, nil, b, b.CreatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("create bank account: %w", err)
	}

	s.logger.Info("bank account created",
		zap.Int64("bank_account_id", b.ID),
		zap.Stringer("balance", b.CurrentBalance),
	)
	return b, nil
}
