package masterdata

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// AuditPort records catalogue changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// CacheInvalidator drops cached audit reports when the party set changes.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service manages catalogue and party records.
type Service struct {
	store  documents.Store
	audit  AuditPort
	cache  CacheInvalidator
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the masterdata service. audit and cache may be nil.
func NewService(store documents.Store, audit AuditPort, cache CacheInvalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		audit:  audit,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) record(ctx context.Context, action, entity, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    shared.ActorFromContext(ctx),
		Action:   action,
		Entity:   entity,
		EntityID: id,
		Meta:     meta,
		At:       s.now(),
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("entity", entity), slog.String("entity_id", id), slog.Any("error", err))
	}
}

func (s *Service) partiesChanged(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("audit cache invalidation failed", slog.Any("error", err))
	}
}

// ListProducts returns products matching filter.
func (s *Service) ListProducts(ctx context.Context, filter documents.ProductFilter) ([]documents.Product, error) {
	return s.store.ListProducts(ctx, filter)
}

// GetProduct returns one product.
func (s *Service) GetProduct(ctx context.Context, id string) (documents.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// CreateProduct inserts a product with its opening stock.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (documents.Product, error) {
	if err := in.validate(); err != nil {
		return documents.Product{}, err
	}
	now := s.now()
	p := documents.Product{
		ID:        uuid.NewString(),
		Stock:     in.Stock,
		CreatedAt: now,
	}
	applyProduct(&p, in, now)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		if err := checkCategory(ctx, tx, p.CategoryID); err != nil {
			return err
		}
		return tx.InsertProduct(ctx, p)
	})
	if err != nil {
		return documents.Product{}, err
	}
	s.record(ctx, "create", "product", p.ID, map[string]any{"name": p.Name, "stock": p.Stock})
	return p, nil
}

// UpdateProduct replaces a product's descriptive fields and prices. Stock is
// left as it is.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (documents.Product, error) {
	if err := in.validate(); err != nil {
		return documents.Product{}, err
	}
	var p documents.Product
	err := s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		current, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		p = current
		applyProduct(&p, in, s.now())
		if err := checkCategory(ctx, tx, p.CategoryID); err != nil {
			return err
		}
		return tx.UpdateProduct(ctx, p)
	})
	if err != nil {
		return documents.Product{}, err
	}
	s.record(ctx, "update", "product", p.ID, nil)
	return p, nil
}

// DeleteProduct removes a product that no document references.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "delete", "product", id, nil)
	return nil
}

func applyProduct(p *documents.Product, in ProductInput, now time.Time) {
	p.Name = strings.TrimSpace(in.Name)
	p.Barcode = strings.TrimSpace(in.Barcode)
	p.SKU = strings.TrimSpace(in.SKU)
	p.CategoryID = documents.StringPtr(derefString(in.CategoryID))
	p.MinStock = in.MinStock
	p.Price = shared.Round2(in.Price)
	p.Price2 = shared.Round2(in.Price2)
	p.Price3 = shared.Round2(in.Price3)
	p.CostPrice = shared.Round2(in.CostPrice)
	p.IsActive = in.active()
	p.UpdatedAt = now
}

func checkCategory(ctx context.Context, tx documents.Tx, id *string) error {
	if id == nil {
		return nil
	}
	_, err := tx.GetCategory(ctx, *id)
	return err
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]documents.Category, error) {
	return s.store.ListCategories(ctx)
}

// CreateCategory inserts a category with a unique name.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (documents.Category, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return documents.Category{}, err
	}
	c := documents.Category{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   s.now(),
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		return tx.InsertCategory(ctx, c)
	})
	if err != nil {
		return documents.Category{}, err
	}
	s.record(ctx, "create", "category", c.ID, map[string]any{"name": c.Name})
	return c, nil
}

// UpdateCategory renames or redescribes a category.
func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) (documents.Category, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return documents.Category{}, err
	}
	var c documents.Category
	err := s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		current, err := tx.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		c = current
		c.Name = strings.TrimSpace(in.Name)
		c.Description = strings.TrimSpace(in.Description)
		return tx.UpdateCategory(ctx, c)
	})
	if err != nil {
		return documents.Category{}, err
	}
	s.record(ctx, "update", "category", c.ID, nil)
	return c, nil
}

// DeleteCategory removes a category with no products.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		return tx.DeleteCategory(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "delete", "category", id, nil)
	return nil
}

// ListCustomers returns customers matching filter.
func (s *Service) ListCustomers(ctx context.Context, filter documents.PartyFilter) ([]documents.Customer, error) {
	return s.store.ListCustomers(ctx, filter)
}

// GetCustomer returns one customer.
func (s *Service) GetCustomer(ctx context.Context, id string) (documents.Customer, error) {
	return s.store.GetCustomer(ctx, id)
}

// CreateCustomer inserts a customer with a zero balance.
func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (documents.Customer, error) {
	tier, err := in.validate()
	if err != nil {
		return documents.Customer{}, err
	}
	now := s.now()
	c := documents.Customer{ID: uuid.NewString(), CreatedAt: now}
	applyCustomer(&c, in, tier, now)
	err = s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		return tx.InsertCustomer(ctx, c)
	})
	if err != nil {
		return documents.Customer{}, err
	}
	s.record(ctx, "create", "customer", c.ID, map[string]any{"name": c.Name})
	s.partiesChanged(ctx)
	return c, nil
}

// UpdateCustomer changes a customer's details. The balance is untouched.
func (s *Service) UpdateCustomer(ctx context.Context, id string, in CustomerInput) (documents.Customer, error) {
	tier, err := in.validate()
	if err != nil {
		return documents.Customer{}, err
	}
	var c documents.Customer
	err = s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		current, err := tx.GetCustomer(ctx, id)
		if err != nil {
			return err
		}
		c = current
		applyCustomer(&c, in, tier, s.now())
		return tx.UpdateCustomer(ctx, c)
	})
	if err != nil {
		return documents.Customer{}, err
	}
	s.record(ctx, "update", "customer", c.ID, nil)
	s.partiesChanged(ctx)
	return c, nil
}

// DeleteCustomer removes a customer with no documents or payments.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		return tx.DeleteCustomer(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "delete", "customer", id, nil)
	s.partiesChanged(ctx)
	return nil
}

func applyCustomer(c *documents.Customer, in CustomerInput, tier documents.PriceTier, now time.Time) {
	c.CustomerNumber = documents.StringPtr(strings.TrimSpace(in.CustomerNumber))
	c.Name = strings.TrimSpace(in.Name)
	c.Phone = strings.TrimSpace(in.Phone)
	c.Email = strings.TrimSpace(in.Email)
	c.Address = strings.TrimSpace(in.Address)
	c.PriceTier = tier
	c.CreditLimit = shared.Round2(in.CreditLimit)
	c.DueDays = in.DueDays
	c.UpdatedAt = now
}

// ListSuppliers returns suppliers matching filter.
func (s *Service) ListSuppliers(ctx context.Context, filter documents.PartyFilter) ([]documents.Supplier, error) {
	return s.store.ListSuppliers(ctx, filter)
}

// GetSupplier returns one supplier.
func (s *Service) GetSupplier(ctx context.Context, id string) (documents.Supplier, error) {
	return s.store.GetSupplier(ctx, id)
}

// CreateSupplier inserts a supplier with a zero balance.
func (s *Service) CreateSupplier(ctx context.Context, in SupplierInput) (documents.Supplier, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return documents.Supplier{}, err
	}
	now := s.now()
	sup := documents.Supplier{ID: uuid.NewString(), CreatedAt: now}
	applySupplier(&sup, in, now)
	err := s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		return tx.InsertSupplier(ctx, sup)
	})
	if err != nil {
		return documents.Supplier{}, err
	}
	s.record(ctx, "create", "supplier", sup.ID, map[string]any{"name": sup.Name})
	s.partiesChanged(ctx)
	return sup, nil
}

// UpdateSupplier changes a supplier's details. The balance is untouched.
func (s *Service) UpdateSupplier(ctx context.Context, id string, in SupplierInput) (documents.Supplier, error) {
	if err := shared.ValidateStruct(in); err != nil {
		return documents.Supplier{}, err
	}
	var sup documents.Supplier
	err := s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		current, err := tx.GetSupplier(ctx, id)
		if err != nil {
			return err
		}
		sup = current
		applySupplier(&sup, in, s.now())
		return tx.UpdateSupplier(ctx, sup)
	})
	if err != nil {
		return documents.Supplier{}, err
	}
	s.record(ctx, "update", "supplier", sup.ID, nil)
	s.partiesChanged(ctx)
	return sup, nil
}

// DeleteSupplier removes a supplier with no documents or payments.
func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		return tx.DeleteSupplier(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "delete", "supplier", id, nil)
	s.partiesChanged(ctx)
	return nil
}

func applySupplier(sup *documents.Supplier, in SupplierInput, now time.Time) {
	sup.Name = strings.TrimSpace(in.Name)
	sup.Phone = strings.TrimSpace(in.Phone)
	sup.Email = strings.TrimSpace(in.Email)
	sup.Address = strings.TrimSpace(in.Address)
	sup.UpdatedAt = now
}
