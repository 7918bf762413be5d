package masterdata

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/documents/memstore"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type auditRecorder struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *auditRecorder) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

type bumpCounter struct{ bumps int }

func (b *bumpCounter) Bump(context.Context) error {
	b.bumps++
	return nil
}

func newTestService() (*Service, *memstore.Store, *auditRecorder, *bumpCounter) {
	store := memstore.New()
	audit := &auditRecorder{}
	cache := &bumpCounter{}
	return NewService(store, audit, cache, nil), store, audit, cache
}

func TestProductLifecycle(t *testing.T) {
	svc, store, audit, _ := newTestService()
	ctx := shared.ContextWithActor(context.Background(), "cashier-1")

	cat, err := svc.CreateCategory(ctx, CategoryInput{Name: "Drinks"})
	require.NoError(t, err)

	p, err := svc.CreateProduct(ctx, ProductInput{Name: " Cola ", Barcode: "123", CategoryID: &cat.ID, Stock: 12, Price: dec("1.505")})
	require.NoError(t, err)
	assert.Equal(t, "Cola", p.Name)
	assert.Equal(t, 12, p.Stock)
	assert.True(t, p.IsActive)
	assert.True(t, dec("1.51").Equal(p.Price), p.Price.String())

	inactive := false
	updated, err := svc.UpdateProduct(ctx, p.ID, ProductInput{Name: "Cola Zero", Barcode: "123", Stock: 999, Price: dec("2"), IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Stock)
	assert.False(t, updated.IsActive)
	assert.Nil(t, updated.CategoryID)

	stored, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, stored.Stock)
	assert.Equal(t, "Cola Zero", stored.Name)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	_, err = svc.GetProduct(ctx, p.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	require.Len(t, audit.logs, 4)
	assert.Equal(t, "cashier-1", audit.logs[1].Actor)
	assert.Equal(t, "product", audit.logs[1].Entity)
}

func TestProductValidationAndUniqueness(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, ProductInput{Name: ""})
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "X", Price: dec("-1")})
	assert.True(t, errors.Is(err, shared.ErrValidation))

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "X", Stock: -2})
	assert.True(t, errors.Is(err, shared.ErrValidation))

	missing := "no-such-category"
	_, err = svc.CreateProduct(ctx, ProductInput{Name: "X", CategoryID: &missing})
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "A", Barcode: "999"})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, ProductInput{Name: "B", Barcode: "999"})
	assert.True(t, errors.Is(err, shared.ErrConflict))
}

func TestCategoryNamesAreUnique(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, CategoryInput{Name: "Snacks"})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Snacks"})
	assert.True(t, errors.Is(err, shared.ErrConflict))
}

func TestCategoryInUseCannotBeDeleted(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CategoryInput{Name: "Bakery"})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Bread", CategoryID: &cat.ID})
	require.NoError(t, err)

	err = svc.DeleteCategory(ctx, cat.ID)
	assert.True(t, errors.Is(err, shared.ErrConflict))
}

func TestCustomerLifecycleKeepsBalance(t *testing.T) {
	svc, store, _, cache := newTestService()
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, CustomerInput{Name: "Ali", CustomerNumber: "C-1", PriceTier: "price2", DueDays: 30})
	require.NoError(t, err)
	assert.Equal(t, documents.PriceTier2, c.PriceTier)
	assert.True(t, c.Balance.IsZero())

	require.NoError(t, store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		return tx.AdjustCustomerBalance(ctx, c.ID, dec("75"))
	}))

	updated, err := svc.UpdateCustomer(ctx, c.ID, CustomerInput{Name: "Ali Hassan", CustomerNumber: "C-1"})
	require.NoError(t, err)
	assert.Equal(t, documents.PriceTier1, updated.PriceTier)

	stored, err := svc.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, dec("75").Equal(stored.Balance))
	assert.Equal(t, "Ali Hassan", stored.Name)

	_, err = svc.CreateCustomer(ctx, CustomerInput{Name: "Other", CustomerNumber: "C-1"})
	assert.True(t, errors.Is(err, shared.ErrConflict))
	_, err = svc.CreateCustomer(ctx, CustomerInput{Name: "Ali Hassan"})
	assert.True(t, errors.Is(err, shared.ErrConflict))
	_, err = svc.CreateCustomer(ctx, CustomerInput{Name: "Bad", PriceTier: "GOLD"})
	assert.True(t, errors.Is(err, shared.ErrValidation))

	require.NoError(t, svc.DeleteCustomer(ctx, c.ID))
	assert.Equal(t, 3, cache.bumps)
}

func TestSupplierLifecycle(t *testing.T) {
	svc, _, _, cache := newTestService()
	ctx := context.Background()

	s, err := svc.CreateSupplier(ctx, SupplierInput{Name: "Acme", Email: "sales@acme.test"})
	require.NoError(t, err)

	_, err = svc.CreateSupplier(ctx, SupplierInput{Name: "Acme"})
	assert.True(t, errors.Is(err, shared.ErrConflict))
	_, err = svc.CreateSupplier(ctx, SupplierInput{Name: "Bad", Email: "not-an-email"})
	assert.True(t, errors.Is(err, shared.ErrValidation))

	updated, err := svc.UpdateSupplier(ctx, s.ID, SupplierInput{Name: "Acme Ltd"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", updated.Name)

	list, err := svc.ListSuppliers(ctx, documents.PartyFilter{Search: "ltd"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.DeleteSupplier(ctx, s.ID))
	assert.Equal(t, 3, cache.bumps)

	err = svc.DeleteSupplier(ctx, s.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}
