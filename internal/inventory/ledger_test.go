package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/documents/memstore"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func seedProducts(t *testing.T, stock map[string]int) *memstore.Store {
	t.Helper()
	store := memstore.New()
	now := time.Now().UTC()
	require.NoError(t, store.WithTx(context.Background(), func(ctx context.Context, tx documents.Tx) error {
		for id, qty := range stock {
			if err := tx.InsertProduct(ctx, documents.Product{ID: id, Name: id, Stock: qty, MinStock: 2, IsActive: true, CreatedAt: now, UpdatedAt: now}); err != nil {
				return err
			}
		}
		return nil
	}))
	return store
}

func stockOf(t *testing.T, store *memstore.Store, id string) int {
	t.Helper()
	p, err := store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestApplySaleAggregatesDuplicateLines(t *testing.T) {
	store := seedProducts(t, map[string]int{"a": 5, "b": 3})
	ledger := NewLedger(nil)

	var moves []Movement
	require.NoError(t, store.WithTx(context.Background(), func(ctx context.Context, tx documents.Tx) error {
		var err error
		moves, err = ledger.ApplySale(ctx, tx, []Line{{ProductID: "b", Quantity: 1}, {ProductID: "a", Quantity: 2}, {ProductID: "a", Quantity: 2}})
		return err
	}))
	require.Len(t, moves, 2)
	assert.Equal(t, Movement{ProductID: "a", Delta: -4, Stock: 1}, moves[0])
	assert.Equal(t, Movement{ProductID: "b", Delta: -1, Stock: 2}, moves[1])
}

func TestApplySaleRejectsShortLineWithoutWriting(t *testing.T) {
	store := seedProducts(t, map[string]int{"a": 5, "b": 1})
	ledger := NewLedger(nil)

	err := store.WithTx(context.Background(), func(ctx context.Context, tx documents.Tx) error {
		_, err := ledger.ApplySale(ctx, tx, []Line{{ProductID: "a", Quantity: 2}, {ProductID: "b", Quantity: 3}})
		return err
	})
	var stockErr *shared.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "b", stockErr.ProductID)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 5, stockOf(t, store, "a"))
	assert.Equal(t, 1, stockOf(t, store, "b"))
}

func TestLineValidation(t *testing.T) {
	store := seedProducts(t, map[string]int{"a": 5})
	ledger := NewLedger(nil)
	for _, lines := range [][]Line{nil, {{ProductID: "", Quantity: 1}}, {{ProductID: "a", Quantity: 0}}} {
		err := store.WithTx(context.Background(), func(ctx context.Context, tx documents.Tx) error {
			_, err := ledger.ApplyPurchase(ctx, tx, lines)
			return err
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	}

	err := store.WithTx(context.Background(), func(ctx context.Context, tx documents.Tx) error {
		_, err := ledger.ApplyPurchase(ctx, tx, []Line{{ProductID: "ghost", Quantity: 1}})
		return err
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReversePurchaseMayGoNegative(t *testing.T) {
	store := seedProducts(t, map[string]int{"a": 1})
	ledger := NewLedger(nil)
	require.NoError(t, store.WithTx(context.Background(), func(ctx context.Context, tx documents.Tx) error {
		_, err := ledger.ReversePurchase(ctx, tx, []Line{{ProductID: "a", Quantity: 4}})
		return err
	}))
	assert.Equal(t, -3, stockOf(t, store, "a"))

	require.NoError(t, store.WithTx(context.Background(), func(ctx context.Context, tx documents.Tx) error {
		_, err := ledger.ReverseSale(ctx, tx, LinesFromItems([]documents.Item{{ProductID: "a", Quantity: 3}}))
		return err
	}))
	assert.Equal(t, 0, stockOf(t, store, "a"))
}

func TestLowStock(t *testing.T) {
	store := seedProducts(t, map[string]int{"low": 2, "ok": 9})
	products, err := NewService(store).LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "low", products[0].ID)
}
