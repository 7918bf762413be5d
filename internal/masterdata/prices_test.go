package masterdata

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

func TestBulkPriceApply(t *testing.T) {
	cases := []struct {
		name    string
		in      BulkPriceInput
		current string
		want    string
	}{
		{"percent increase", BulkPriceInput{Mode: PriceModePercent, Amount: dec("10"), Direction: "increase"}, "19.99", "21.99"},
		{"percent decrease", BulkPriceInput{Mode: PriceModePercent, Amount: dec("25"), Direction: "decrease"}, "80", "60"},
		{"fixed increase", BulkPriceInput{Mode: PriceModeFixed, Amount: dec("2.5"), Direction: "increase"}, "10", "12.5"},
		{"fixed decrease floors at zero", BulkPriceInput{Mode: PriceModeFixed, Amount: dec("15"), Direction: "decrease"}, "10", "0"},
		{"exchange rate", BulkPriceInput{Mode: PriceModeExchangeRate, Amount: dec("1.333")}, "100", "133.3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.apply(dec(tc.current))
			assert.True(t, dec(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestBulkPriceValidation(t *testing.T) {
	cases := []BulkPriceInput{
		{Mode: "double", Amount: dec("1")},
		{Mode: PriceModePercent, Amount: dec("1")},
		{Mode: PriceModeFixed, Amount: dec("-1"), Direction: "increase"},
		{Mode: PriceModeExchangeRate, Amount: dec("1"), Targets: []PriceTarget{"wholesale"}},
	}
	svc, _, _, _ := newTestService()
	for _, in := range cases {
		_, err := svc.BulkAdjustPrices(context.Background(), in)
		assert.True(t, errors.Is(err, shared.ErrValidation), "%+v", in)
	}
}

func TestBulkAdjustPricesFiltersAndTargets(t *testing.T) {
	svc, store, audit, _ := newTestService()
	ctx := context.Background()

	drinks, err := svc.CreateCategory(ctx, CategoryInput{Name: "Drinks"})
	require.NoError(t, err)
	cola, err := svc.CreateProduct(ctx, ProductInput{Name: "Cola", CategoryID: &drinks.ID, Price: dec("10"), Price2: dec("9"), CostPrice: dec("6")})
	require.NoError(t, err)
	off := false
	juice, err := svc.CreateProduct(ctx, ProductInput{Name: "Juice", CategoryID: &drinks.ID, Price: dec("20"), IsActive: &off})
	require.NoError(t, err)
	bread, err := svc.CreateProduct(ctx, ProductInput{Name: "Bread", Price: dec("5")})
	require.NoError(t, err)

	res, err := svc.BulkAdjustPrices(ctx, BulkPriceInput{
		Mode:       PriceModePercent,
		Amount:     dec("10"),
		Direction:  "Increase",
		Targets:    []PriceTarget{TargetPrice, TargetPrice2},
		CategoryID: &drinks.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	got := func(id string) documents.Product {
		p, err := store.GetProduct(ctx, id)
		require.NoError(t, err)
		return p
	}
	assert.True(t, dec("11").Equal(got(cola.ID).Price))
	assert.True(t, dec("9.9").Equal(got(cola.ID).Price2))
	assert.True(t, dec("6").Equal(got(cola.ID).CostPrice))
	assert.True(t, dec("20").Equal(got(juice.ID).Price))
	assert.True(t, dec("5").Equal(got(bread.ID).Price))

	all := false
	res, err = svc.BulkAdjustPrices(ctx, BulkPriceInput{Mode: PriceModeExchangeRate, Amount: dec("2"), OnlyActive: &all})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Updated)
	assert.True(t, dec("40").Equal(got(juice.ID).Price))
	assert.True(t, dec("10").Equal(got(bread.ID).Price))

	last := audit.logs[len(audit.logs)-1]
	assert.Equal(t, "bulk_price_adjust", last.Action)
	assert.Equal(t, 3, last.Meta["updated"])
}

func TestBulkAdjustPricesNoMatches(t *testing.T) {
	svc, _, audit, _ := newTestService()
	res, err := svc.BulkAdjustPrices(context.Background(), BulkPriceInput{Mode: PriceModeFixed, Amount: decimal.NewFromInt(1), Direction: "increase"})
	require.NoError(t, err)
	assert.Zero(t, res.Updated)
	assert.Empty(t, audit.logs)
}
