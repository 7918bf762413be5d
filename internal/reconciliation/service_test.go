package reconciliation

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
	"github.com/odyssey-erp/odyssey-pos/internal/documents/memstore"
	"github.com/odyssey-erp/odyssey-pos/internal/lifecycle"
)

const (
	productID  = "00000000-0000-0000-0000-000000000001"
	customerID = "00000000-0000-0000-0000-0000000000c1"
	supplierID = "00000000-0000-0000-0000-0000000000s1"
)

type driftSink struct {
	drifted map[string]int
	amounts map[string]decimal.Decimal
}

func (d *driftSink) RecordDrift(party string, drifted int, amount decimal.Decimal) {
	d.drifted[party] = drifted
	d.amounts[party] = amount
}

type harness struct {
	store     *memstore.Store
	lifecycle *lifecycle.Service
	service   *Service
	cache     *Cache
	sink      *driftSink
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memstore.New()
	now := time.Now().UTC()
	require.NoError(t, store.WithTx(context.Background(), func(ctx context.Context, tx documents.Tx) error {
		if err := tx.InsertProduct(ctx, documents.Product{ID: productID, Name: "P", Stock: 50, Price: dec("100"), IsActive: true, CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		if err := tx.InsertCustomer(ctx, documents.Customer{ID: customerID, Name: "Ali", PriceTier: documents.PriceTier1, DueDays: 30, CreatedAt: now, UpdatedAt: now}); err != nil {
			return err
		}
		return tx.InsertSupplier(ctx, documents.Supplier{ID: supplierID, Name: "Acme", CreatedAt: now, UpdatedAt: now})
	}))

	cache := NewCache(client, time.Minute)
	sink := &driftSink{drifted: map[string]int{}, amounts: map[string]decimal.Decimal{}}
	return &harness{
		store:     store,
		lifecycle: lifecycle.NewService(lifecycle.Dependencies{Store: store, Cache: cache}, lifecycle.Config{Language: "en"}),
		service:   NewService(store, cache, sink, nil),
		cache:     cache,
		sink:      sink,
	}
}

func (h *harness) invoice(t *testing.T, kind documents.Kind, party string, qty int, total, paid string) documents.Invoice {
	t.Helper()
	in := lifecycle.CreateInvoiceInput{
		PartyID:     &party,
		Items:       []lifecycle.ItemInput{{ProductID: productID, Quantity: qty, Price: dec("100")}},
		TotalAmount: dec(total),
		PaidAmount:  dec(paid),
	}
	var (
		inv documents.Invoice
		err error
	)
	if kind == documents.KindSale {
		inv, err = h.lifecycle.CreateSale(context.Background(), in)
	} else {
		inv, err = h.lifecycle.CreatePurchase(context.Background(), in)
	}
	require.NoError(t, err)
	return inv
}

func (h *harness) pay(t *testing.T, in lifecycle.RecordPaymentInput) {
	t.Helper()
	_, err := h.lifecycle.RecordPayment(context.Background(), in)
	require.NoError(t, err)
}

func (h *harness) activity(t *testing.T) {
	t.Helper()
	c, s := customerID, supplierID
	h.invoice(t, documents.KindSale, customerID, 3, "300", "100")
	cancelled := h.invoice(t, documents.KindSale, customerID, 1, "100", "0")
	_, err := h.lifecycle.CancelDocument(context.Background(), documents.KindSale, cancelled.ID)
	require.NoError(t, err)
	h.pay(t, lifecycle.RecordPaymentInput{CustomerID: &c, Amount: dec("50"), Type: "RECEIVE"})

	h.invoice(t, documents.KindPurchase, supplierID, 4, "400", "150")
	h.pay(t, lifecycle.RecordPaymentInput{SupplierID: &s, Amount: dec("80"), Type: "PAY"})
}

func TestAuditAgreesAfterLifecycleActivity(t *testing.T) {
	h := newHarness(t)
	h.activity(t)
	ctx := context.Background()

	customers, err := h.service.AuditCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers.Rows, 1)
	row := customers.Rows[0]
	assert.True(t, dec("150").Equal(row.Stored), row.Stored.String())
	assert.True(t, dec("150").Equal(row.Computed), row.Computed.String())
	assert.False(t, row.Drifted())
	assert.Zero(t, customers.Summary.Drifted)

	suppliers, err := h.service.AuditSuppliers(ctx)
	require.NoError(t, err)
	require.Len(t, suppliers.Rows, 1)
	assert.True(t, dec("170").Equal(suppliers.Rows[0].Computed), suppliers.Rows[0].Computed.String())
	assert.False(t, suppliers.Rows[0].Drifted())

	one, err := h.service.AuditSupplier(ctx, supplierID)
	require.NoError(t, err)
	assert.Equal(t, suppliers.Rows[0].Computed.String(), one.Computed.String())
}

func TestCachedAuditRefreshesOnlyAfterBump(t *testing.T) {
	h := newHarness(t)
	h.activity(t)
	ctx := context.Background()

	_, err := h.service.AuditCustomers(ctx)
	require.NoError(t, err)

	// Out-of-band write that skips the ledger and therefore the bump.
	require.NoError(t, h.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		return tx.AdjustCustomerBalance(ctx, customerID, dec("10"))
	}))

	stale, err := h.service.AuditCustomers(ctx)
	require.NoError(t, err)
	assert.Zero(t, stale.Summary.Drifted)

	direct, err := h.service.AuditCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(direct.Diff), direct.Diff.String())

	require.NoError(t, h.cache.Bump(ctx))
	fresh, err := h.service.AuditCustomers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Summary.Drifted)
	assert.True(t, dec("10").Equal(fresh.Summary.TotalDrift))
}

func TestLedgerMutationsBumpCacheVersion(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	before, err := h.cache.Version(ctx)
	require.NoError(t, err)

	h.invoice(t, documents.KindSale, customerID, 1, "100", "0")

	after, err := h.cache.Version(ctx)
	require.NoError(t, err)
	assert.Greater(t, after, before)
}

func TestScanPublishesDrift(t *testing.T) {
	h := newHarness(t)
	h.activity(t)
	ctx := context.Background()
	require.NoError(t, h.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		return tx.AdjustSupplierBalance(ctx, supplierID, dec("-20"))
	}))

	reports, err := h.service.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, 0, h.sink.drifted["customer"])
	assert.Equal(t, 1, h.sink.drifted["supplier"])
	assert.True(t, dec("20").Equal(h.sink.amounts["supplier"]))
}

func TestAuditWithoutRedisComputesDirectly(t *testing.T) {
	store := memstore.New()
	now := time.Now().UTC()
	require.NoError(t, store.WithTx(context.Background(), func(ctx context.Context, tx documents.Tx) error {
		return tx.InsertCustomer(ctx, documents.Customer{ID: customerID, Name: "Ali", Balance: dec("5"), PriceTier: documents.PriceTier1, CreatedAt: now, UpdatedAt: now})
	}))
	svc := NewService(store, NewCache(nil, 0), nil, nil)

	report, err := svc.AuditCustomers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.Drifted)

	_, err = svc.Scan(context.Background())
	require.NoError(t, err)
}

func TestReceivablesAndPayables(t *testing.T) {
	h := newHarness(t)
	h.activity(t)
	ctx := context.Background()

	now := time.Now().UTC()
	receivables, err := h.service.Receivables(ctx, now)
	require.NoError(t, err)
	require.Len(t, receivables.Parties, 1)
	party := receivables.Parties[0]
	assert.True(t, dec("150").Equal(party.Balance))
	assert.True(t, dec("200").Equal(party.Outstanding), party.Outstanding.String())
	require.Len(t, party.Invoices, 1)
	require.NotNil(t, party.Invoices[0].DueDate)
	assert.False(t, party.Invoices[0].Overdue)

	assert.True(t, dec("200").Equal(receivables.Aging.Current), receivables.Aging.Current.String())

	late, err := h.service.Receivables(ctx, now.AddDate(0, 0, 31))
	require.NoError(t, err)
	assert.True(t, late.Parties[0].Invoices[0].Overdue)

	later, err := h.service.Receivables(ctx, now.AddDate(0, 0, 75))
	require.NoError(t, err)
	assert.True(t, later.Aging.Current.IsZero())
	assert.True(t, dec("200").Equal(later.Aging.Days60), later.Aging.Days60.String())
	assert.True(t, dec("200").Equal(later.Aging.Total()))

	payables, err := h.service.Payables(ctx, now)
	require.NoError(t, err)
	require.Len(t, payables.Parties, 1)
	assert.True(t, dec("170").Equal(payables.TotalStored), payables.TotalStored.String())
	assert.Nil(t, payables.Parties[0].Invoices[0].DueDate)
}

func TestWriteXLSX(t *testing.T) {
	report := Report{
		Kind: PartyCustomer,
		Rows: []Row{
			{ID: "c1", Name: "Ali", Stored: dec("160"), Outstanding: dec("200"), PaymentAdjustment: dec("-50"), Computed: dec("150"), Diff: dec("10")},
		},
	}
	report.Summary = Summarize(report.Rows)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(auditSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, auditHeadings, rows[0])
	assert.Equal(t, "Ali", rows[1][1])
	assert.Equal(t, "10", rows[1][6])
	assert.Equal(t, "Drifted parties", rows[3][0])
	assert.Equal(t, "1", rows[3][1])
}

// midAuditStore commits a unit of work right after the audit has read the
// customer list, before it reads invoices and payments.
type midAuditStore struct {
	*memstore.Store
	afterCustomers func()
}

func (m *midAuditStore) Snapshot(ctx context.Context, fn func(context.Context, documents.Reader) error) error {
	return m.Store.Snapshot(ctx, func(ctx context.Context, r documents.Reader) error {
		return fn(ctx, &hookedReader{Reader: r, afterCustomers: m.afterCustomers})
	})
}

type hookedReader struct {
	documents.Reader
	afterCustomers func()
}

func (r *hookedReader) ListCustomers(ctx context.Context, filter documents.PartyFilter) ([]documents.Customer, error) {
	out, err := r.Reader.ListCustomers(ctx, filter)
	if r.afterCustomers != nil {
		hook := r.afterCustomers
		r.afterCustomers = nil
		hook()
	}
	return out, err
}

func TestScanIgnoresWritesCommittedMidAudit(t *testing.T) {
	h := newHarness(t)
	store := &midAuditStore{Store: h.store}
	party := customerID
	store.afterCustomers = func() {
		_, err := h.lifecycle.CreateSale(context.Background(), lifecycle.CreateInvoiceInput{
			PartyID:     &party,
			Items:       []lifecycle.ItemInput{{ProductID: productID, Quantity: 3, Price: dec("100")}},
			TotalAmount: dec("300"),
			PaidAmount:  dec("100"),
		})
		assert.NoError(t, err)
	}
	sink := &driftSink{drifted: map[string]int{}, amounts: map[string]decimal.Decimal{}}
	svc := NewService(store, NewCache(nil, 0), sink, nil)

	reports, err := svc.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, PartyCustomer, reports[0].Kind)
	assert.Equal(t, 0, reports[0].Summary.Drifted)
	assert.Equal(t, 0, sink.drifted["customer"])

	row, err := svc.AuditCustomer(context.Background(), customerID)
	require.NoError(t, err)
	assert.Equal(t, "200", row.Stored.String())
	assert.False(t, row.Drifted())
}
