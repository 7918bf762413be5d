package reconciliation

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
)

// DriftRecorder publishes audit outcomes.
type DriftRecorder interface {
	RecordDrift(party string, drifted int, amount decimal.Decimal)
}

// Report is the result of auditing every party of one kind.
type Report struct {
	Kind    PartyKind `json:"kind"`
	Rows    []Row     `json:"rows"`
	Summary Summary   `json:"summary"`
}

// Service loads document history from the store and audits it.
type Service struct {
	store   documents.Snapshotter
	cache   *Cache
	metrics DriftRecorder
	logger  *slog.Logger
	group   singleflight.Group
}

// NewService wires the store with an optional cache and metrics sink.
func NewService(store documents.Snapshotter, cache *Cache, metrics DriftRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cache: cache, metrics: metrics, logger: logger}
}

// AuditCustomers audits every customer.
func (s *Service) AuditCustomers(ctx context.Context) (Report, error) {
	return s.auditAll(ctx, PartyCustomer)
}

// AuditSuppliers audits every supplier.
func (s *Service) AuditSuppliers(ctx context.Context) (Report, error) {
	return s.auditAll(ctx, PartySupplier)
}

// Audit dispatches on kind.
func (s *Service) Audit(ctx context.Context, kind PartyKind) (Report, error) {
	return s.auditAll(ctx, kind)
}

func (s *Service) auditAll(ctx context.Context, kind PartyKind) (Report, error) {
	key, err := s.cache.BuildKey(ctx, string(kind))
	if err != nil {
		s.logger.Warn("audit cache unavailable", slog.Any("error", err))
		key = "pos:audit:" + string(kind)
	}
	ch := s.group.DoChan(key, func() (any, error) {
		var report Report
		err := s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (any, error) {
			return s.compute(ctx, kind)
		})
		return report, err
	})
	select {
	case <-ctx.Done():
		return Report{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Report{}, res.Err
		}
		return res.Val.(Report), nil
	}
}

// compute reads parties, invoices and payments from one snapshot so a unit
// committing mid-audit cannot show up as drift.
func (s *Service) compute(ctx context.Context, kind PartyKind) (Report, error) {
	var report Report
	err := s.store.Snapshot(ctx, func(ctx context.Context, r documents.Reader) error {
		parties, err := loadParties(ctx, r, kind)
		if err != nil {
			return err
		}
		invoices, err := r.ListInvoices(ctx, documents.InvoiceFilter{Kind: kind.DocumentKind()})
		if err != nil {
			return err
		}
		payments, err := r.ListPayments(ctx, documents.PaymentFilter{PartyKind: kind.DocumentKind()})
		if err != nil {
			return err
		}
		rows := AuditAll(kind, parties, invoices, payments)
		report = Report{Kind: kind, Rows: rows, Summary: Summarize(rows)}
		return nil
	})
	return report, err
}

func loadParties(ctx context.Context, r documents.Reader, kind PartyKind) ([]Party, error) {
	if kind == PartySupplier {
		suppliers, err := r.ListSuppliers(ctx, documents.PartyFilter{})
		if err != nil {
			return nil, err
		}
		out := make([]Party, 0, len(suppliers))
		for _, sup := range suppliers {
			out = append(out, Party{ID: sup.ID, Name: sup.Name, Balance: sup.Balance})
		}
		return out, nil
	}
	customers, err := r.ListCustomers(ctx, documents.PartyFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]Party, 0, len(customers))
	for _, c := range customers {
		out = append(out, Party{ID: c.ID, Name: c.Name, Balance: c.Balance})
	}
	return out, nil
}

// AuditCustomer audits one customer without touching the cache.
func (s *Service) AuditCustomer(ctx context.Context, id string) (Row, error) {
	return s.auditOne(ctx, PartyCustomer, id)
}

// AuditSupplier audits one supplier without touching the cache.
func (s *Service) AuditSupplier(ctx context.Context, id string) (Row, error) {
	return s.auditOne(ctx, PartySupplier, id)
}

func (s *Service) auditOne(ctx context.Context, kind PartyKind, id string) (Row, error) {
	var row Row
	err := s.store.Snapshot(ctx, func(ctx context.Context, r documents.Reader) error {
		var (
			party  Party
			filter documents.PaymentFilter
		)
		if kind == PartySupplier {
			sup, err := r.GetSupplier(ctx, id)
			if err != nil {
				return err
			}
			party = Party{ID: sup.ID, Name: sup.Name, Balance: sup.Balance}
			filter = documents.PaymentFilter{SupplierID: &id}
		} else {
			c, err := r.GetCustomer(ctx, id)
			if err != nil {
				return err
			}
			party = Party{ID: c.ID, Name: c.Name, Balance: c.Balance}
			filter = documents.PaymentFilter{CustomerID: &id}
		}
		invoices, err := r.ListInvoices(ctx, documents.InvoiceFilter{Kind: kind.DocumentKind(), PartyID: &id})
		if err != nil {
			return err
		}
		payments, err := r.ListPayments(ctx, filter)
		if err != nil {
			return err
		}
		row = Audit(kind, party, invoices, payments)
		return nil
	})
	return row, err
}

// Scan audits both party kinds from scratch, publishes drift metrics and
// logs every drifted party. It bypasses the cache.
func (s *Service) Scan(ctx context.Context) ([]Report, error) {
	kinds := []PartyKind{PartyCustomer, PartySupplier}
	reports := make([]Report, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			report, err := s.compute(gctx, kind)
			reports[i] = report
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, report := range reports {
		kind := string(report.Kind)
		if s.metrics != nil {
			s.metrics.RecordDrift(kind, report.Summary.Drifted, report.Summary.TotalDrift)
		}
		for _, row := range DriftedOnly(report.Rows) {
			s.logger.Warn("balance drift detected",
				slog.String("party", kind),
				slog.String("id", row.ID),
				slog.String("name", row.Name),
				slog.String("stored", row.Stored.StringFixed(2)),
				slog.String("computed", row.Computed.StringFixed(2)),
				slog.String("diff", row.Diff.StringFixed(2)))
		}
	}
	return reports, nil
}
