package inventory

import (
	"context"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
)

// StockReader is the read surface needed for stock reports.
type StockReader interface {
	ListProducts(ctx context.Context, filter documents.ProductFilter) ([]documents.Product, error)
}

// Service answers stock queries.
type Service struct {
	store StockReader
}

// NewService builds Service.
func NewService(store StockReader) *Service {
	return &Service{store: store}
}

// LowStock lists active products at or below their minimum stock.
func (s *Service) LowStock(ctx context.Context) ([]documents.Product, error) {
	products, err := s.store.ListProducts(ctx, documents.ProductFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	out := make([]documents.Product, 0)
	for _, p := range products {
		if p.Stock <= p.MinStock {
			out = append(out, p)
		}
	}
	return out, nil
}
