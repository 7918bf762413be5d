package masterdata

import (
	"context"
	"log/slog"

	"github.com/odyssey-erp/odyssey-pos/internal/documents"
)

// BulkAdjustPrices moves the selected price columns of every matching
// product in one unit of work. Either every product changes or none does.
func (s *Service) BulkAdjustPrices(ctx context.Context, in BulkPriceInput) (BulkPriceResult, error) {
	if err := in.normalize(); err != nil {
		return BulkPriceResult{}, err
	}
	filter := documents.ProductFilter{CategoryID: in.CategoryID, ActiveOnly: in.onlyActive()}
	var updated int
	err := s.store.WithTx(ctx, func(ctx context.Context, tx documents.Tx) error {
		updated = 0
		products, err := tx.ListProductsForUpdate(ctx, filter)
		if err != nil {
			return err
		}
		now := s.now()
		for _, p := range products {
			for _, target := range in.Targets {
				switch target {
				case TargetPrice:
					p.Price = in.apply(p.Price)
				case TargetPrice2:
					p.Price2 = in.apply(p.Price2)
				case TargetPrice3:
					p.Price3 = in.apply(p.Price3)
				case TargetCostPrice:
					p.CostPrice = in.apply(p.CostPrice)
				}
			}
			p.UpdatedAt = now
			if err := tx.UpdateProduct(ctx, p); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return BulkPriceResult{}, err
	}
	s.logger.Info("bulk price adjustment",
		slog.String("mode", string(in.Mode)),
		slog.String("amount", in.Amount.String()),
		slog.Int("updated", updated))
	if updated > 0 {
		s.record(ctx, "bulk_price_adjust", "product", "bulk", map[string]any{
			"mode":      in.Mode,
			"amount":    in.Amount.String(),
			"direction": in.Direction,
			"targets":   in.Targets,
			"updated":   updated,
		})
	}
	return BulkPriceResult{Updated: updated}, nil
}
