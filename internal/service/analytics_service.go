package service

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/elektromart/bundle_api/internal/models"
	"github.com/elektromart/bundle_api/internal/utils"
)

// PurchaseRequest is the payload for recording a completed purchase.
type PurchaseRequest struct {
	Units   int             `json:"units" binding:"required"`
	Revenue decimal.Decimal `json:"revenue"`
}

// AnalyticsService maintains bundle performance counters and derives
// conversion rates. Counters are monotonic; every increment is a single
// statement against the store.
type AnalyticsService struct {
	bundles  BundleStore
	products ProductLookup
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(bundles BundleStore, products ProductLookup) *AnalyticsService {
	return &AnalyticsService{bundles: bundles, products: products}
}

// RecordView counts a storefront view.
func (s *AnalyticsService) RecordView(ctx context.Context, bundleID int64) error {
	return s.bundles.RecordView(bundleID)
}

// RecordAddToCart counts an add-to-cart event.
func (s *AnalyticsService) RecordAddToCart(ctx context.Context, bundleID int64) error {
	return s.bundles.RecordAddToCart(bundleID)
}

// RecordPurchase applies a purchase: purchase counter, accumulated revenue,
// and the stock check-and-increment. The store performs the stock guard and
// the increment as one atomic statement, so this is the one place a purchase
// can flip a bundle's own availability to sold out — and concurrent
// purchases can never oversell.
func (s *AnalyticsService) RecordPurchase(ctx context.Context, slug string, units int, revenue decimal.Decimal) error {
	if units <= 0 {
		return utils.ValidationErrors{{Field: "units", Message: "must be positive"}}
	}
	if revenue.IsNegative() {
		return utils.ValidationErrors{{Field: "revenue", Message: "must not be negative"}}
	}
	agg, err := s.bundles.GetAggregateBySlug(slug)
	if err != nil {
		return err
	}
	err = s.bundles.RecordPurchase(agg.ID, units, revenue)
	if err == utils.ErrCapacityExceeded {
		log.Info().Int64("bundle_id", agg.ID).Int("units", units).Msg("purchase rejected: stock limit reached")
	}
	return err
}

// Breakdown returns the counters, rates, and price breakdown for one bundle.
// Rates are defined as zero when there are no views.
func (s *AnalyticsService) Breakdown(bundleID int64) (*models.AnalyticsBreakdown, *models.PriceBreakdown, error) {
	agg, err := s.bundles.GetAggregate(bundleID)
	if err != nil {
		return nil, nil, err
	}

	breakdown := &models.AnalyticsBreakdown{
		ViewCount:      agg.ViewCount,
		AddToCartCount: agg.AddToCartCount,
		PurchaseCount:  agg.PurchaseCount,
		Revenue:        agg.Revenue,
	}
	if agg.ViewCount > 0 {
		views := float64(agg.ViewCount)
		breakdown.ConversionRate = float64(agg.PurchaseCount) / views
		breakdown.AddToCartRate = float64(agg.AddToCartCount) / views
	}

	pricing, err := ComputePrice(agg, s.products)
	if err != nil {
		return nil, nil, err
	}
	return breakdown, &pricing, nil
}
