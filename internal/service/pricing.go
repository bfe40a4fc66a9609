package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/elektromart/bundle_api/internal/models"
)

// ProductLookup reads live catalog state for pricing and resolution. A nil
// product with a nil error means the product no longer exists in the catalog.
type ProductLookup interface {
	GetProduct(id int64) (*models.Product, error)
}

// ComputePrice derives a bundle's price breakdown from its components and
// discount configuration. For configurable bundles the base is the catalog
// display default: one unit of the lowest-priced eligible product in every
// required slot, with optional slots contributing nothing. Stale product
// references are flagged as warnings, never failures, so the bundle stays
// viewable. The computation is pure given the bundle and catalog state.
func ComputePrice(agg *models.BundleAggregate, lookup ProductLookup) (models.PriceBreakdown, error) {
	var (
		base     = decimal.Zero
		warnings []string
	)

	contents := agg.Contents()
	if items, ok := contents.FixedItems(); ok {
		for _, item := range items {
			unit, ok, err := componentPrice(item.ProductID, item.PriceOverride, lookup)
			if err != nil {
				return models.PriceBreakdown{}, err
			}
			if !ok {
				warnings = append(warnings, staleProductWarning(item.ProductID))
				continue
			}
			base = base.Add(unit.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	if slots, ok := contents.ConfigurableSlots(); ok {
		for _, slot := range slots {
			if !slot.IsRequired {
				continue
			}
			cheapest, found, slotWarnings, err := cheapestInSlot(slot, lookup)
			if err != nil {
				return models.PriceBreakdown{}, err
			}
			warnings = append(warnings, slotWarnings...)
			if !found {
				warnings = append(warnings, fmt.Sprintf("slot %q has no priceable product", slot.Name))
				continue
			}
			base = base.Add(cheapest)
		}
	}

	final, savings, pct := applyDiscount(base, agg.DiscountType, agg.DiscountValue)
	return models.PriceBreakdown{
		BasePrice:         base,
		FinalPrice:        final,
		SavingsAmount:     savings,
		SavingsPercentage: pct,
		Warnings:          warnings,
	}, nil
}

// applyDiscount derives the final price and savings from a base price.
// A fixed price above the base yields negative savings; clamping would
// silently misrepresent the configured price, so the overshoot is kept.
func applyDiscount(base decimal.Decimal, dt models.DiscountType, dv decimal.Decimal) (final, savings decimal.Decimal, pct int) {
	switch dt {
	case models.DiscountFixedPrice:
		final = dv
	case models.DiscountPercentage:
		final = base.Mul(percentCap.Sub(dv)).Div(percentCap)
	default:
		final = base
	}
	savings = base.Sub(final)
	if base.IsPositive() {
		pct = int(savings.Div(base).Mul(percentCap).Round(0).IntPart())
	}
	return final, savings, pct
}

// componentPrice resolves the unit price for one product reference: the
// override when set, otherwise the live catalog price. ok is false when the
// product is gone from the catalog or the catalog has marked it unavailable;
// an override never bypasses that check.
func componentPrice(productID int64, override *decimal.Decimal, lookup ProductLookup) (decimal.Decimal, bool, error) {
	p, err := lookup.GetProduct(productID)
	if err != nil {
		return decimal.Zero, false, err
	}
	if p == nil || !p.IsAvailable {
		return decimal.Zero, false, nil
	}
	if override != nil {
		return *override, true, nil
	}
	return p.Price, true, nil
}

// cheapestInSlot finds the lowest unit price among a slot's eligible products.
func cheapestInSlot(slot models.BundleSlot, lookup ProductLookup) (decimal.Decimal, bool, []string, error) {
	var (
		cheapest decimal.Decimal
		found    bool
		warnings []string
	)
	for _, sp := range slot.Products {
		unit, ok, err := componentPrice(sp.ProductID, sp.PriceOverride, lookup)
		if err != nil {
			return decimal.Zero, false, nil, err
		}
		if !ok {
			warnings = append(warnings, staleProductWarning(sp.ProductID))
			continue
		}
		if !found || unit.LessThan(cheapest) {
			cheapest = unit
			found = true
		}
	}
	return cheapest, found, warnings, nil
}

func staleProductWarning(productID int64) string {
	return fmt.Sprintf("product %d is not available in the catalog", productID)
}
