package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/elektromart/bundle_api/internal/models"
	"github.com/elektromart/bundle_api/internal/utils"
)

// ResolveSelection validates a customer's per-slot product choices against
// the bundle's constraints and produces priced line items. For fixed bundles
// the selection map is ignored: the lines are the configured items. Every
// violated slot constraint is reported, not just the first.
//
// The resolver supplies unit prices and chosen products only; apportioning
// the bundle discount across lines is the cart's presentation concern.
func ResolveSelection(agg *models.BundleAggregate, selections map[int64][]int64, lookup ProductLookup) (*models.ResolvedSelection, error) {
	var lines []models.PricedLine

	contents := agg.Contents()
	if items, ok := contents.FixedItems(); ok {
		fixedLines, err := resolveFixed(items, lookup)
		if err != nil {
			return nil, err
		}
		lines = fixedLines
	}
	if slots, ok := contents.ConfigurableSlots(); ok {
		slotLines, err := resolveConfigurable(slots, selections, lookup)
		if err != nil {
			return nil, err
		}
		lines = slotLines
	}

	base := decimal.Zero
	for _, l := range lines {
		base = base.Add(l.Subtotal)
	}
	final, savings, pct := applyDiscount(base, agg.DiscountType, agg.DiscountValue)

	return &models.ResolvedSelection{
		BundleID:    agg.ID,
		CartDisplay: agg.CartDisplay,
		Lines:       lines,
		Pricing: models.PriceBreakdown{
			BasePrice:         base,
			FinalPrice:        final,
			SavingsAmount:     savings,
			SavingsPercentage: pct,
		},
	}, nil
}

func resolveFixed(items []models.BundleItem, lookup ProductLookup) ([]models.PricedLine, error) {
	var (
		lines  []models.PricedLine
		selErr utils.SelectionError
	)
	for _, item := range items {
		unit, ok, err := componentPrice(item.ProductID, item.PriceOverride, lookup)
		if err != nil {
			return nil, err
		}
		if !ok {
			selErr = append(selErr, utils.FieldViolation{
				Field:   "items",
				Message: fmt.Sprintf("product %d is no longer available", item.ProductID),
			})
			continue
		}
		lines = append(lines, models.PricedLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: unit,
			Subtotal:  unit.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	if len(selErr) > 0 {
		return nil, selErr
	}
	return lines, nil
}

func resolveConfigurable(slots []models.BundleSlot, selections map[int64][]int64, lookup ProductLookup) ([]models.PricedLine, error) {
	var (
		lines  []models.PricedLine
		selErr utils.SelectionError
	)

	known := make(map[int64]bool, len(slots))
	for _, slot := range slots {
		known[slot.ID] = true
	}
	for slotID := range selections {
		if !known[slotID] {
			selErr = append(selErr, utils.FieldViolation{
				Field:   fmt.Sprintf("slots.%d", slotID),
				Message: "slot does not belong to this bundle",
			})
		}
	}

	for _, slot := range slots {
		chosen := selections[slot.ID]
		field := fmt.Sprintf("slots.%s", slot.Name)

		if slot.IsRequired && len(chosen) < slot.MinSelections {
			selErr = append(selErr, utils.FieldViolation{
				Field:   field,
				Message: fmt.Sprintf("requires at least %d selection(s), got %d", slot.MinSelections, len(chosen)),
			})
		}
		if len(chosen) > slot.MaxSelections {
			selErr = append(selErr, utils.FieldViolation{
				Field:   field,
				Message: fmt.Sprintf("allows at most %d selection(s), got %d", slot.MaxSelections, len(chosen)),
			})
		}

		eligible := make(map[int64]*decimal.Decimal, len(slot.Products))
		for _, sp := range slot.Products {
			eligible[sp.ProductID] = sp.PriceOverride
		}

		seen := make(map[int64]bool, len(chosen))
		for _, productID := range chosen {
			if seen[productID] {
				selErr = append(selErr, utils.FieldViolation{
					Field:   field,
					Message: fmt.Sprintf("product %d selected more than once", productID),
				})
				continue
			}
			seen[productID] = true

			override, ok := eligible[productID]
			if !ok {
				selErr = append(selErr, utils.FieldViolation{
					Field:   field,
					Message: fmt.Sprintf("product %d is not offered in this slot", productID),
				})
				continue
			}
			unit, priced, err := componentPrice(productID, override, lookup)
			if err != nil {
				return nil, err
			}
			if !priced {
				selErr = append(selErr, utils.FieldViolation{
					Field:   field,
					Message: fmt.Sprintf("product %d is no longer available", productID),
				})
				continue
			}
			slotID := slot.ID
			lines = append(lines, models.PricedLine{
				ProductID: productID,
				SlotID:    &slotID,
				Quantity:  1,
				UnitPrice: unit,
				Subtotal:  unit,
			})
		}
	}

	if len(selErr) > 0 {
		return nil, selErr
	}
	return lines, nil
}
