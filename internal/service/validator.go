package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/elektromart/bundle_api/internal/models"
	"github.com/elektromart/bundle_api/internal/utils"
)

var percentCap = decimal.NewFromInt(100)

// ValidateBundle checks a bundle aggregate against every structural rule and
// returns the complete list of violations, so an admin UI can show all
// problems in one round trip. It is a pure check with no side effects.
func ValidateBundle(agg *models.BundleAggregate) utils.ValidationErrors {
	var errs utils.ValidationErrors

	switch agg.BundleType {
	case models.BundleTypeFixed:
		errs = append(errs, validateFixedShape(agg)...)
	case models.BundleTypeConfigurable:
		errs = append(errs, validateConfigurableShape(agg)...)
	default:
		errs = append(errs, utils.FieldViolation{
			Field:   "bundleType",
			Message: fmt.Sprintf("unknown bundle type %q", agg.BundleType),
		})
	}

	// Discount configuration
	if agg.DiscountValue.IsNegative() {
		errs = append(errs, utils.FieldViolation{
			Field:   "discountValue",
			Message: "discount value must not be negative",
		})
	}
	if agg.DiscountType == models.DiscountPercentage && agg.DiscountValue.GreaterThan(percentCap) {
		errs = append(errs, utils.FieldViolation{
			Field:   "discountValue",
			Message: "percentage discount must not exceed 100",
		})
	}

	// Time window
	if agg.StartsAt != nil && agg.EndsAt != nil && agg.StartsAt.After(*agg.EndsAt) {
		errs = append(errs, utils.FieldViolation{
			Field:   "startsAt",
			Message: "start of availability window must not be after its end",
		})
	}
	if agg.StockLimit != nil && *agg.StockLimit < 0 {
		errs = append(errs, utils.FieldViolation{
			Field:   "stockLimit",
			Message: "stock limit must not be negative",
		})
	}

	return errs
}

func validateFixedShape(agg *models.BundleAggregate) utils.ValidationErrors {
	var errs utils.ValidationErrors

	if len(agg.Slots) > 0 {
		errs = append(errs, utils.FieldViolation{
			Field:   "slots",
			Message: "a fixed bundle must not have slots",
		})
	}
	// A draft may be authored empty; an active bundle must be sellable.
	if agg.IsActive && len(agg.Items) == 0 {
		errs = append(errs, utils.FieldViolation{
			Field:   "items",
			Message: "an active fixed bundle must contain at least one item",
		})
	}

	seen := make(map[int64]bool, len(agg.Items))
	for _, item := range agg.Items {
		if seen[item.ProductID] {
			errs = append(errs, utils.FieldViolation{
				Field:   "items",
				Message: fmt.Sprintf("product %d appears more than once", item.ProductID),
			})
		}
		seen[item.ProductID] = true
		if item.Quantity <= 0 {
			errs = append(errs, utils.FieldViolation{
				Field:   "items",
				Message: fmt.Sprintf("product %d must have a positive quantity", item.ProductID),
			})
		}
	}
	return errs
}

func validateConfigurableShape(agg *models.BundleAggregate) utils.ValidationErrors {
	var errs utils.ValidationErrors

	if len(agg.Items) > 0 {
		errs = append(errs, utils.FieldViolation{
			Field:   "items",
			Message: "a configurable bundle must not have fixed items",
		})
	}

	for _, slot := range agg.Slots {
		field := fmt.Sprintf("slots.%s", slot.Name)
		if slot.MinSelections < 0 {
			errs = append(errs, utils.FieldViolation{
				Field:   field,
				Message: "minimum selections must not be negative",
			})
		}
		if slot.MinSelections > slot.MaxSelections {
			errs = append(errs, utils.FieldViolation{
				Field:   field,
				Message: "minimum selections must not exceed maximum selections",
			})
		}
		// An empty slot is valid only transiently during authoring; once it
		// has products, the max must be satisfiable.
		if len(slot.Products) > 0 && slot.MaxSelections > len(slot.Products) {
			errs = append(errs, utils.FieldViolation{
				Field:   field,
				Message: fmt.Sprintf("maximum selections (%d) exceeds the %d products in the slot", slot.MaxSelections, len(slot.Products)),
			})
		}
		if slot.IsRequired && slot.MinSelections < 1 {
			errs = append(errs, utils.FieldViolation{
				Field:   field,
				Message: "a required slot must require at least one selection",
			})
		}

		seen := make(map[int64]bool, len(slot.Products))
		for _, p := range slot.Products {
			if seen[p.ProductID] {
				errs = append(errs, utils.FieldViolation{
					Field:   field,
					Message: fmt.Sprintf("product %d appears more than once in the slot", p.ProductID),
				})
			}
			seen[p.ProductID] = true
		}
	}
	return errs
}
