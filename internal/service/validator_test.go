package service

import (
	"strings"
	"testing"
	"time"

	"github.com/elektromart/bundle_api/internal/models"
)

func fixedBundle(items ...models.BundleItem) *models.BundleAggregate {
	return &models.BundleAggregate{
		Bundle: models.Bundle{
			BundleType:   models.BundleTypeFixed,
			DiscountType: models.DiscountPercentage,
			IsActive:     true,
		},
		Items: items,
	}
}

func configurableBundle(slots ...models.BundleSlot) *models.BundleAggregate {
	return &models.BundleAggregate{
		Bundle: models.Bundle{
			BundleType:   models.BundleTypeConfigurable,
			DiscountType: models.DiscountPercentage,
			IsActive:     true,
		},
		Slots: slots,
	}
}

func slotProducts(ids ...int64) []models.BundleSlotProduct {
	out := make([]models.BundleSlotProduct, len(ids))
	for i, id := range ids {
		out[i] = models.BundleSlotProduct{ProductID: id}
	}
	return out
}

func TestValidateBundleShapes(t *testing.T) {
	tests := []struct {
		name    string
		agg     *models.BundleAggregate
		wantErr []string
	}{
		{
			name: "valid fixed bundle",
			agg: fixedBundle(
				models.BundleItem{ProductID: 1, Quantity: 1},
				models.BundleItem{ProductID: 2, Quantity: 3},
			),
		},
		{
			name: "fixed bundle with slots",
			agg: func() *models.BundleAggregate {
				agg := fixedBundle(models.BundleItem{ProductID: 1, Quantity: 1})
				agg.Slots = []models.BundleSlot{{Name: "extras", MaxSelections: 1}}
				return agg
			}(),
			wantErr: []string{"must not have slots"},
		},
		{
			name:    "active fixed bundle with no items",
			agg:     fixedBundle(),
			wantErr: []string{"at least one item"},
		},
		{
			name: "inactive fixed bundle may be empty",
			agg: func() *models.BundleAggregate {
				agg := fixedBundle()
				agg.IsActive = false
				return agg
			}(),
		},
		{
			name: "duplicate product and zero quantity reported together",
			agg: fixedBundle(
				models.BundleItem{ProductID: 7, Quantity: 1},
				models.BundleItem{ProductID: 7, Quantity: 0},
			),
			wantErr: []string{"appears more than once", "positive quantity"},
		},
		{
			name: "configurable bundle with fixed items",
			agg: func() *models.BundleAggregate {
				agg := configurableBundle(models.BundleSlot{Name: "washer", MaxSelections: 1, Products: slotProducts(1)})
				agg.Items = []models.BundleItem{{ProductID: 1, Quantity: 1}}
				return agg
			}(),
			wantErr: []string{"must not have fixed items"},
		},
		{
			name: "slot min exceeds max",
			agg: configurableBundle(models.BundleSlot{
				Name: "washer", MinSelections: 3, MaxSelections: 1, Products: slotProducts(1, 2, 3),
			}),
			wantErr: []string{"must not exceed maximum"},
		},
		{
			name: "required slot with zero minimum",
			agg: configurableBundle(models.BundleSlot{
				Name: "dryer", IsRequired: true, MinSelections: 0, MaxSelections: 1, Products: slotProducts(1),
			}),
			wantErr: []string{"at least one selection"},
		},
		{
			name: "slot max exceeds product count",
			agg: configurableBundle(models.BundleSlot{
				Name: "hood", MaxSelections: 3, Products: slotProducts(1, 2),
			}),
			wantErr: []string{"exceeds the 2 products"},
		},
		{
			name: "duplicate product in slot",
			agg: configurableBundle(models.BundleSlot{
				Name: "oven", MaxSelections: 2, Products: slotProducts(5, 5, 6),
			}),
			wantErr: []string{"more than once in the slot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateBundle(tt.agg)
			if len(tt.wantErr) == 0 {
				if len(errs) != 0 {
					t.Fatalf("expected no violations, got %v", errs)
				}
				return
			}
			for _, want := range tt.wantErr {
				if !containsViolation(errs.Error(), want) {
					t.Errorf("expected violation containing %q, got %v", want, errs)
				}
			}
		})
	}
}

func TestValidateBundleDiscountAndWindow(t *testing.T) {
	starts := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	ends := starts.Add(-24 * time.Hour)
	negStock := -1

	agg := fixedBundle(models.BundleItem{ProductID: 1, Quantity: 1})
	agg.DiscountType = models.DiscountPercentage
	agg.DiscountValue = dec("150")
	agg.StartsAt = &starts
	agg.EndsAt = &ends
	agg.StockLimit = &negStock

	errs := ValidateBundle(agg)
	if len(errs) != 3 {
		t.Fatalf("expected 3 violations, got %d: %v", len(errs), errs)
	}
	for _, want := range []string{"exceed 100", "must not be after its end", "stock limit"} {
		if !containsViolation(errs.Error(), want) {
			t.Errorf("expected violation containing %q, got %v", want, errs)
		}
	}
}

func TestValidateBundleNegativeDiscount(t *testing.T) {
	agg := fixedBundle(models.BundleItem{ProductID: 1, Quantity: 1})
	agg.DiscountValue = dec("-5")

	errs := ValidateBundle(agg)
	if len(errs) != 1 || !containsViolation(errs.Error(), "must not be negative") {
		t.Fatalf("expected a negative discount violation, got %v", errs)
	}
}

func containsViolation(all, fragment string) bool {
	return strings.Contains(all, fragment)
}
