package service

import (
	"errors"
	"testing"

	"github.com/elektromart/bundle_api/internal/models"
	"github.com/elektromart/bundle_api/internal/utils"
)

func TestResolveSelectionFixedIgnoresSelections(t *testing.T) {
	catalog := catalogWith(product(1, "5000"), product(2, "1500"))

	agg := fixedBundle(
		models.BundleItem{ProductID: 1, Quantity: 1},
		models.BundleItem{ProductID: 2, Quantity: 2},
	)
	agg.ID = 42
	agg.CartDisplay = models.CartDisplayGrouped
	agg.DiscountType = models.DiscountPercentage
	agg.DiscountValue = dec("10")

	got, err := ResolveSelection(agg, map[int64][]int64{99: {1}}, catalog)
	if err != nil {
		t.Fatalf("ResolveSelection: %v", err)
	}
	if got.BundleID != 42 || got.CartDisplay != models.CartDisplayGrouped {
		t.Errorf("unexpected envelope: %+v", got)
	}
	if len(got.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got.Lines))
	}
	if !got.Pricing.BasePrice.Equal(dec("8000")) {
		t.Errorf("base = %s, want 8000", got.Pricing.BasePrice)
	}
	if !got.Pricing.FinalPrice.Equal(dec("7200")) {
		t.Errorf("final = %s, want 7200", got.Pricing.FinalPrice)
	}
}

func TestResolveSelectionConfigurable(t *testing.T) {
	catalog := catalogWith(product(1, "4000"), product(2, "6000"), product(3, "1000"))

	agg := configurableBundle(
		models.BundleSlot{
			ID: 10, Name: "washer", IsRequired: true, MinSelections: 1, MaxSelections: 1,
			Products: slotProducts(1, 2),
		},
		models.BundleSlot{
			ID: 11, Name: "accessories", MinSelections: 0, MaxSelections: 2,
			Products: slotProducts(3),
		},
	)
	agg.DiscountType = models.DiscountPercentage
	agg.DiscountValue = dec("50")

	got, err := ResolveSelection(agg, map[int64][]int64{10: {2}, 11: {3}}, catalog)
	if err != nil {
		t.Fatalf("ResolveSelection: %v", err)
	}
	if len(got.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got.Lines))
	}
	if got.Lines[0].SlotID == nil || *got.Lines[0].SlotID != 10 {
		t.Errorf("line 0 should carry slot 10, got %+v", got.Lines[0])
	}
	if !got.Pricing.BasePrice.Equal(dec("7000")) {
		t.Errorf("base = %s, want 7000", got.Pricing.BasePrice)
	}
	if !got.Pricing.FinalPrice.Equal(dec("3500")) {
		t.Errorf("final = %s, want 3500", got.Pricing.FinalPrice)
	}
}

func TestResolveSelectionViolations(t *testing.T) {
	catalog := catalogWith(product(1, "4000"), product(2, "6000"))

	agg := configurableBundle(
		models.BundleSlot{
			ID: 10, Name: "washer", IsRequired: true, MinSelections: 1, MaxSelections: 1,
			Products: slotProducts(1, 2),
		},
	)

	tests := []struct {
		name       string
		selections map[int64][]int64
		want       string
	}{
		{
			name:       "required slot with no selection names the slot",
			selections: map[int64][]int64{},
			want:       "slots.washer",
		},
		{
			name:       "unknown slot rejected",
			selections: map[int64][]int64{10: {1}, 77: {1}},
			want:       "does not belong",
		},
		{
			name:       "over maximum",
			selections: map[int64][]int64{10: {1, 2}},
			want:       "at most 1",
		},
		{
			name:       "duplicate product",
			selections: map[int64][]int64{10: {1, 1}},
			want:       "more than once",
		},
		{
			name:       "product not offered in slot",
			selections: map[int64][]int64{10: {5}},
			want:       "not offered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveSelection(agg, tt.selections, catalog)
			var selErr utils.SelectionError
			if !errors.As(err, &selErr) {
				t.Fatalf("expected SelectionError, got %v", err)
			}
			if !containsViolation(selErr.Error(), tt.want) {
				t.Errorf("expected violation containing %q, got %v", tt.want, selErr)
			}
		})
	}
}

func TestResolveSelectionCollectsAllViolations(t *testing.T) {
	catalog := catalogWith(product(1, "4000"))

	agg := configurableBundle(
		models.BundleSlot{
			ID: 10, Name: "washer", IsRequired: true, MinSelections: 1, MaxSelections: 1,
			Products: slotProducts(1),
		},
		models.BundleSlot{
			ID: 11, Name: "dryer", IsRequired: true, MinSelections: 1, MaxSelections: 1,
			Products: slotProducts(1),
		},
	)

	_, err := ResolveSelection(agg, map[int64][]int64{99: {1}}, catalog)
	var selErr utils.SelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected SelectionError, got %v", err)
	}
	// Unknown slot plus both unmet required slots.
	if len(selErr) != 3 {
		t.Errorf("expected 3 violations, got %d: %v", len(selErr), selErr)
	}
}

func TestResolveSelectionStaleProductFails(t *testing.T) {
	catalog := catalogWith() // product gone from catalog

	agg := fixedBundle(models.BundleItem{ProductID: 1, Quantity: 1})

	_, err := ResolveSelection(agg, nil, catalog)
	var selErr utils.SelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected SelectionError for stale product, got %v", err)
	}
	if !containsViolation(selErr.Error(), "no longer available") {
		t.Errorf("unexpected violation: %v", selErr)
	}
}

func TestResolveSelectionUnavailableProductFails(t *testing.T) {
	discontinued := product(7, "900")
	discontinued.IsAvailable = false
	catalog := catalogWith(discontinued)

	agg := configurableBundle(models.BundleSlot{
		ID: 10, Name: "washer", IsRequired: true, MinSelections: 1, MaxSelections: 1,
		Products: slotProducts(7),
	})

	_, err := ResolveSelection(agg, map[int64][]int64{10: {7}}, catalog)
	var selErr utils.SelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected SelectionError for unavailable product, got %v", err)
	}
	if !containsViolation(selErr.Error(), "no longer available") {
		t.Errorf("unexpected violation: %v", selErr)
	}
}

func TestResolveSelectionFixedUnavailableProductFails(t *testing.T) {
	discontinued := product(3, "2000")
	discontinued.IsAvailable = false
	catalog := catalogWith(product(1, "5000"), discontinued)

	agg := fixedBundle(
		models.BundleItem{ProductID: 1, Quantity: 1},
		models.BundleItem{ProductID: 3, Quantity: 1},
	)

	_, err := ResolveSelection(agg, nil, catalog)
	var selErr utils.SelectionError
	if !errors.As(err, &selErr) {
		t.Fatalf("expected SelectionError, got %v", err)
	}
	if !containsViolation(selErr.Error(), "product 3") {
		t.Errorf("violation should name product 3, got %v", selErr)
	}
}
