package service

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/elektromart/bundle_api/internal/models"
)

func TestComputePriceFixedBundle(t *testing.T) {
	catalog := catalogWith(product(1, "6000"), product(2, "2000"))

	agg := fixedBundle(
		models.BundleItem{ProductID: 1, Quantity: 1},
		models.BundleItem{ProductID: 2, Quantity: 2},
	)
	agg.DiscountType = models.DiscountPercentage
	agg.DiscountValue = dec("25")

	got, err := ComputePrice(agg, catalog)
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if !got.BasePrice.Equal(dec("10000")) {
		t.Errorf("base price = %s, want 10000", got.BasePrice)
	}
	if !got.FinalPrice.Equal(dec("7500")) {
		t.Errorf("final price = %s, want 7500", got.FinalPrice)
	}
	if !got.SavingsAmount.Equal(dec("2500")) {
		t.Errorf("savings = %s, want 2500", got.SavingsAmount)
	}
	if got.SavingsPercentage != 25 {
		t.Errorf("savings pct = %d, want 25", got.SavingsPercentage)
	}
	if len(got.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", got.Warnings)
	}
}

func TestComputePriceFixedPriceDiscount(t *testing.T) {
	catalog := catalogWith(product(1, "10000"))
	agg := fixedBundle(models.BundleItem{ProductID: 1, Quantity: 1})
	agg.DiscountType = models.DiscountFixedPrice

	tests := []struct {
		name        string
		bundlePrice string
		wantSavings string
		wantPct     int
	}{
		{"below base", "8000", "2000", 20},
		{"equal to base", "10000", "0", 0},
		// A configured price above the sum of components is reported as
		// negative savings rather than silently clamped.
		{"above base", "12000", "-2000", -20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg.DiscountValue = dec(tt.bundlePrice)
			got, err := ComputePrice(agg, catalog)
			if err != nil {
				t.Fatalf("ComputePrice: %v", err)
			}
			if !got.FinalPrice.Equal(dec(tt.bundlePrice)) {
				t.Errorf("final price = %s, want %s", got.FinalPrice, tt.bundlePrice)
			}
			if !got.SavingsAmount.Equal(dec(tt.wantSavings)) {
				t.Errorf("savings = %s, want %s", got.SavingsAmount, tt.wantSavings)
			}
			if got.SavingsPercentage != tt.wantPct {
				t.Errorf("savings pct = %d, want %d", got.SavingsPercentage, tt.wantPct)
			}
		})
	}
}

func TestComputePriceConfigurableDefaultSelection(t *testing.T) {
	catalog := catalogWith(
		product(1, "5000"), product(2, "3000"), // required slot: cheapest is 3000
		product(3, "9000"), // optional slot contributes nothing
	)

	agg := configurableBundle(
		models.BundleSlot{
			ID: 1, Name: "washer", IsRequired: true, MinSelections: 1, MaxSelections: 1,
			Products: slotProducts(1, 2),
		},
		models.BundleSlot{
			ID: 2, Name: "accessories", MaxSelections: 1,
			Products: slotProducts(3),
		},
	)
	agg.DiscountType = models.DiscountPercentage
	agg.DiscountValue = dec("10")

	got, err := ComputePrice(agg, catalog)
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if !got.BasePrice.Equal(dec("3000")) {
		t.Errorf("base price = %s, want 3000 (cheapest required product only)", got.BasePrice)
	}
	if !got.FinalPrice.Equal(dec("2700")) {
		t.Errorf("final price = %s, want 2700", got.FinalPrice)
	}
}

func TestComputePricePriceOverrideWins(t *testing.T) {
	catalog := catalogWith(product(1, "9999"))
	override := dec("100")

	agg := fixedBundle(models.BundleItem{ProductID: 1, Quantity: 2, PriceOverride: &override})
	got, err := ComputePrice(agg, catalog)
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if !got.BasePrice.Equal(dec("200")) {
		t.Errorf("base price = %s, want 200 (override x quantity)", got.BasePrice)
	}
}

func TestComputePriceStaleProductWarns(t *testing.T) {
	catalog := catalogWith(product(1, "4000")) // product 99 is gone

	agg := fixedBundle(
		models.BundleItem{ProductID: 1, Quantity: 1},
		models.BundleItem{ProductID: 99, Quantity: 1},
	)

	got, err := ComputePrice(agg, catalog)
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if !got.BasePrice.Equal(dec("4000")) {
		t.Errorf("base price = %s, want 4000 (stale product skipped)", got.BasePrice)
	}
	if len(got.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", got.Warnings)
	}
}

func TestComputePriceUnavailableProductWarns(t *testing.T) {
	discontinued := product(2, "3000")
	discontinued.IsAvailable = false
	catalog := catalogWith(product(1, "4000"), discontinued)

	agg := fixedBundle(
		models.BundleItem{ProductID: 1, Quantity: 1},
		models.BundleItem{ProductID: 2, Quantity: 1},
	)

	got, err := ComputePrice(agg, catalog)
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if !got.BasePrice.Equal(dec("4000")) {
		t.Errorf("base price = %s, want 4000 (unavailable product skipped)", got.BasePrice)
	}
	if len(got.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", got.Warnings)
	}
}

func TestComputePriceOverrideDoesNotReviveUnavailableProduct(t *testing.T) {
	discontinued := product(1, "900")
	discontinued.IsAvailable = false
	override := dec("500")

	agg := fixedBundle(models.BundleItem{ProductID: 1, Quantity: 1, PriceOverride: &override})

	got, err := ComputePrice(agg, catalogWith(discontinued))
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if !got.BasePrice.Equal(decimal.Zero) || len(got.Warnings) != 1 {
		t.Errorf("override must not price an unavailable product: base=%s warnings=%v",
			got.BasePrice, got.Warnings)
	}
}

func TestComputePriceZeroBase(t *testing.T) {
	agg := configurableBundle(models.BundleSlot{
		ID: 1, Name: "empty", IsRequired: true, MinSelections: 1, MaxSelections: 1,
	})
	agg.DiscountType = models.DiscountPercentage
	agg.DiscountValue = dec("50")

	got, err := ComputePrice(agg, catalogWith())
	if err != nil {
		t.Fatalf("ComputePrice: %v", err)
	}
	if !got.BasePrice.Equal(decimal.Zero) || got.SavingsPercentage != 0 {
		t.Errorf("zero base should yield zero pct, got base=%s pct=%d", got.BasePrice, got.SavingsPercentage)
	}
	if len(got.Warnings) == 0 {
		t.Error("expected a warning for the unpriceable required slot")
	}
}
