package utils

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Kitchen Starter Set", "kitchen-starter-set"},
		{"  Washer & Dryer Combo  ", "washer-dryer-combo"},
		{"50% Off!!", "50-off"},
		{"---", ""},
		{"Ünïcode Näme", "ünïcode-näme"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSuffixSlug(t *testing.T) {
	if got := SuffixSlug("kitchen-starter-set", 2); got != "kitchen-starter-set-2" {
		t.Errorf("SuffixSlug = %q", got)
	}
}

func TestGenerateSKU(t *testing.T) {
	sku := GenerateSKU("BND")
	if !strings.HasPrefix(sku, "BND-") || len(sku) != len("BND-")+8 {
		t.Errorf("unexpected SKU format: %q", sku)
	}
	if sku != strings.ToUpper(sku) {
		t.Errorf("SKU must be uppercase: %q", sku)
	}
	if GenerateSKU("BND") == sku {
		t.Error("consecutive SKUs should differ")
	}
}
