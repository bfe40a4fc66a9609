package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BundleType determines which child collection a bundle carries.
type BundleType string

const (
	BundleTypeFixed        BundleType = "fixed"
	BundleTypeConfigurable BundleType = "configurable"
)

// DiscountType enumerates the supported discount configurations.
type DiscountType string

const (
	DiscountFixedPrice DiscountType = "fixed_price"
	DiscountPercentage DiscountType = "percentage"
)

// CartDisplay controls how a resolved bundle is presented in the cart.
type CartDisplay string

const (
	CartDisplaySingleItem CartDisplay = "single_item"
	CartDisplayGrouped    CartDisplay = "grouped"
	CartDisplayIndividual CartDisplay = "individual"
)

// HomepagePosition places a homepage-visible bundle in a CMS section.
type HomepagePosition string

const (
	HomepageCarousel HomepagePosition = "carousel"
	HomepageGrid     HomepagePosition = "grid"
	HomepageBanner   HomepagePosition = "banner"
)

// AvailabilityStatus is the derived lifecycle state of a bundle.
type AvailabilityStatus string

const (
	StatusDraft     AvailabilityStatus = "draft"
	StatusScheduled AvailabilityStatus = "scheduled"
	StatusActive    AvailabilityStatus = "active"
	StatusExpired   AvailabilityStatus = "expired"
	StatusSoldOut   AvailabilityStatus = "sold_out"
)

// Bundle is the aggregate root row. Child collections are loaded separately
// into a BundleAggregate; the engine never lazy-loads them.
type Bundle struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Slug        string `db:"slug" json:"slug"`
	SKU         string `db:"sku" json:"sku"`
	Description string `db:"description" json:"description"`

	BundleType    BundleType      `db:"bundle_type" json:"bundleType"`
	DiscountType  DiscountType    `db:"discount_type" json:"discountType"`
	DiscountValue decimal.Decimal `db:"discount_value" json:"discountValue"`

	StartsAt   *time.Time `db:"starts_at" json:"startsAt,omitempty"`
	EndsAt     *time.Time `db:"ends_at" json:"endsAt,omitempty"`
	StockLimit *int       `db:"stock_limit" json:"stockLimit,omitempty"`
	StockSold  int        `db:"stock_sold" json:"stockSold"`
	IsActive   bool       `db:"is_active" json:"isActive"`

	CartDisplay         CartDisplay      `db:"cart_display" json:"cartDisplay"`
	AllowCouponStacking bool             `db:"allow_coupon_stacking" json:"allowCouponStacking"`
	ShowOnHomepage      bool             `db:"show_on_homepage" json:"showOnHomepage"`
	HomepagePosition    HomepagePosition `db:"homepage_position" json:"homepagePosition"`
	DisplayOrder        int              `db:"display_order" json:"displayOrder"`

	ViewCount      int             `db:"view_count" json:"viewCount"`
	AddToCartCount int             `db:"add_to_cart_count" json:"addToCartCount"`
	PurchaseCount  int             `db:"purchase_count" json:"purchaseCount"`
	Revenue        decimal.Decimal `db:"revenue" json:"revenue"`

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// BundleItem is a fixed component of a fixed-type bundle.
// A product appears at most once per bundle.
type BundleItem struct {
	ID            int64            `db:"id" json:"id"`
	BundleID      int64            `db:"bundle_id" json:"bundleId"`
	ProductID     int64            `db:"product_id" json:"productId"`
	Quantity      int              `db:"quantity" json:"quantity"`
	PriceOverride *decimal.Decimal `db:"price_override" json:"priceOverride,omitempty"`
	SortOrder     int              `db:"sort_order" json:"sortOrder"`
}

// BundleSlot is a named selection bucket of a configurable bundle.
type BundleSlot struct {
	ID            int64  `db:"id" json:"id"`
	BundleID      int64  `db:"bundle_id" json:"bundleId"`
	Name          string `db:"name" json:"name"`
	Description   string `db:"description" json:"description"`
	SlotOrder     int    `db:"slot_order" json:"slotOrder"`
	IsRequired    bool   `db:"is_required" json:"isRequired"`
	MinSelections int    `db:"min_selections" json:"minSelections"`
	MaxSelections int    `db:"max_selections" json:"maxSelections"`

	Products []BundleSlotProduct `db:"-" json:"products"`
}

// BundleSlotProduct is an eligible product within a slot.
// A product appears at most once per slot; it may appear in other slots.
type BundleSlotProduct struct {
	ID            int64            `db:"id" json:"id"`
	SlotID        int64            `db:"slot_id" json:"slotId"`
	ProductID     int64            `db:"product_id" json:"productId"`
	PriceOverride *decimal.Decimal `db:"price_override" json:"priceOverride,omitempty"`
}

// BundleImage is a presentation image attached to a bundle. When any image
// exists, exactly one carries is_primary.
type BundleImage struct {
	ID        int64  `db:"id" json:"id"`
	BundleID  int64  `db:"bundle_id" json:"bundleId"`
	URL       string `db:"url" json:"url"`
	IsPrimary bool   `db:"is_primary" json:"isPrimary"`
	SortOrder int    `db:"sort_order" json:"sortOrder"`
}

// BundleAggregate is a bundle with all children loaded as one consistent
// snapshot. Items is populated only for fixed bundles and Slots only for
// configurable ones; Contents() is the checked view of that exclusivity.
type BundleAggregate struct {
	Bundle
	Items  []BundleItem  `json:"items"`
	Slots  []BundleSlot  `json:"slots"`
	Images []BundleImage `json:"images"`
}

// BundleContents is the tagged view over a bundle's children. Consumers that
// price or resolve a bundle go through it rather than touching both
// collections, so fixed/configurable exclusivity is decided in one place.
type BundleContents struct {
	kind  BundleType
	items []BundleItem
	slots []BundleSlot
}

// Contents returns the typed view of the aggregate's children.
func (a *BundleAggregate) Contents() BundleContents {
	c := BundleContents{kind: a.BundleType}
	switch a.BundleType {
	case BundleTypeFixed:
		c.items = a.Items
	case BundleTypeConfigurable:
		c.slots = a.Slots
	}
	return c
}

// Kind reports whether the contents are fixed or configurable.
func (c BundleContents) Kind() BundleType { return c.kind }

// FixedItems returns the item list and true for fixed bundles.
func (c BundleContents) FixedItems() ([]BundleItem, bool) {
	return c.items, c.kind == BundleTypeFixed
}

// ConfigurableSlots returns the slot list and true for configurable bundles.
func (c BundleContents) ConfigurableSlots() ([]BundleSlot, bool) {
	return c.slots, c.kind == BundleTypeConfigurable
}

// PriceBreakdown is the derived pricing of a bundle.
type PriceBreakdown struct {
	BasePrice         decimal.Decimal `json:"basePrice"`
	FinalPrice        decimal.Decimal `json:"finalPrice"`
	SavingsAmount     decimal.Decimal `json:"savingsAmount"`
	SavingsPercentage int             `json:"savingsPercentage"`
	// Warnings carries data-integrity notices such as stale product
	// references; they do not fail the computation.
	Warnings []string `json:"warnings,omitempty"`
}

// PricedLine is one priced component of a resolved bundle.
type PricedLine struct {
	ProductID int64           `json:"productId"`
	SlotID    *int64          `json:"slotId,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// ResolvedSelection is the Selection Resolver's successful output: the chosen
// priced lines plus the presentation policy and bundle-level pricing the cart
// needs downstream. Discount apportionment across lines is the cart's
// concern, not the resolver's.
type ResolvedSelection struct {
	BundleID    int64          `json:"bundleId"`
	CartDisplay CartDisplay    `json:"cartDisplay"`
	Lines       []PricedLine   `json:"lines"`
	Pricing     PriceBreakdown `json:"pricing"`
}

// AnalyticsBreakdown is the derived analytics view of one bundle.
type AnalyticsBreakdown struct {
	ViewCount      int             `json:"viewCount"`
	AddToCartCount int             `json:"addToCartCount"`
	PurchaseCount  int             `json:"purchaseCount"`
	Revenue        decimal.Decimal `json:"revenue"`
	ConversionRate float64         `json:"conversionRate"`
	AddToCartRate  float64         `json:"addToCartRate"`
}
