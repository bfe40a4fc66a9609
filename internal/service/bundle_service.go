package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/elektromart/bundle_api/internal/models"
	"github.com/elektromart/bundle_api/internal/repository"
	"github.com/elektromart/bundle_api/internal/sse"
	"github.com/elektromart/bundle_api/internal/utils"
)

// autoSKUPrefix marks SKUs the engine generated itself; duplication issues a
// fresh SKU for these instead of suffixing.
const autoSKUPrefix = "BND"

// BundleStore is the persistence surface of the bundle aggregate. The
// concrete implementation is repository.BundleRepository; tests substitute an
// in-memory double.
type BundleStore interface {
	List(filter *repository.BundleFilter) ([]models.Bundle, int, error)
	GetAggregate(id int64) (*models.BundleAggregate, error)
	GetAggregateBySlug(slug string) (*models.BundleAggregate, error)
	GetBundleRow(id int64) (*models.Bundle, error)
	Create(agg *models.BundleAggregate) error
	Update(agg *models.BundleAggregate) error
	SoftDelete(id int64) error
	ToggleActive(id int64) (bool, error)
	BulkSetActive(ids []int64, active bool) (int64, error)
	BulkSoftDelete(ids []int64) (int64, error)
	CountSlugCollisions(base string) (int, error)
	SKUExists(sku string) (bool, error)
	RecordView(id int64) error
	RecordAddToCart(id int64) error
	RecordPurchase(id int64, units int, revenue decimal.Decimal) error
}

// ItemStore is the persistence surface of the item sub-resource.
type ItemStore interface {
	GetByID(id, bundleID int64) (*models.BundleItem, error)
	Add(item *models.BundleItem) error
	Update(item *models.BundleItem) error
	Delete(id, bundleID int64) error
}

// SlotStore is the persistence surface of the slot sub-resource.
type SlotStore interface {
	GetByID(id, bundleID int64) (*models.BundleSlot, error)
	Create(slot *models.BundleSlot) error
	Update(slot *models.BundleSlot) error
	Delete(id, bundleID int64) error
}

// CacheInvalidator drops storefront bundle caches after a mutation. It must
// never block or fail the mutating operation.
type CacheInvalidator interface {
	Invalidate()
}

// BundleService orchestrates bundle CRUD, lifecycle actions, and the
// storefront read/resolve paths. All derived fields (pricing, availability)
// are computed on read; the service persists only configured state.
type BundleService struct {
	bundles  BundleStore
	items    ItemStore
	slots    SlotStore
	products ProductLookup
	cache    CacheInvalidator
	notifier sse.BundleNotifier
}

// NewBundleService creates a new BundleService.
func NewBundleService(bundles BundleStore, items ItemStore, slots SlotStore, products ProductLookup, cache CacheInvalidator, notifier sse.BundleNotifier) *BundleService {
	if notifier == nil {
		notifier = &sse.NopNotifier{}
	}
	return &BundleService{bundles: bundles, items: items, slots: slots, products: products, cache: cache, notifier: notifier}
}

// --- Request/response shapes ---

// BundleItemInput is one fixed item in a save payload.
type BundleItemInput struct {
	ProductID     int64            `json:"productId" binding:"required"`
	Quantity      int              `json:"quantity" binding:"required"`
	PriceOverride *decimal.Decimal `json:"priceOverride"`
	SortOrder     int              `json:"sortOrder"`
}

// SlotProductInput is one eligible product in a slot payload.
type SlotProductInput struct {
	ProductID     int64            `json:"productId" binding:"required"`
	PriceOverride *decimal.Decimal `json:"priceOverride"`
}

// BundleSlotInput is one slot in a save payload. Products is the complete
// set: updating a slot replaces its product list.
type BundleSlotInput struct {
	Name          string             `json:"name" binding:"required"`
	Description   string             `json:"description"`
	SlotOrder     int                `json:"slotOrder"`
	IsRequired    bool               `json:"isRequired"`
	MinSelections int                `json:"minSelections"`
	MaxSelections int                `json:"maxSelections"`
	Products      []SlotProductInput `json:"products"`
}

// SaveBundleRequest is the full validated payload for create and update.
type SaveBundleRequest struct {
	Name                string                  `json:"name" binding:"required"`
	SKU                 string                  `json:"sku"`
	Description         string                  `json:"description"`
	BundleType          models.BundleType       `json:"bundleType" binding:"required"`
	DiscountType        models.DiscountType     `json:"discountType" binding:"required"`
	DiscountValue       decimal.Decimal         `json:"discountValue"`
	StartsAt            *time.Time              `json:"startsAt"`
	EndsAt              *time.Time              `json:"endsAt"`
	StockLimit          *int                    `json:"stockLimit"`
	IsActive            bool                    `json:"isActive"`
	CartDisplay         models.CartDisplay      `json:"cartDisplay"`
	AllowCouponStacking bool                    `json:"allowCouponStacking"`
	ShowOnHomepage      bool                    `json:"showOnHomepage"`
	HomepagePosition    models.HomepagePosition `json:"homepagePosition"`
	DisplayOrder        int                     `json:"displayOrder"`
	Items               []BundleItemInput       `json:"items"`
	Slots               []BundleSlotInput       `json:"slots"`
}

// BundleView is an aggregate enriched with its derived read-time fields.
type BundleView struct {
	models.BundleAggregate
	Pricing models.PriceBreakdown     `json:"pricing"`
	Status  models.AvailabilityStatus `json:"status"`
}

// --- CRUD ---

// CreateBundle validates and persists a new bundle aggregate.
func (s *BundleService) CreateBundle(ctx context.Context, req *SaveBundleRequest) (*BundleView, error) {
	agg := aggregateFromRequest(req)

	if errs := ValidateBundle(agg); len(errs) > 0 {
		return nil, errs
	}

	slug, err := s.uniqueSlug(utils.Slugify(req.Name))
	if err != nil {
		return nil, err
	}
	agg.Slug = slug

	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		if sku, err = s.freshSKU(); err != nil {
			return nil, err
		}
	}
	agg.SKU = sku

	if err := s.bundles.Create(agg); err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	s.notifier.NotifyBundleSaved(&agg.Bundle)
	log.Info().Int64("bundle_id", agg.ID).Str("slug", agg.Slug).Msg("bundle created")

	return s.view(agg)
}

// UpdateBundle validates and persists a full aggregate replacement. Analytics
// counters, stock_sold, and images are never touched by an update payload.
func (s *BundleService) UpdateBundle(ctx context.Context, id int64, req *SaveBundleRequest) (*BundleView, error) {
	existing, err := s.bundles.GetAggregate(id)
	if err != nil {
		return nil, err
	}

	agg := aggregateFromRequest(req)
	agg.ID = id
	agg.Slug = existing.Slug
	agg.StockSold = existing.StockSold
	agg.ViewCount = existing.ViewCount
	agg.AddToCartCount = existing.AddToCartCount
	agg.PurchaseCount = existing.PurchaseCount
	agg.Revenue = existing.Revenue
	agg.CreatedAt = existing.CreatedAt

	if errs := ValidateBundle(agg); len(errs) > 0 {
		return nil, errs
	}

	// Renaming re-derives the slug; a rename that slugifies to the same
	// value keeps the public URL stable.
	if newSlug := utils.Slugify(req.Name); newSlug != existing.Slug {
		slug, err := s.uniqueSlug(newSlug)
		if err != nil {
			return nil, err
		}
		agg.Slug = slug
	}

	agg.SKU = strings.TrimSpace(req.SKU)
	if agg.SKU == "" {
		agg.SKU = existing.SKU
	}

	if err := s.bundles.Update(agg); err != nil {
		return nil, err
	}
	agg.Images = existing.Images
	s.cache.Invalidate()
	s.notifier.NotifyBundleSaved(&agg.Bundle)

	return s.view(agg)
}

// GetBundle returns one bundle with children and derived fields.
func (s *BundleService) GetBundle(id int64) (*BundleView, error) {
	agg, err := s.bundles.GetAggregate(id)
	if err != nil {
		return nil, err
	}
	return s.view(agg)
}

// ListBundles returns bundles matching the admin filter.
func (s *BundleService) ListBundles(filter *repository.BundleFilter) ([]models.Bundle, int, error) {
	return s.bundles.List(filter)
}

// DeleteBundle soft-deletes a bundle.
func (s *BundleService) DeleteBundle(ctx context.Context, id int64) error {
	if err := s.bundles.SoftDelete(id); err != nil {
		return err
	}
	s.cache.Invalidate()
	s.notifier.NotifyBundleDeleted(id)
	return nil
}

// ToggleActive flips the active flag and returns the new value.
func (s *BundleService) ToggleActive(ctx context.Context, id int64) (bool, error) {
	active, err := s.bundles.ToggleActive(id)
	if err != nil {
		return false, err
	}
	s.cache.Invalidate()
	s.notifier.NotifyBundleSaved(&models.Bundle{ID: id, IsActive: active})
	return active, nil
}

// BulkAction applies activate/deactivate/delete to a set of bundles and
// returns the number affected.
func (s *BundleService) BulkAction(ctx context.Context, action string, ids []int64) (int64, error) {
	var (
		n   int64
		err error
	)
	switch action {
	case "activate":
		n, err = s.bundles.BulkSetActive(ids, true)
	case "deactivate":
		n, err = s.bundles.BulkSetActive(ids, false)
	case "delete":
		n, err = s.bundles.BulkSoftDelete(ids)
	default:
		return 0, utils.ValidationErrors{{Field: "action", Message: "must be activate, deactivate, or delete"}}
	}
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate()
	for _, id := range ids {
		if action == "delete" {
			s.notifier.NotifyBundleDeleted(id)
		} else {
			s.notifier.NotifyBundleSaved(&models.Bundle{ID: id, IsActive: action == "activate"})
		}
	}
	return n, nil
}

// DuplicateBundle deep-clones a bundle and all children into a new,
// independent aggregate. Analytics counters and stock reset to zero; the
// active flag is copied as-is, leaving deactivation of the clone to the
// caller's policy. The insert is one transaction: the full graph or nothing.
func (s *BundleService) DuplicateBundle(ctx context.Context, id int64) (*BundleView, error) {
	src, err := s.bundles.GetAggregate(id)
	if err != nil {
		return nil, err
	}

	clone := *src
	clone.ID = 0
	clone.StockSold = 0
	clone.ViewCount = 0
	clone.AddToCartCount = 0
	clone.PurchaseCount = 0
	clone.Revenue = decimal.Zero

	clone.Items = make([]models.BundleItem, len(src.Items))
	for i, item := range src.Items {
		item.ID = 0
		item.BundleID = 0
		clone.Items[i] = item
	}
	clone.Slots = make([]models.BundleSlot, len(src.Slots))
	for i, slot := range src.Slots {
		slot.ID = 0
		slot.BundleID = 0
		products := make([]models.BundleSlotProduct, len(slot.Products))
		for j, p := range slot.Products {
			p.ID = 0
			p.SlotID = 0
			products[j] = p
		}
		slot.Products = products
		clone.Slots[i] = slot
	}
	clone.Images = make([]models.BundleImage, len(src.Images))
	for i, img := range src.Images {
		img.ID = 0
		img.BundleID = 0
		clone.Images[i] = img
	}

	// Slug: original plus a suffix counting existing collisions.
	n, err := s.bundles.CountSlugCollisions(src.Slug)
	if err != nil {
		return nil, err
	}
	clone.Slug = utils.SuffixSlug(src.Slug, n)

	if strings.HasPrefix(src.SKU, autoSKUPrefix+"-") {
		if clone.SKU, err = s.freshSKU(); err != nil {
			return nil, err
		}
	} else {
		clone.SKU, err = s.suffixedSKU(src.SKU)
		if err != nil {
			return nil, err
		}
	}

	if err := s.bundles.Create(&clone); err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	s.notifier.NotifyBundleSaved(&clone.Bundle)
	log.Info().Int64("source_id", src.ID).Int64("bundle_id", clone.ID).Msg("bundle duplicated")

	return s.view(&clone)
}

// --- Storefront paths ---

// GetStorefrontBundle returns one available bundle by slug and records the
// view.
func (s *BundleService) GetStorefrontBundle(slug string) (*BundleView, error) {
	agg, err := s.bundles.GetAggregateBySlug(slug)
	if err != nil {
		return nil, err
	}
	if err := s.bundles.RecordView(agg.ID); err != nil {
		log.Warn().Err(err).Int64("bundle_id", agg.ID).Msg("view count update failed")
	}
	return s.view(agg)
}

// ResolveForCart validates a customer selection against an available bundle
// and returns priced lines. Only Active bundles may be added to cart; a
// successful resolution records the add-to-cart event.
func (s *BundleService) ResolveForCart(ctx context.Context, slug string, selections map[int64][]int64) (*models.ResolvedSelection, error) {
	agg, err := s.bundles.GetAggregateBySlug(slug)
	if err != nil {
		return nil, err
	}
	if status := Availability(&agg.Bundle, time.Now()); status != models.StatusActive {
		return nil, utils.ErrBundleInactive
	}

	resolved, err := ResolveSelection(agg, selections, s.products)
	if err != nil {
		return nil, err
	}
	if err := s.bundles.RecordAddToCart(agg.ID); err != nil {
		log.Warn().Err(err).Int64("bundle_id", agg.ID).Msg("add-to-cart count update failed")
	}
	return resolved, nil
}

// --- helpers ---

func (s *BundleService) view(agg *models.BundleAggregate) (*BundleView, error) {
	pricing, err := ComputePrice(agg, s.products)
	if err != nil {
		return nil, err
	}
	return &BundleView{
		BundleAggregate: *agg,
		Pricing:         pricing,
		Status:          Availability(&agg.Bundle, time.Now()),
	}, nil
}

// uniqueSlug resolves collisions by appending the count of existing variants.
func (s *BundleService) uniqueSlug(base string) (string, error) {
	n, err := s.bundles.CountSlugCollisions(base)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return base, nil
	}
	return utils.SuffixSlug(base, n), nil
}

// freshSKU generates SKUs until one is unused. Collisions on 8 random hex
// chars are rare; the retry bound keeps a broken RNG from looping forever.
func (s *BundleService) freshSKU() (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		sku := utils.GenerateSKU(autoSKUPrefix)
		exists, err := s.bundles.SKUExists(sku)
		if err != nil {
			return "", err
		}
		if !exists {
			return sku, nil
		}
	}
	return "", &utils.ConflictError{Resource: "bundle", Detail: "could not allocate a unique sku"}
}

// suffixedSKU appends an increasing numeric suffix to an admin-chosen SKU.
func (s *BundleService) suffixedSKU(base string) (string, error) {
	for n := 1; n <= 100; n++ {
		candidate := utils.SuffixSlug(base, n)
		exists, err := s.bundles.SKUExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", &utils.ConflictError{Resource: "bundle", Detail: "could not allocate a unique sku"}
}

func aggregateFromRequest(req *SaveBundleRequest) *models.BundleAggregate {
	agg := &models.BundleAggregate{
		Bundle: models.Bundle{
			Name:                strings.TrimSpace(req.Name),
			SKU:                 strings.TrimSpace(req.SKU),
			Description:         req.Description,
			BundleType:          req.BundleType,
			DiscountType:        req.DiscountType,
			DiscountValue:       req.DiscountValue,
			StartsAt:            req.StartsAt,
			EndsAt:              req.EndsAt,
			StockLimit:          req.StockLimit,
			IsActive:            req.IsActive,
			CartDisplay:         req.CartDisplay,
			AllowCouponStacking: req.AllowCouponStacking,
			ShowOnHomepage:      req.ShowOnHomepage,
			HomepagePosition:    req.HomepagePosition,
			DisplayOrder:        req.DisplayOrder,
			Revenue:             decimal.Zero,
		},
	}
	if agg.CartDisplay == "" {
		agg.CartDisplay = models.CartDisplaySingleItem
	}
	if agg.HomepagePosition == "" {
		agg.HomepagePosition = models.HomepageGrid
	}

	for _, in := range req.Items {
		agg.Items = append(agg.Items, models.BundleItem{
			ProductID:     in.ProductID,
			Quantity:      in.Quantity,
			PriceOverride: in.PriceOverride,
			SortOrder:     in.SortOrder,
		})
	}
	for _, in := range req.Slots {
		slot := models.BundleSlot{
			Name:          strings.TrimSpace(in.Name),
			Description:   in.Description,
			SlotOrder:     in.SlotOrder,
			IsRequired:    in.IsRequired,
			MinSelections: in.MinSelections,
			MaxSelections: in.MaxSelections,
		}
		for _, p := range in.Products {
			slot.Products = append(slot.Products, models.BundleSlotProduct{
				ProductID:     p.ProductID,
				PriceOverride: p.PriceOverride,
			})
		}
		agg.Slots = append(agg.Slots, slot)
	}
	return agg
}
