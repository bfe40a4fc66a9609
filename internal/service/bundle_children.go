package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/elektromart/bundle_api/internal/models"
	"github.com/elektromart/bundle_api/internal/utils"
)

// Item and slot sub-resource operations. Each checks the parent bundle's
// shape first: items belong to fixed bundles, slots to configurable ones.

// ItemInput is the payload for adding or updating one fixed item.
type ItemInput struct {
	ProductID     int64            `json:"productId" binding:"required"`
	Quantity      int              `json:"quantity" binding:"required"`
	PriceOverride *decimal.Decimal `json:"priceOverride"`
	SortOrder     int              `json:"sortOrder"`
}

// AddItem appends an item to a fixed bundle. A product already present in
// the bundle is rejected as a conflict, never merged.
func (s *BundleService) AddItem(ctx context.Context, bundleID int64, in *ItemInput) (*models.BundleItem, error) {
	if err := s.requireType(bundleID, models.BundleTypeFixed, "items"); err != nil {
		return nil, err
	}
	if in.Quantity <= 0 {
		return nil, utils.ValidationErrors{{Field: "quantity", Message: "must be positive"}}
	}

	item := &models.BundleItem{
		BundleID:      bundleID,
		ProductID:     in.ProductID,
		Quantity:      in.Quantity,
		PriceOverride: in.PriceOverride,
		SortOrder:     in.SortOrder,
	}
	if err := s.items.Add(item); err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return item, nil
}

// UpdateItem changes an item's quantity, override, or ordering. The product
// reference itself is immutable; replacing a product is a remove plus add.
func (s *BundleService) UpdateItem(ctx context.Context, bundleID, itemID int64, in *ItemInput) (*models.BundleItem, error) {
	if in.Quantity <= 0 {
		return nil, utils.ValidationErrors{{Field: "quantity", Message: "must be positive"}}
	}
	item, err := s.items.GetByID(itemID, bundleID)
	if err != nil {
		return nil, err
	}
	item.Quantity = in.Quantity
	item.PriceOverride = in.PriceOverride
	item.SortOrder = in.SortOrder
	if err := s.items.Update(item); err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return item, nil
}

// RemoveItem deletes an item from its bundle.
func (s *BundleService) RemoveItem(ctx context.Context, bundleID, itemID int64) error {
	if err := s.items.Delete(itemID, bundleID); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// AddSlot appends a slot (with its product set) to a configurable bundle.
func (s *BundleService) AddSlot(ctx context.Context, bundleID int64, in *BundleSlotInput) (*models.BundleSlot, error) {
	if err := s.requireType(bundleID, models.BundleTypeConfigurable, "slots"); err != nil {
		return nil, err
	}

	slot := slotFromInput(bundleID, in)
	if errs := validateSlot(slot); len(errs) > 0 {
		return nil, errs
	}
	if err := s.slots.Create(slot); err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return slot, nil
}

// UpdateSlot rewrites a slot and replaces its product set with the payload's.
func (s *BundleService) UpdateSlot(ctx context.Context, bundleID, slotID int64, in *BundleSlotInput) (*models.BundleSlot, error) {
	if _, err := s.slots.GetByID(slotID, bundleID); err != nil {
		return nil, err
	}

	slot := slotFromInput(bundleID, in)
	slot.ID = slotID
	if errs := validateSlot(slot); len(errs) > 0 {
		return nil, errs
	}
	if err := s.slots.Update(slot); err != nil {
		return nil, err
	}
	s.cache.Invalidate()
	return slot, nil
}

// RemoveSlot deletes a slot and its product set.
func (s *BundleService) RemoveSlot(ctx context.Context, bundleID, slotID int64) error {
	if err := s.slots.Delete(slotID, bundleID); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// requireType loads the parent and checks it carries the expected shape.
func (s *BundleService) requireType(bundleID int64, want models.BundleType, field string) error {
	b, err := s.bundles.GetBundleRow(bundleID)
	if err != nil {
		return err
	}
	if b.BundleType != want {
		return utils.ValidationErrors{{
			Field:   field,
			Message: fmt.Sprintf("bundle is %s, not %s", b.BundleType, want),
		}}
	}
	return nil
}

func slotFromInput(bundleID int64, in *BundleSlotInput) *models.BundleSlot {
	slot := &models.BundleSlot{
		BundleID:      bundleID,
		Name:          in.Name,
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
	return slot
}

// validateSlot applies the slot rules to a standalone slot payload, reusing
// the aggregate validator's configurable-shape checks.
func validateSlot(slot *models.BundleSlot) utils.ValidationErrors {
	probe := &models.BundleAggregate{
		Bundle: models.Bundle{BundleType: models.BundleTypeConfigurable},
		Slots:  []models.BundleSlot{*slot},
	}
	return validateConfigurableShape(probe)
}
