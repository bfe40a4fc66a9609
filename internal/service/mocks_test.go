package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/elektromart/bundle_api/internal/models"
	"github.com/elektromart/bundle_api/internal/repository"
	"github.com/elektromart/bundle_api/internal/utils"
)

// memBundleStore is an in-memory BundleStore for service tests. The mutex
// mirrors the atomicity of the real store's conditional updates, so
// concurrency tests exercise the same guarantees.
type memBundleStore struct {
	mu      sync.Mutex
	nextID  int64
	bundles map[int64]*models.BundleAggregate
}

func newMemBundleStore() *memBundleStore {
	return &memBundleStore{bundles: make(map[int64]*models.BundleAggregate)}
}

func (m *memBundleStore) List(filter *repository.BundleFilter) ([]models.Bundle, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Bundle
	for _, agg := range m.bundles {
		out = append(out, agg.Bundle)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memBundleStore) GetAggregate(id int64) (*models.BundleAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg, ok := m.bundles[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *agg
	return &cp, nil
}

func (m *memBundleStore) GetAggregateBySlug(slug string) (*models.BundleAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, agg := range m.bundles {
		if agg.Slug == slug {
			cp := *agg
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (m *memBundleStore) GetBundleRow(id int64) (*models.Bundle, error) {
	agg, err := m.GetAggregate(id)
	if err != nil {
		return nil, err
	}
	return &agg.Bundle, nil
}

func (m *memBundleStore) Create(agg *models.BundleAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	agg.ID = m.nextID
	for i := range agg.Items {
		agg.Items[i].BundleID = agg.ID
	}
	for i := range agg.Slots {
		m.nextID++
		agg.Slots[i].ID = m.nextID
		agg.Slots[i].BundleID = agg.ID
	}
	for i := range agg.Images {
		agg.Images[i].BundleID = agg.ID
	}
	cp := *agg
	m.bundles[agg.ID] = &cp
	return nil
}

func (m *memBundleStore) Update(agg *models.BundleAggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bundles[agg.ID]; !ok {
		return utils.ErrNotFound
	}
	cp := *agg
	m.bundles[agg.ID] = &cp
	return nil
}

func (m *memBundleStore) SoftDelete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bundles[id]; !ok {
		return utils.ErrNotFound
	}
	delete(m.bundles, id)
	return nil
}

func (m *memBundleStore) ToggleActive(id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg, ok := m.bundles[id]
	if !ok {
		return false, utils.ErrNotFound
	}
	agg.IsActive = !agg.IsActive
	return agg.IsActive, nil
}

func (m *memBundleStore) BulkSetActive(ids []int64, active bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if agg, ok := m.bundles[id]; ok {
			agg.IsActive = active
			n++
		}
	}
	return n, nil
}

func (m *memBundleStore) BulkSoftDelete(ids []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.bundles[id]; ok {
			delete(m.bundles, id)
			n++
		}
	}
	return n, nil
}

func (m *memBundleStore) CountSlugCollisions(base string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, agg := range m.bundles {
		if agg.Slug == base || hasNumericSuffix(agg.Slug, base) {
			n++
		}
	}
	return n, nil
}

func hasNumericSuffix(slug, base string) bool {
	rest, ok := strings.CutPrefix(slug, base+"-")
	if !ok || rest == "" {
		return false
	}
	return strings.Trim(rest, "0123456789") == ""
}

func (m *memBundleStore) SKUExists(sku string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, agg := range m.bundles {
		if agg.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (m *memBundleStore) RecordView(id int64) error {
	return m.bump(id, func(b *models.Bundle) { b.ViewCount++ })
}

func (m *memBundleStore) RecordAddToCart(id int64) error {
	return m.bump(id, func(b *models.Bundle) { b.AddToCartCount++ })
}

func (m *memBundleStore) RecordPurchase(id int64, units int, revenue decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg, ok := m.bundles[id]
	if !ok {
		return utils.ErrNotFound
	}
	if agg.StockLimit != nil && agg.StockSold+units > *agg.StockLimit {
		return utils.ErrCapacityExceeded
	}
	agg.StockSold += units
	agg.PurchaseCount++
	agg.Revenue = agg.Revenue.Add(revenue)
	return nil
}

func (m *memBundleStore) bump(id int64, fn func(*models.Bundle)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg, ok := m.bundles[id]
	if !ok {
		return utils.ErrNotFound
	}
	fn(&agg.Bundle)
	return nil
}

// memItemStore is an in-memory ItemStore.
type memItemStore struct {
	nextID int64
	items  map[int64]*models.BundleItem
}

func newMemItemStore() *memItemStore {
	return &memItemStore{items: make(map[int64]*models.BundleItem)}
}

func (m *memItemStore) GetByID(id, bundleID int64) (*models.BundleItem, error) {
	item, ok := m.items[id]
	if !ok || item.BundleID != bundleID {
		return nil, utils.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (m *memItemStore) Add(item *models.BundleItem) error {
	for _, existing := range m.items {
		if existing.BundleID == item.BundleID && existing.ProductID == item.ProductID {
			return &utils.ConflictError{Resource: "bundle_item", Detail: "duplicate product"}
		}
	}
	m.nextID++
	item.ID = m.nextID
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memItemStore) Update(item *models.BundleItem) error {
	if _, ok := m.items[item.ID]; !ok {
		return utils.ErrNotFound
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *memItemStore) Delete(id, bundleID int64) error {
	item, ok := m.items[id]
	if !ok || item.BundleID != bundleID {
		return utils.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// memSlotStore is an in-memory SlotStore.
type memSlotStore struct {
	nextID int64
	slots  map[int64]*models.BundleSlot
}

func newMemSlotStore() *memSlotStore {
	return &memSlotStore{slots: make(map[int64]*models.BundleSlot)}
}

func (m *memSlotStore) GetByID(id, bundleID int64) (*models.BundleSlot, error) {
	slot, ok := m.slots[id]
	if !ok || slot.BundleID != bundleID {
		return nil, utils.ErrNotFound
	}
	cp := *slot
	return &cp, nil
}

func (m *memSlotStore) Create(slot *models.BundleSlot) error {
	m.nextID++
	slot.ID = m.nextID
	cp := *slot
	m.slots[slot.ID] = &cp
	return nil
}

func (m *memSlotStore) Update(slot *models.BundleSlot) error {
	if _, ok := m.slots[slot.ID]; !ok {
		return utils.ErrNotFound
	}
	cp := *slot
	m.slots[slot.ID] = &cp
	return nil
}

func (m *memSlotStore) Delete(id, bundleID int64) error {
	slot, ok := m.slots[id]
	if !ok || slot.BundleID != bundleID {
		return utils.ErrNotFound
	}
	delete(m.slots, id)
	return nil
}

// memImageStore is an in-memory ImageStore. It keeps the one-primary
// invariant the way the SQL repository does: the first image a bundle ever
// gets becomes primary, and deleting the primary promotes the lowest-ordered
// survivor.
type memImageStore struct {
	nextID int64
	images map[int64]*models.BundleImage
}

func newMemImageStore() *memImageStore {
	return &memImageStore{images: make(map[int64]*models.BundleImage)}
}

func (m *memImageStore) GetByID(id, bundleID int64) (*models.BundleImage, error) {
	img, ok := m.images[id]
	if !ok || img.BundleID != bundleID {
		return nil, utils.ErrNotFound
	}
	cp := *img
	return &cp, nil
}

func (m *memImageStore) AddBatch(bundleID int64, urls []string) ([]models.BundleImage, error) {
	hasPrimary := false
	maxOrder := -1
	for _, img := range m.images {
		if img.BundleID != bundleID {
			continue
		}
		if img.IsPrimary {
			hasPrimary = true
		}
		if img.SortOrder > maxOrder {
			maxOrder = img.SortOrder
		}
	}
	out := make([]models.BundleImage, 0, len(urls))
	for i, u := range urls {
		m.nextID++
		img := models.BundleImage{
			ID:        m.nextID,
			BundleID:  bundleID,
			URL:       u,
			IsPrimary: !hasPrimary && i == 0,
			SortOrder: maxOrder + 1 + i,
		}
		cp := img
		m.images[img.ID] = &cp
		out = append(out, img)
	}
	return out, nil
}

func (m *memImageStore) SetPrimary(id, bundleID int64) error {
	target, ok := m.images[id]
	if !ok || target.BundleID != bundleID {
		return utils.ErrNotFound
	}
	for _, img := range m.images {
		if img.BundleID == bundleID {
			img.IsPrimary = img.ID == id
		}
	}
	return nil
}

func (m *memImageStore) Delete(id, bundleID int64) (string, error) {
	img, ok := m.images[id]
	if !ok || img.BundleID != bundleID {
		return "", utils.ErrNotFound
	}
	delete(m.images, id)
	if img.IsPrimary {
		var lowest *models.BundleImage
		for _, rest := range m.images {
			if rest.BundleID != bundleID {
				continue
			}
			if lowest == nil || rest.SortOrder < lowest.SortOrder {
				lowest = rest
			}
		}
		if lowest != nil {
			lowest.IsPrimary = true
		}
	}
	return img.URL, nil
}

func (m *memImageStore) forBundle(bundleID int64) []models.BundleImage {
	var out []models.BundleImage
	for _, img := range m.images {
		if img.BundleID == bundleID {
			out = append(out, *img)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// memImageStorage is an in-memory ImageStorage recording stored and deleted
// objects.
type memImageStorage struct {
	stored    []string
	deleted   []string
	deleteErr error
}

func (s *memImageStorage) Store(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	u := "https://cdn.test/" + key
	s.stored = append(s.stored, u)
	return u, nil
}

func (s *memImageStorage) Delete(ctx context.Context, objectURL string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, objectURL)
	return nil
}

// memCatalog is an in-memory ProductLookup. Missing IDs return (nil, nil),
// matching the repository's stale-product contract.
type memCatalog struct {
	products map[int64]models.Product
}

func catalogWith(products ...models.Product) *memCatalog {
	c := &memCatalog{products: make(map[int64]models.Product)}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *memCatalog) GetProduct(id int64) (*models.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// memCache counts invalidations.
type memCache struct {
	mu sync.Mutex
	n  int
}

func (c *memCache) Invalidate() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func product(id int64, price string) models.Product {
	return models.Product{ID: id, Name: "product", Price: dec(price), IsAvailable: true}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestBundleService(store *memBundleStore, catalog *memCatalog) *BundleService {
	return NewBundleService(store, newMemItemStore(), newMemSlotStore(), catalog, &memCache{}, nil)
}
