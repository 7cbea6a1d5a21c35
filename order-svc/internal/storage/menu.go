package storage

import (
	"context"
	"fmt"

	"tableorder/order-svc/internal/docstore"
	"tableorder/order-svc/internal/domain"
	"tableorder/order-svc/internal/service"
)

const (
	menuItemsCollection  = "menuItems"
	categoriesCollection = "categories"
)

type MenuStore struct {
	Docs docstore.Store
}

func NewMenuStore(docs docstore.Store) *MenuStore {
	return &MenuStore{Docs: docs}
}

func (s *MenuStore) CreateMenuItem(ctx context.Context, item *domain.MenuItem) error {
	data, err := docstore.Encode(item, "id")
	if err != nil {
		return err
	}
	id, err := s.Docs.Add(ctx, menuItemsCollection, data)
	if err != nil {
		return err
	}
	item.ID = id
	return nil
}

func (s *MenuStore) ListMenuItems(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	docs, err := s.Docs.Query(ctx, menuItemsCollection, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("restaurantId", restaurantID)},
		OrderBy: "name",
	})
	if err != nil {
		return nil, err
	}
	items := make([]domain.MenuItem, 0, len(docs))
	for _, doc := range docs {
		item, err := decodeMenuItem(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// GetMenuItem treats an item of another restaurant as missing.
func (s *MenuStore) GetMenuItem(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error) {
	doc, err := s.Docs.Get(ctx, menuItemsCollection, itemID)
	if err != nil {
		return nil, notFound(err)
	}
	item, err := decodeMenuItem(doc)
	if err != nil {
		return nil, err
	}
	if item.RestaurantID != restaurantID {
		return nil, service.ErrNotFound
	}
	return item, nil
}

func (s *MenuStore) UpdateMenuItem(ctx context.Context, item *domain.MenuItem) error {
	if _, err := s.GetMenuItem(ctx, item.RestaurantID, item.ID); err != nil {
		return err
	}
	data, err := docstore.Encode(item, "id")
	if err != nil {
		return err
	}
	return notFound(s.Docs.Set(ctx, menuItemsCollection, item.ID, data))
}

func (s *MenuStore) DeleteMenuItem(ctx context.Context, restaurantID, itemID string) error {
	if _, err := s.GetMenuItem(ctx, restaurantID, itemID); err != nil {
		return err
	}
	return notFound(s.Docs.Delete(ctx, menuItemsCollection, itemID))
}

func (s *MenuStore) CountItemsInCategory(ctx context.Context, restaurantID, category string) (int, error) {
	docs, err := s.Docs.Query(ctx, menuItemsCollection, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Where("restaurantId", restaurantID),
			docstore.Where("category", category),
		},
	})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func (s *MenuStore) CreateCategory(ctx context.Context, category *domain.Category) error {
	data, err := docstore.Encode(category, "id")
	if err != nil {
		return err
	}
	id, err := s.Docs.Add(ctx, categoriesCollection, data)
	if err != nil {
		return err
	}
	category.ID = id
	return nil
}

func (s *MenuStore) ListCategories(ctx context.Context, restaurantID string) ([]domain.Category, error) {
	docs, err := s.Docs.Query(ctx, categoriesCollection, docstore.Query{
		Filters: []docstore.Filter{docstore.Where("restaurantId", restaurantID)},
		OrderBy: "name",
	})
	if err != nil {
		return nil, err
	}
	categories := make([]domain.Category, 0, len(docs))
	for _, doc := range docs {
		category, err := decodeCategory(doc)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *category)
	}
	return categories, nil
}

func (s *MenuStore) GetCategory(ctx context.Context, restaurantID, categoryID string) (*domain.Category, error) {
	doc, err := s.Docs.Get(ctx, categoriesCollection, categoryID)
	if err != nil {
		return nil, notFound(err)
	}
	category, err := decodeCategory(doc)
	if err != nil {
		return nil, err
	}
	if category.RestaurantID != restaurantID {
		return nil, service.ErrNotFound
	}
	return category, nil
}

func (s *MenuStore) DeleteCategory(ctx context.Context, restaurantID, categoryID string) error {
	if _, err := s.GetCategory(ctx, restaurantID, categoryID); err != nil {
		return err
	}
	return notFound(s.Docs.Delete(ctx, categoriesCollection, categoryID))
}

func decodeMenuItem(doc docstore.Document) (*domain.MenuItem, error) {
	var item domain.MenuItem
	if err := docstore.Decode(doc, &item); err != nil {
		return nil, fmt.Errorf("failed to decode menu item %s: %w", doc.ID, err)
	}
	item.ID = doc.ID
	return &item, nil
}

func decodeCategory(doc docstore.Document) (*domain.Category, error) {
	var category domain.Category
	if err := docstore.Decode(doc, &category); err != nil {
		return nil, fmt.Errorf("failed to decode category %s: %w", doc.ID, err)
	}
	category.ID = doc.ID
	return &category, nil
}

var _ service.MenuRepository = (*MenuStore)(nil)
