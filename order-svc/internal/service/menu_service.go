package service

import (
	"context"
	"fmt"
	"strings"

	"tableorder/order-svc/internal/domain"
)

type MenuService struct {
	repo MenuRepository
}

func NewMenuService(repo MenuRepository) *MenuService {
	return &MenuService{repo: repo}
}

func validateMenuItem(item *domain.MenuItem) error {
	item.Name = strings.TrimSpace(item.Name)
	item.Category = strings.TrimSpace(item.Category)
	switch {
	case item.Name == "":
		return fmt.Errorf("%w: name is required", ErrValidation)
	case item.Category == "":
		return fmt.Errorf("%w: category is required", ErrValidation)
	case item.Price <= 0:
		return fmt.Errorf("%w: price must be greater than zero", ErrValidation)
	}
	return nil
}

func (s *MenuService) CreateItem(ctx context.Context, item *domain.MenuItem) error {
	if err := validateMenuItem(item); err != nil {
		return err
	}
	return s.repo.CreateMenuItem(ctx, item)
}

func (s *MenuService) ListItems(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	items, err := s.repo.ListMenuItems(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.MenuItem{}
	}
	return items, nil
}

func (s *MenuService) GetItem(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error) {
	return s.repo.GetMenuItem(ctx, restaurantID, itemID)
}

func (s *MenuService) UpdateItem(ctx context.Context, item *domain.MenuItem) error {
	if err := validateMenuItem(item); err != nil {
		return err
	}
	return s.repo.UpdateMenuItem(ctx, item)
}

func (s *MenuService) DeleteItem(ctx context.Context, restaurantID, itemID string) error {
	return s.repo.DeleteMenuItem(ctx, restaurantID, itemID)
}

// CreateCategory rejects a name the restaurant already uses, ignoring case.
func (s *MenuService) CreateCategory(ctx context.Context, category *domain.Category) error {
	category.Name = strings.TrimSpace(category.Name)
	if category.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}

	existing, err := s.repo.ListCategories(ctx, category.RestaurantID)
	if err != nil {
		return err
	}
	for _, c := range existing {
		if strings.EqualFold(c.Name, category.Name) {
			return ErrDuplicateCategory
		}
	}
	return s.repo.CreateCategory(ctx, category)
}

func (s *MenuService) ListCategories(ctx context.Context, restaurantID string) ([]domain.Category, error) {
	categories, err := s.repo.ListCategories(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

// DeleteCategory refuses while any menu item still carries the label.
func (s *MenuService) DeleteCategory(ctx context.Context, restaurantID, categoryID string) error {
	category, err := s.repo.GetCategory(ctx, restaurantID, categoryID)
	if err != nil {
		return err
	}
	inUse, err := s.repo.CountItemsInCategory(ctx, restaurantID, category.Name)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return fmt.Errorf("%w: %d items", ErrCategoryInUse, inUse)
	}
	return s.repo.DeleteCategory(ctx, restaurantID, categoryID)
}
