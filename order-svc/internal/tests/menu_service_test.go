package tests

import (
	"context"
	"testing"

	"tableorder/order-svc/internal/domain"
	"tableorder/order-svc/internal/mocks"
	"tableorder/order-svc/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMenuService_CreateItemValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		item          domain.MenuItem
		expectedError error
	}{
		{
			name: "valid_item_is_trimmed",
			item: domain.MenuItem{Name: "  Burger ", Category: " Mains ", Price: 9, RestaurantID: "r1", Available: true},
		},
		{
			name:          "blank_name",
			item:          domain.MenuItem{Name: "   ", Category: "Mains", Price: 9, RestaurantID: "r1"},
			expectedError: service.ErrValidation,
		},
		{
			name:          "missing_category",
			item:          domain.MenuItem{Name: "Burger", Price: 9, RestaurantID: "r1"},
			expectedError: service.ErrValidation,
		},
		{
			name:          "zero_price",
			item:          domain.MenuItem{Name: "Burger", Category: "Mains", Price: 0, RestaurantID: "r1"},
			expectedError: service.ErrValidation,
		},
		{
			name:          "negative_price",
			item:          domain.MenuItem{Name: "Burger", Category: "Mains", Price: -1, RestaurantID: "r1"},
			expectedError: service.ErrValidation,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			repository := mocks.NewMenuRepository(t)
			svc := service.NewMenuService(repository)
			if testCase.expectedError == nil {
				repository.On("CreateMenuItem", ctx, mock.MatchedBy(func(item *domain.MenuItem) bool {
					return item.Name == "Burger" && item.Category == "Mains"
				})).Return(nil).Once()
			}

			item := testCase.item
			err := svc.CreateItem(ctx, &item)
			assert.ErrorIs(t, err, testCase.expectedError)
		})
	}
}

func TestMenuService_ListItemsEmptyMenu(t *testing.T) {
	ctx := context.Background()
	repository := mocks.NewMenuRepository(t)
	svc := service.NewMenuService(repository)

	repository.On("ListMenuItems", ctx, "r1").Return(nil, nil).Once()

	items, err := svc.ListItems(ctx, "r1")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Len(t, items, 0)
}

func TestMenuService_CreateCategory(t *testing.T) {
	ctx := context.Background()
	existing := []domain.Category{{ID: "c1", Name: "Drinks", RestaurantID: "r1"}}

	tests := []struct {
		name          string
		category      domain.Category
		prepareMocks  func(*mocks.MenuRepository)
		expectedError error
	}{
		{
			name:     "success",
			category: domain.Category{Name: " Desserts ", RestaurantID: "r1"},
			prepareMocks: func(repo *mocks.MenuRepository) {
				repo.On("ListCategories", ctx, "r1").Return(existing, nil).Once()
				repo.On("CreateCategory", ctx, mock.MatchedBy(func(c *domain.Category) bool {
					return c.Name == "Desserts"
				})).Return(nil).Once()
			},
		},
		{
			name:     "duplicate_ignores_case",
			category: domain.Category{Name: "drinks", RestaurantID: "r1"},
			prepareMocks: func(repo *mocks.MenuRepository) {
				repo.On("ListCategories", ctx, "r1").Return(existing, nil).Once()
			},
			expectedError: service.ErrDuplicateCategory,
		},
		{
			name:          "blank_name",
			category:      domain.Category{Name: " ", RestaurantID: "r1"},
			prepareMocks:  func(*mocks.MenuRepository) {},
			expectedError: service.ErrValidation,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			repository := mocks.NewMenuRepository(t)
			testCase.prepareMocks(repository)
			svc := service.NewMenuService(repository)

			category := testCase.category
			assert.ErrorIs(t, svc.CreateCategory(ctx, &category), testCase.expectedError)
		})
	}
}

func TestMenuService_DeleteCategory(t *testing.T) {
	ctx := context.Background()
	drinks := &domain.Category{ID: "c1", Name: "Drinks", RestaurantID: "r1"}

	tests := []struct {
		name          string
		prepareMocks  func(*mocks.MenuRepository)
		expectedError error
	}{
		{
			name: "success_unused",
			prepareMocks: func(repo *mocks.MenuRepository) {
				repo.On("GetCategory", ctx, "r1", "c1").Return(drinks, nil).Once()
				repo.On("CountItemsInCategory", ctx, "r1", "Drinks").Return(0, nil).Once()
				repo.On("DeleteCategory", ctx, "r1", "c1").Return(nil).Once()
			},
		},
		{
			name: "error_in_use",
			prepareMocks: func(repo *mocks.MenuRepository) {
				repo.On("GetCategory", ctx, "r1", "c1").Return(drinks, nil).Once()
				repo.On("CountItemsInCategory", ctx, "r1", "Drinks").Return(2, nil).Once()
			},
			expectedError: service.ErrCategoryInUse,
		},
		{
			name: "error_not_found",
			prepareMocks: func(repo *mocks.MenuRepository) {
				repo.On("GetCategory", ctx, "r1", "c1").Return(nil, service.ErrNotFound).Once()
			},
			expectedError: service.ErrNotFound,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			repository := mocks.NewMenuRepository(t)
			testCase.prepareMocks(repository)
			svc := service.NewMenuService(repository)

			assert.ErrorIs(t, svc.DeleteCategory(ctx, "r1", "c1"), testCase.expectedError)
		})
	}
}
