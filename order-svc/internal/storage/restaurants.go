package storage

import (
	"context"
	"errors"
	"fmt"

	"tableorder/order-svc/internal/docstore"
	"tableorder/order-svc/internal/domain"
	"tableorder/order-svc/internal/service"
)

const restaurantsCollection = "restaurants"

type RestaurantStore struct {
	Docs docstore.Store
}

func NewRestaurantStore(docs docstore.Store) *RestaurantStore {
	return &RestaurantStore{Docs: docs}
}

func (s *RestaurantStore) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	docs, err := s.Docs.Query(ctx, restaurantsCollection, docstore.Query{OrderBy: "name"})
	if err != nil {
		return nil, err
	}
	restaurants := make([]domain.Restaurant, 0, len(docs))
	for _, doc := range docs {
		rest, err := decodeRestaurant(doc)
		if err != nil {
			return nil, err
		}
		restaurants = append(restaurants, *rest)
	}
	return restaurants, nil
}

func (s *RestaurantStore) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	doc, err := s.Docs.Get(ctx, restaurantsCollection, id)
	if err != nil {
		return nil, notFound(err)
	}
	return decodeRestaurant(doc)
}

// UpdateRestaurant replaces the profile fields but leaves the image alone;
// the image only changes through UpdateRestaurantImage.
func (s *RestaurantStore) UpdateRestaurant(ctx context.Context, rest *domain.Restaurant) error {
	data, err := docstore.Encode(rest, "id", "imageUrl")
	if err != nil {
		return err
	}
	return notFound(s.Docs.Update(ctx, restaurantsCollection, rest.ID, data))
}

func (s *RestaurantStore) UpdateRestaurantImage(ctx context.Context, id, imageURL string) error {
	return notFound(s.Docs.Update(ctx, restaurantsCollection, id, map[string]any{"imageUrl": imageURL}))
}

func decodeRestaurant(doc docstore.Document) (*domain.Restaurant, error) {
	var rest domain.Restaurant
	if err := docstore.Decode(doc, &rest); err != nil {
		return nil, fmt.Errorf("failed to decode restaurant %s: %w", doc.ID, err)
	}
	rest.ID = doc.ID
	if rest.OpeningHours == nil {
		rest.OpeningHours = map[string]string{}
	}
	return &rest, nil
}

// notFound maps the store's missing-document error onto the service one.
func notFound(err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return service.ErrNotFound
	}
	return err
}

var _ service.RestaurantRepository = (*RestaurantStore)(nil)
