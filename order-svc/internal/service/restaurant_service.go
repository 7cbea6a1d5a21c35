package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"tableorder/order-svc/internal/domain"

	"github.com/skip2/go-qrcode"
)

type QRGenerator interface {
	Generate(restaurantID string) ([]byte, error)
}

// DefaultQRGenerator encodes the public menu link of a restaurant.
type DefaultQRGenerator struct {
	BaseURL string
}

func (g DefaultQRGenerator) Generate(restaurantID string) ([]byte, error) {
	qrData := fmt.Sprintf("%s/restaurants/%s/menu", strings.TrimRight(g.BaseURL, "/"), restaurantID)
	return qrcode.Encode(qrData, qrcode.Medium, 256)
}

func profileImagePath(restaurantID string) string {
	return "restaurants/" + restaurantID + "/profile"
}

type RestaurantService struct {
	repo   RestaurantRepository
	images ImageStore
	qr     QRGenerator
	now    func() time.Time
}

func NewRestaurantService(repo RestaurantRepository, images ImageStore, qr QRGenerator) *RestaurantService {
	return &RestaurantService{repo: repo, images: images, qr: qr, now: time.Now}
}

func (s *RestaurantService) List(ctx context.Context) ([]domain.Restaurant, error) {
	return s.repo.ListRestaurants(ctx)
}

func (s *RestaurantService) Get(ctx context.Context, id string) (*domain.Restaurant, error) {
	return s.repo.GetRestaurant(ctx, id)
}

func (s *RestaurantService) UpdateProfile(ctx context.Context, rest *domain.Restaurant) (*domain.Restaurant, error) {
	rest.Name = strings.TrimSpace(rest.Name)
	if rest.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if rest.OpeningHours == nil {
		rest.OpeningHours = map[string]string{}
	}
	if err := s.repo.UpdateRestaurant(ctx, rest); err != nil {
		return nil, err
	}
	return s.repo.GetRestaurant(ctx, rest.ID)
}

// UploadImage replaces the profile image. The returned URL carries a
// version so clients do not keep the previous picture cached.
func (s *RestaurantService) UploadImage(ctx context.Context, id string, image io.Reader) (string, error) {
	if _, err := s.repo.GetRestaurant(ctx, id); err != nil {
		return "", err
	}
	handle, err := s.images.Upload(ctx, profileImagePath(id), image)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	imageURL := fmt.Sprintf("%s?v=%d", s.images.URL(handle), s.now().Unix())
	if err := s.repo.UpdateRestaurantImage(ctx, id, imageURL); err != nil {
		return "", err
	}
	return imageURL, nil
}

func (s *RestaurantService) DeleteImage(ctx context.Context, id string) error {
	if _, err := s.repo.GetRestaurant(ctx, id); err != nil {
		return err
	}
	if err := s.images.Delete(ctx, profileImagePath(id)); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return s.repo.UpdateRestaurantImage(ctx, id, "")
}

func (s *RestaurantService) QRCode(ctx context.Context, id string) ([]byte, error) {
	if _, err := s.repo.GetRestaurant(ctx, id); err != nil {
		return nil, err
	}
	return s.qr.Generate(id)
}
