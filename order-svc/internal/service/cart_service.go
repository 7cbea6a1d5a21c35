package service

import (
	"context"
	"fmt"
	"strings"

	"tableorder/order-svc/internal/cart"
	"tableorder/order-svc/internal/domain"

	"github.com/sirupsen/logrus"
)

// CartService keeps one cart per customer session and checks it out
// through OrderService.
type CartService struct {
	carts       CartStore
	menu        MenuRepository
	restaurants RestaurantRepository
	orders      OrderServiceInterface
	log         *logrus.Entry
}

func NewCartService(carts CartStore, menu MenuRepository, restaurants RestaurantRepository, orders OrderServiceInterface, log *logrus.Entry) *CartService {
	return &CartService{carts: carts, menu: menu, restaurants: restaurants, orders: orders, log: log}
}

func validSession(session string) error {
	if strings.TrimSpace(session) == "" {
		return fmt.Errorf("%w: session is required", ErrValidation)
	}
	return nil
}

func (s *CartService) Get(ctx context.Context, customerID, session string) (*cart.Cart, error) {
	if err := validSession(session); err != nil {
		return nil, err
	}
	return s.carts.GetCart(ctx, customerID, session)
}

func (s *CartService) AddItem(ctx context.Context, customerID, session, restaurantID, itemID string) (*cart.Cart, error) {
	item, err := s.menu.GetMenuItem(ctx, restaurantID, itemID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, customerID, session, func(c *cart.Cart) error {
		return c.AddItem(*item)
	})
}

func (s *CartService) ChangeQuantity(ctx context.Context, customerID, session, itemID string, delta int) (*cart.Cart, error) {
	return s.mutate(ctx, customerID, session, func(c *cart.Cart) error {
		return c.ChangeQuantity(itemID, delta)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, customerID, session, itemID string) (*cart.Cart, error) {
	return s.mutate(ctx, customerID, session, func(c *cart.Cart) error {
		return c.RemoveItem(itemID)
	})
}

func (s *CartService) SetNotes(ctx context.Context, customerID, session, notes, tableNumber string) (*cart.Cart, error) {
	return s.mutate(ctx, customerID, session, func(c *cart.Cart) error {
		c.Notes = strings.TrimSpace(notes)
		c.TableNumber = strings.TrimSpace(tableNumber)
		return nil
	})
}

// Checkout submits the cart. The stored cart is only cleared when the order
// went through; once both order copies exist the checkout succeeds even if
// clearing the cart fails.
func (s *CartService) Checkout(ctx context.Context, customer domain.Customer, session string) (*domain.Order, error) {
	c, err := s.Get(ctx, customer.ID, session)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, fmt.Errorf("%w: %w", ErrValidation, cart.ErrEmpty)
	}

	rest, err := s.restaurants.GetRestaurant(ctx, c.RestaurantID)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.Submit(ctx, c, customer, rest.ID, rest.Name, c.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.carts.SaveCart(ctx, customer.ID, session, c); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"order_id":    order.ID,
			"customer_id": customer.ID,
			"session":     session,
		}).Warn("order placed but cart was not cleared")
	}
	return order, nil
}

func (s *CartService) mutate(ctx context.Context, customerID, session string, apply func(*cart.Cart) error) (*cart.Cart, error) {
	c, err := s.Get(ctx, customerID, session)
	if err != nil {
		return nil, err
	}
	if err := apply(c); err != nil {
		return nil, err
	}
	if err := s.carts.SaveCart(ctx, customerID, session, c); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return c, nil
}
