// Package cart is the customer's transient basket for one restaurant.
// Prices are captured when an item is added and are not refreshed.
package cart

import (
	"errors"

	"tableorder/order-svc/internal/domain"
)

var (
	ErrEmpty              = errors.New("cart is empty")
	ErrLineNotFound       = errors.New("item is not in the cart")
	ErrRestaurantMismatch = errors.New("cart holds items from another restaurant")
	ErrItemUnavailable    = errors.New("item is not available")
)

type Line struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type Cart struct {
	RestaurantID string `json:"restaurantId,omitempty"`
	Lines        []Line `json:"lines"`
	Notes        string `json:"notes,omitempty"`
	TableNumber  string `json:"tableNumber,omitempty"`
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// AddItem bumps the quantity of an existing line or appends a new one.
func (c *Cart) AddItem(item domain.MenuItem) error {
	if !item.Available {
		return ErrItemUnavailable
	}
	if !c.IsEmpty() && c.RestaurantID != "" && item.RestaurantID != c.RestaurantID {
		return ErrRestaurantMismatch
	}
	c.RestaurantID = item.RestaurantID

	for i := range c.Lines {
		if c.Lines[i].ItemID == item.ID {
			c.Lines[i].Quantity++
			return nil
		}
	}
	c.Lines = append(c.Lines, Line{
		ItemID:   item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Quantity: 1,
	})
	return nil
}

// ChangeQuantity never takes a line below one; use RemoveItem to drop it.
func (c *Cart) ChangeQuantity(itemID string, delta int) error {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines[i].Quantity = max(c.Lines[i].Quantity+delta, 1)
			return nil
		}
	}
	return ErrLineNotFound
}

func (c *Cart) RemoveItem(itemID string) error {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

func (c *Cart) Total() float64 {
	var total float64
	for _, line := range c.Lines {
		total += line.Price * float64(line.Quantity)
	}
	return total
}

// Clear empties the cart after a successful checkout.
func (c *Cart) Clear() {
	c.Lines = nil
	c.Notes = ""
	c.TableNumber = ""
}

// Items snapshots the lines as order items.
func (c *Cart) Items() []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(c.Lines))
	for _, line := range c.Lines {
		items = append(items, domain.OrderItem{
			Name:     line.Name,
			Quantity: line.Quantity,
			Price:    line.Price,
		})
	}
	return items
}
