package domain

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleRestaurant Role = "restaurant"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleRestaurant
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Client is the profile document kept for customer accounts.
type Client struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type Restaurant struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Cuisine      string            `json:"cuisine"`
	Address      string            `json:"address"`
	Phone        string            `json:"phone"`
	Website      string            `json:"website"`
	ImageURL     string            `json:"imageUrl"`
	OpeningHours map[string]string `json:"openingHours"`
}

type MenuItem struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	Available    bool    `json:"available"`
	RestaurantID string  `json:"restaurantId"`
	ImageURL     string  `json:"imageUrl,omitempty"`
}

type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RestaurantID string `json:"restaurantId"`
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusActive    OrderStatus = "active"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid order status")

func ParseOrderStatus(status string) (OrderStatus, error) {
	switch OrderStatus(strings.ToLower(strings.TrimSpace(status))) {
	case StatusPending:
		return StatusPending, nil
	case StatusActive:
		return StatusActive, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

type Customer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrderItem is a name/price snapshot taken when the order was placed.
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type Order struct {
	ID                string      `json:"id"`
	Customer          Customer    `json:"customer"`
	Items             []OrderItem `json:"items"`
	Total             float64     `json:"total"`
	Status            OrderStatus `json:"status"`
	CreatedAt         time.Time   `json:"createdAt"`
	TableNumber       string      `json:"tableNumber,omitempty"`
	Notes             string      `json:"notes,omitempty"`
	RestaurantID      string      `json:"restaurantId"`
	RestaurantName    string      `json:"restaurantName"`
	RestaurantOrderID string      `json:"restaurantOrderId,omitempty"`
}

// Scope selects whose orders a feed follows. Exactly one field is set.
type Scope struct {
	RestaurantID string
	CustomerID   string
}

func (s Scope) Valid() bool {
	return (s.RestaurantID == "") != (s.CustomerID == "")
}

// OrderEvent is published on every order write. Stats are bucketed by the
// order's creation day, so status changes carry the status they replace.
type OrderEvent struct {
	Type           string      `json:"type"`
	OrderID        string      `json:"order_id"`
	RestaurantID   string      `json:"restaurant_id"`
	Status         OrderStatus `json:"status"`
	PreviousStatus OrderStatus `json:"previous_status,omitempty"`
	Total          float64     `json:"total"`
	CreatedAt      time.Time   `json:"created_at"`
	Timestamp      time.Time   `json:"timestamp"`
}

const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
)

type DailyStats struct {
	RestaurantID string         `json:"restaurantId"`
	Date         string         `json:"date"`
	Orders       int            `json:"orders"`
	Revenue      float64        `json:"revenue"`
	ByStatus     map[string]int `json:"byStatus"`
}
