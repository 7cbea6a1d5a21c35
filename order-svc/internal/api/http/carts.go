package httpapi

import (
	"net/http"

	"tableorder/order-svc/internal/auth"
	"tableorder/order-svc/internal/cart"
	"tableorder/order-svc/internal/domain"

	"github.com/gorilla/mux"
)

type cartResponse struct {
	*cart.Cart
	Total float64 `json:"total"`
}

func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, c *cart.Cart, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Cart: c, Total: c.Total()})
}

func customerID(r *http.Request) string {
	identity, _ := auth.FromContext(r.Context())
	return identity.UserID
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.Carts.Get(r.Context(), customerID(r), mux.Vars(r)["session"])
	h.writeCart(w, r, c, err)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RestaurantID string `json:"restaurantId"`
		ItemID       string `json:"itemId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.Carts.AddItem(r.Context(), customerID(r), mux.Vars(r)["session"], req.RestaurantID, req.ItemID)
	h.writeCart(w, r, c, err)
}

func (h *Handler) changeCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	vars := mux.Vars(r)
	c, err := h.Carts.ChangeQuantity(r.Context(), customerID(r), vars["session"], vars["itemId"], req.Delta)
	h.writeCart(w, r, c, err)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	c, err := h.Carts.RemoveItem(r.Context(), customerID(r), vars["session"], vars["itemId"])
	h.writeCart(w, r, c, err)
}

func (h *Handler) setCartNotes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes       string `json:"notes"`
		TableNumber string `json:"tableNumber"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.Carts.SetNotes(r.Context(), customerID(r), mux.Vars(r)["session"], req.Notes, req.TableNumber)
	h.writeCart(w, r, c, err)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	customer := domain.Customer{ID: identity.UserID, Name: identity.DisplayName}
	order, err := h.Carts.Checkout(r.Context(), customer, mux.Vars(r)["session"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}
