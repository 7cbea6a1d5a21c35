package httpapi

import (
	"context"
	"net/http"
	"time"

	"tableorder/order-svc/internal/auth"
	"tableorder/order-svc/internal/domain"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const feedWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) getRestaurantOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.List(r.Context(), domain.Scope{RestaurantID: mux.Vars(r)["id"]})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) getMyOrders(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	orders, err := h.Orders.List(r.Context(), domain.Scope{CustomerID: identity.UserID})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	vars := mux.Vars(r)
	order, err := h.Orders.UpdateStatus(r.Context(), vars["id"], vars["orderId"], status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.Today(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) restaurantOrderFeed(w http.ResponseWriter, r *http.Request) {
	h.streamOrders(w, r, domain.Scope{RestaurantID: mux.Vars(r)["id"]})
}

func (h *Handler) myOrderFeed(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	h.streamOrders(w, r, domain.Scope{CustomerID: identity.UserID})
}

// streamOrders pushes every snapshot of the scope's orders over a WebSocket
// until the client disconnects, the session signs out or the feed fails.
func (h *Handler) streamOrders(w http.ResponseWriter, r *http.Request, scope domain.Scope) {
	identity, _ := auth.FromContext(r.Context())
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	feed, err := h.Feeds.Subscribe(ctx, scope)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer feed.Close()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.Metrics.FeedOpened()
	defer h.Metrics.FeedClosed()

	stop := h.Auth.OnIdentityChange(func(event auth.IdentityEvent) {
		if event.Type == auth.EventSignedOut && event.Identity.TokenID == identity.TokenID {
			cancel()
		}
	})
	defer stop()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			closeFeed(conn, websocket.CloseNormalClosure)
			return
		case orders, ok := <-feed.Updates():
			if !ok {
				if err := feed.Err(); err != nil {
					h.Log.WithError(err).WithField("user_id", identity.UserID).Error("order feed failed")
					conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
					conn.WriteJSON(map[string]string{"error": "order feed unavailable"})
					closeFeed(conn, websocket.CloseInternalServerErr)
					return
				}
				closeFeed(conn, websocket.CloseNormalClosure)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(orders); err != nil {
				return
			}
		}
	}
}

func closeFeed(conn *websocket.Conn, code int) {
	conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""), time.Now().Add(time.Second))
}
