package httpapi

import (
	"errors"
	"net/http"

	"tableorder/order-svc/internal/auth"
	"tableorder/order-svc/internal/blob"
	"tableorder/order-svc/internal/domain"

	"github.com/gorilla/mux"
)

type signInRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var in auth.SignUpInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	session, err := h.Auth.SignUp(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	session, err := h.Auth.SignIn(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.SignOut(r.Context(), bearerToken(r, false)); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	user, err := h.Auth.Profile(r.Context(), identity.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user.PasswordHash = ""
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"displayName"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	identity, _ := auth.FromContext(r.Context())
	user, err := h.Auth.UpdateProfile(r.Context(), identity, req.DisplayName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	user.PasswordHash = ""
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) getRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.Restaurants.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, restaurants)
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	rest, err := h.Restaurants.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rest)
}

func (h *Handler) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	var rest domain.Restaurant
	if err := decodeJSON(r, &rest); err != nil {
		h.writeError(w, r, err)
		return
	}
	rest.ID = mux.Vars(r)["id"]
	updated, err := h.Restaurants.UpdateProfile(r.Context(), &rest)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) uploadRestaurantImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, blob.MaxImageSize+1<<20)
	if err := r.ParseMultipartForm(blob.MaxImageSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = blob.ErrTooLarge
		}
		h.writeError(w, r, errBadRequest(err))
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		h.writeError(w, r, errBadRequest(err))
		return
	}
	defer file.Close()

	url, err := h.Restaurants.UploadImage(r.Context(), mux.Vars(r)["id"], file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": url})
}

func (h *Handler) deleteRestaurantImage(w http.ResponseWriter, r *http.Request) {
	if err := h.Restaurants.DeleteImage(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getRestaurantQRCode(w http.ResponseWriter, r *http.Request) {
	png, err := h.Restaurants.QRCode(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) getMenuItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Menu.ListItems(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) createMenuItem(w http.ResponseWriter, r *http.Request) {
	var item domain.MenuItem
	if err := decodeJSON(r, &item); err != nil {
		h.writeError(w, r, err)
		return
	}
	item.ID = ""
	item.RestaurantID = mux.Vars(r)["id"]
	if err := h.Menu.CreateItem(r.Context(), &item); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) getMenuItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	item, err := h.Menu.GetItem(r.Context(), vars["id"], vars["itemId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	var item domain.MenuItem
	if err := decodeJSON(r, &item); err != nil {
		h.writeError(w, r, err)
		return
	}
	vars := mux.Vars(r)
	item.ID = vars["itemId"]
	item.RestaurantID = vars["id"]
	if err := h.Menu.UpdateItem(r.Context(), &item); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Menu.DeleteItem(r.Context(), vars["id"], vars["itemId"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Menu.ListCategories(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var category domain.Category
	if err := decodeJSON(r, &category); err != nil {
		h.writeError(w, r, err)
		return
	}
	category.ID = ""
	category.RestaurantID = mux.Vars(r)["id"]
	if err := h.Menu.CreateCategory(r.Context(), &category); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Menu.DeleteCategory(r.Context(), vars["id"], vars["categoryId"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
