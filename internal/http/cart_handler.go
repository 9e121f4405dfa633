package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/athometyre/internal/domain"
)

type CartService interface {
	GetCart(ctx context.Context, userID int64) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, tyreID int64, quantity int) error
	UpdateQuantity(ctx context.Context, userID, tyreID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, tyreID int64) error
	Clear(ctx context.Context, userID int64) error
}

type WishlistService interface {
	List(ctx context.Context, userID int64) ([]domain.WishlistItem, error)
	Add(ctx context.Context, userID, tyreID int64) (bool, error)
	Remove(ctx context.Context, userID, tyreID int64) error
}

type CartHandler struct {
	cart     CartService
	wishlist WishlistService
	timeout  time.Duration
	log      *slog.Logger
}

func NewCartHandler(cart CartService, wishlist WishlistService, timeout time.Duration, log *slog.Logger) *CartHandler {
	return &CartHandler{cart: cart, wishlist: wishlist, timeout: timeout, log: log}
}

type AddItemRequestDTO struct {
	TyreID   int64 `json:"tyreId"`
	Quantity int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type WishlistRequestDTO struct {
	TyreID int64 `json:"tyreId"`
}

// userID answers 401 itself when the request carries no identity.
func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id := identityFrom(r.Context()).UserID
	if id == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return 0, false
	}
	return id, true
}

// writeCart responds with the cart as it is after a change.
func (h *CartHandler) writeCart(ctx context.Context, w http.ResponseWriter, r *http.Request, userID int64, status int) {
	c, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, status, c)
}

// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	h.writeCart(ctx, w, r, uid, http.StatusOK)
}

// POST /api/cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TyreID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_tyre_id", "tyreId must be positive")
		return
	}
	if err := h.cart.AddItem(ctx, uid, req.TyreID, req.Quantity); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	h.writeCart(ctx, w, r, uid, http.StatusCreated)
}

// PUT /api/cart/{tyreId}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	tyreID, ok := pathID(w, r, "tyreId")
	if !ok {
		return
	}
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.cart.UpdateQuantity(ctx, uid, tyreID, req.Quantity); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	h.writeCart(ctx, w, r, uid, http.StatusOK)
}

// DELETE /api/cart/{tyreId}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	tyreID, ok := pathID(w, r, "tyreId")
	if !ok {
		return
	}
	if err := h.cart.RemoveItem(ctx, uid, tyreID); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	h.writeCart(ctx, w, r, uid, http.StatusOK)
}

// DELETE /api/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := h.cart.Clear(ctx, uid); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	h.writeCart(ctx, w, r, uid, http.StatusOK)
}

// GET /api/wishlist
func (h *CartHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	items, err := h.wishlist.List(ctx, uid)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

// POST /api/wishlist. Adding a tyre twice is not an error.
func (h *CartHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req WishlistRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TyreID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_tyre_id", "tyreId must be positive")
		return
	}
	added, err := h.wishlist.Add(ctx, uid, req.TyreID)
	if err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	respondJSON(w, status, map[string]any{"tyreId": req.TyreID, "added": added})
}

// DELETE /api/wishlist/{tyreId}
func (h *CartHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	uid, ok := userID(w, r)
	if !ok {
		return
	}
	tyreID, ok := pathID(w, r, "tyreId")
	if !ok {
		return
	}
	if err := h.wishlist.Remove(ctx, uid, tyreID); err != nil {
		respondErr(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
