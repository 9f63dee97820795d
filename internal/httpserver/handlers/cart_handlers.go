package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"haat/internal/auth"
)

type cartReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func GetCart(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := d.Store.Carts.List(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"data": items, "count": len(items)})
	}
}

func AddToCart(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cartReq
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		item, err := d.Store.Carts.Add(r.Context(), auth.Subject(r.Context()), req.ProductID, req.Quantity)
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondStatus(w, http.StatusCreated, item)
	}
}

func UpdateCartItem(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cartReq
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		item, err := d.Store.Carts.SetQuantity(r.Context(), auth.Subject(r.Context()), chi.URLParam(r, "productID"), req.Quantity)
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, item)
	}
}

func RemoveCartItem(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.Carts.Remove(r.Context(), auth.Subject(r.Context()), chi.URLParam(r, "productID")); err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"deleted": true})
	}
}

func GetWishlist(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := d.Store.Wishlists.List(r.Context(), auth.Subject(r.Context()))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"data": items, "count": len(items)})
	}
}

func AddToWishlist(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cartReq
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		if err := d.Store.Wishlists.Add(r.Context(), auth.Subject(r.Context()), req.ProductID); err != nil {
			d.Fail(w, r, err)
			return
		}
		respondStatus(w, http.StatusCreated, map[string]any{"added": true})
	}
}

func RemoveFromWishlist(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.Wishlists.Remove(r.Context(), auth.Subject(r.Context()), chi.URLParam(r, "productID")); err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"deleted": true})
	}
}
