package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"haat/internal/apperr"
	"haat/internal/auth"
	"haat/internal/models"
	"haat/internal/store"
)

func ListProducts(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rows, err := d.Store.Catalog.ListProducts(r.Context(), store.ProductFilter{
			CategorySlug: q.Get("category"),
			ArtisanID:    q.Get("artisan"),
			Search:       q.Get("q"),
			FeaturedOnly: q.Get("featured") == "1" || q.Get("featured") == "true",
			Limit:        queryInt(r, "limit"),
			Offset:       queryInt(r, "offset"),
		})
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"data": rows, "count": len(rows)})
	}
}

func GetProduct(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := d.Store.Catalog.ProductBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, p)
	}
}

func ListCategories(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := d.Store.Catalog.Categories(r.Context())
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"data": rows, "count": len(rows)})
	}
}

func ListArtisans(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := d.Store.Catalog.Artisans(r.Context())
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"data": rows, "count": len(rows)})
	}
}

func GetArtisan(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := d.Store.Catalog.ArtisanBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		products, err := d.Store.Catalog.ListProducts(r.Context(), store.ProductFilter{ArtisanID: a.ID})
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"artisan": a, "products": products})
	}
}

func ListBanners(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := d.Store.Catalog.Banners(r.Context())
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		respondJSON(w, map[string]any{"data": rows, "count": len(rows)})
	}
}

type productReq struct {
	Slug          string           `json:"slug"`
	NameEn        *string          `json:"name_en"`
	NameHi        *string          `json:"name_hi"`
	DescriptionEn *string          `json:"description_en"`
	DescriptionHi *string          `json:"description_hi"`
	Price         *decimal.Decimal `json:"price"`
	Stock         *int             `json:"stock"`
	CategoryID    *string          `json:"category_id"`
	ArtisanID     *string          `json:"artisan_id"`
	ImageURL      *string          `json:"image_url"`
	IsActive      *bool            `json:"is_active"`
	IsFeatured    *bool            `json:"is_featured"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// ownArtisan returns the artisan id an artisan-role caller is limited to, or
// "" for staff.
func ownArtisan(d *Deps, r *http.Request) (string, error) {
	id := auth.FromContext(r.Context())
	if id.Role() != models.RoleArtisan {
		return "", nil
	}
	a, err := d.Store.Catalog.ArtisanForUser(r.Context(), id.UserID())
	if err != nil {
		return "", apperr.Forbidden("no artisan profile linked to this account")
	}
	return a.ID, nil
}

func CreateProduct(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req productReq
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		owner, err := ownArtisan(d, r)
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		p := models.Product{
			Slug:          req.Slug,
			NameEn:        deref(req.NameEn),
			NameHi:        deref(req.NameHi),
			DescriptionEn: deref(req.DescriptionEn),
			DescriptionHi: deref(req.DescriptionHi),
			Price:         deref(req.Price),
			Stock:         deref(req.Stock),
			CategoryID:    req.CategoryID,
			ArtisanID:     req.ArtisanID,
			ImageURL:      deref(req.ImageURL),
			IsActive:      req.IsActive == nil || *req.IsActive,
			IsFeatured:    deref(req.IsFeatured),
		}
		if owner != "" {
			p.ArtisanID = &owner
			p.IsFeatured = false
		}
		if err := d.Store.Catalog.CreateProduct(r.Context(), &p); err != nil {
			d.Fail(w, r, err)
			return
		}
		_ = store.Audit(r.Context(), d.Store.DB, auth.Subject(r.Context()), "PRODUCT_CREATE", map[string]any{"product_id": p.ID, "slug": p.Slug})
		respondStatus(w, http.StatusCreated, p)
	}
}

// editableProduct loads a product and checks an artisan caller owns it.
func editableProduct(d *Deps, r *http.Request) (*models.Product, error) {
	p, err := d.Store.Catalog.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	owner, err := ownArtisan(d, r)
	if err != nil {
		return nil, err
	}
	if owner != "" && (p.ArtisanID == nil || *p.ArtisanID != owner) {
		return nil, apperr.Forbidden("product belongs to another artisan")
	}
	return p, nil
}

func UpdateProduct(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req productReq
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		p, err := editableProduct(d, r)
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		upd := store.ProductUpdate{
			NameEn: req.NameEn, NameHi: req.NameHi,
			DescriptionEn: req.DescriptionEn, DescriptionHi: req.DescriptionHi,
			Price: req.Price, Stock: req.Stock, CategoryID: req.CategoryID,
			ImageURL: req.ImageURL, IsActive: req.IsActive, IsFeatured: req.IsFeatured,
		}
		if auth.FromContext(r.Context()).Role() == models.RoleArtisan {
			upd.IsFeatured = nil
		}
		updated, err := d.Store.Catalog.UpdateProduct(r.Context(), p.ID, upd)
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		_ = store.Audit(r.Context(), d.Store.DB, auth.Subject(r.Context()), "PRODUCT_UPDATE", map[string]any{"product_id": p.ID})
		respondJSON(w, updated)
	}
}

func DisableProduct(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := editableProduct(d, r)
		if err != nil {
			d.Fail(w, r, err)
			return
		}
		if err := d.Store.Catalog.DisableProduct(r.Context(), p.ID); err != nil {
			d.Fail(w, r, err)
			return
		}
		_ = store.Audit(r.Context(), d.Store.DB, auth.Subject(r.Context()), "PRODUCT_DISABLE", map[string]any{"product_id": p.ID})
		respondJSON(w, map[string]any{"disabled": true})
	}
}

func CreateCategory(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Slug      string `json:"slug"`
			NameEn    string `json:"name_en"`
			NameHi    string `json:"name_hi"`
			ImageURL  string `json:"image_url"`
			SortOrder int    `json:"sort_order"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		c := models.Category{
			Slug: req.Slug, NameEn: strings.TrimSpace(req.NameEn), NameHi: strings.TrimSpace(req.NameHi),
			ImageURL: req.ImageURL, SortOrder: req.SortOrder, IsActive: true,
		}
		if err := d.Store.Catalog.CreateCategory(r.Context(), &c); err != nil {
			d.Fail(w, r, err)
			return
		}
		respondStatus(w, http.StatusCreated, c)
	}
}

func CreateBanner(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TitleEn  string `json:"title_en"`
			TitleHi  string `json:"title_hi"`
			ImageURL string `json:"image_url"`
			LinkURL  string `json:"link_url"`
			Position int    `json:"position"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			d.Fail(w, r, err)
			return
		}
		b := models.Banner{
			TitleEn: req.TitleEn, TitleHi: req.TitleHi, ImageURL: req.ImageURL,
			LinkURL: req.LinkURL, Position: req.Position, IsActive: true,
		}
		if err := d.Store.Catalog.CreateBanner(r.Context(), &b); err != nil {
			d.Fail(w, r, err)
			return
		}
		respondStatus(w, http.StatusCreated, b)
	}
}
