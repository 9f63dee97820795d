// Package seed loads catalog fixtures and the bootstrap super admin.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"haat/internal/apperr"
	"haat/internal/auth"
	"haat/internal/models"
	"haat/internal/store"
)

type Category struct {
	Slug      string `yaml:"slug"`
	NameEn    string `yaml:"name_en"`
	NameHi    string `yaml:"name_hi"`
	ImageURL  string `yaml:"image_url"`
	SortOrder int    `yaml:"sort_order"`
}

type Artisan struct {
	Slug     string `yaml:"slug"`
	NameEn   string `yaml:"name_en"`
	NameHi   string `yaml:"name_hi"`
	BioEn    string `yaml:"bio_en"`
	BioHi    string `yaml:"bio_hi"`
	Region   string `yaml:"region"`
	ImageURL string `yaml:"image_url"`
}

type Product struct {
	Slug          string `yaml:"slug"`
	NameEn        string `yaml:"name_en"`
	NameHi        string `yaml:"name_hi"`
	DescriptionEn string `yaml:"description_en"`
	DescriptionHi string `yaml:"description_hi"`
	Price         string `yaml:"price"`
	Stock         int    `yaml:"stock"`
	Category      string `yaml:"category"`
	Artisan       string `yaml:"artisan"`
	ImageURL      string `yaml:"image_url"`
	Featured      bool   `yaml:"featured"`
}

type Banner struct {
	TitleEn  string `yaml:"title_en"`
	TitleHi  string `yaml:"title_hi"`
	ImageURL string `yaml:"image_url"`
	LinkURL  string `yaml:"link_url"`
	Position int    `yaml:"position"`
}

// File is the on-disk fixture format. Categories and artisans are referenced
// from products by slug.
type File struct {
	Categories []Category `yaml:"categories"`
	Artisans   []Artisan  `yaml:"artisans"`
	Products   []Product  `yaml:"products"`
	Banners    []Banner   `yaml:"banners"`
}

func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Parse(fh)
}

type Result struct {
	Categories int
	Artisans   int
	Products   int
	Banners    int
}

// Catalog upserts the fixtures by slug. Running it twice leaves the database
// unchanged, and existing product stock is never overwritten.
func Catalog(ctx context.Context, s *store.Store, f *File, lg *zap.SugaredLogger) (Result, error) {
	var res Result
	for _, c := range f.Categories {
		cat := models.Category{Slug: c.Slug, NameEn: c.NameEn, NameHi: c.NameHi, ImageURL: c.ImageURL, SortOrder: c.SortOrder, IsActive: true}
		if err := s.Catalog.UpsertCategory(ctx, &cat); err != nil {
			return res, fmt.Errorf("category %s: %w", c.Slug, err)
		}
		res.Categories++
	}
	for _, a := range f.Artisans {
		art := models.Artisan{Slug: a.Slug, NameEn: a.NameEn, NameHi: a.NameHi, BioEn: a.BioEn, BioHi: a.BioHi, Region: a.Region, ImageURL: a.ImageURL, IsActive: true}
		if err := s.Catalog.UpsertArtisan(ctx, &art); err != nil {
			return res, fmt.Errorf("artisan %s: %w", a.Slug, err)
		}
		res.Artisans++
	}
	for _, p := range f.Products {
		prod, err := resolveProduct(ctx, s, p)
		if err != nil {
			return res, fmt.Errorf("product %s: %w", p.Slug, err)
		}
		if err := s.Catalog.UpsertProduct(ctx, prod); err != nil {
			return res, fmt.Errorf("product %s: %w", p.Slug, err)
		}
		res.Products++
	}
	existing, err := s.Catalog.Banners(ctx)
	if err != nil {
		return res, err
	}
	have := make(map[string]bool, len(existing))
	for _, b := range existing {
		have[b.TitleEn] = true
	}
	for _, b := range f.Banners {
		if have[b.TitleEn] {
			continue
		}
		ban := models.Banner{TitleEn: b.TitleEn, TitleHi: b.TitleHi, ImageURL: b.ImageURL, LinkURL: b.LinkURL, Position: b.Position, IsActive: true}
		if err := s.Catalog.CreateBanner(ctx, &ban); err != nil {
			return res, fmt.Errorf("banner %q: %w", b.TitleEn, err)
		}
		have[b.TitleEn] = true
		res.Banners++
	}
	lg.Infow("catalog seeded", "categories", res.Categories, "artisans", res.Artisans, "products", res.Products, "banners", res.Banners)
	return res, nil
}

// resolveProduct looks up referenced rows by slug, since upserts do not
// return the id of an existing row on every dialect.
func resolveProduct(ctx context.Context, s *store.Store, p Product) (*models.Product, error) {
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return nil, apperr.Validation("invalid price %q", p.Price)
	}
	prod := &models.Product{
		Slug: p.Slug, NameEn: p.NameEn, NameHi: p.NameHi,
		DescriptionEn: p.DescriptionEn, DescriptionHi: p.DescriptionHi,
		Price: price, Stock: p.Stock, ImageURL: p.ImageURL,
		IsActive: true, IsFeatured: p.Featured,
	}
	if p.Category != "" {
		c, err := s.Catalog.CategoryBySlug(ctx, p.Category)
		if err != nil {
			return nil, err
		}
		prod.CategoryID = &c.ID
	}
	if p.Artisan != "" {
		a, err := s.Catalog.ArtisanBySlugAny(ctx, p.Artisan)
		if err != nil {
			return nil, err
		}
		prod.ArtisanID = &a.ID
	}
	return prod, nil
}

// SuperAdmin creates the bootstrap super admin if no account with that email
// exists yet. An existing account is left untouched.
func SuperAdmin(ctx context.Context, s *store.Store, h auth.Hasher, email, password string, lg *zap.SugaredLogger) (bool, error) {
	email = store.NormalizeEmail(email)
	if email == "" || password == "" {
		lg.Warnw("super admin seed skipped: email or password not configured")
		return false, nil
	}
	_, err := s.Users.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return false, err
	}
	hash, err := h.Hash(password)
	if err != nil {
		return false, err
	}
	u := models.User{Email: email, PasswordHash: hash, Name: "Administrator", Role: models.RoleSuperAdmin, IsActive: true, EmailVerified: true}
	if err := s.Users.Create(ctx, &u); err != nil {
		return false, err
	}
	_ = store.Audit(ctx, s.DB, u.ID, "SEED_SUPER_ADMIN", map[string]any{"email": email})
	lg.Infow("seeded super admin", "email", email)
	return true, nil
}
