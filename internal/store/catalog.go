package store

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"haat/internal/apperr"
	"haat/internal/models"
)

type Catalog struct {
	db *gorm.DB
}

type ProductFilter struct {
	CategorySlug string
	ArtisanID    string
	Search       string
	FeaturedOnly bool
	Limit        int
	Offset       int
}

// ListProducts returns active products matching f, newest first.
func (c *Catalog) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	limit, offset := Page(f.Limit, f.Offset)
	q := c.db.WithContext(ctx).Model(&models.Product{}).
		Preload("Category").Preload("Artisan").
		Where("products.is_active = ?", true)
	if f.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", f.CategorySlug)
	}
	if f.ArtisanID != "" {
		q = q.Where("products.artisan_id = ?", f.ArtisanID)
	}
	if f.FeaturedOnly {
		q = q.Where("products.is_featured = ?", true)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(products.name_en) LIKE ? OR products.name_hi LIKE ?", like, "%"+s+"%")
	}
	var out []models.Product
	err := q.Order("products.created_at desc").Limit(limit).Offset(offset).Find(&out).Error
	return out, err
}

func (c *Catalog) ProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	err := c.db.WithContext(ctx).Preload("Category").Preload("Artisan").
		First(&p, "slug = ? AND is_active = ?", slug, true).Error
	if err != nil {
		return nil, notFound(err, "product %s not found", slug)
	}
	return &p, nil
}

// Product loads a product by id regardless of its active flag.
func (c *Catalog) Product(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := c.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "product %s not found", id)
	}
	return &p, nil
}

func (c *Catalog) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if err := c.db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("product slug %s already exists", p.Slug)
		}
		return err
	}
	return nil
}

type ProductUpdate struct {
	NameEn        *string
	NameHi        *string
	DescriptionEn *string
	DescriptionHi *string
	Price         *decimal.Decimal
	Stock         *int
	CategoryID    *string
	ImageURL      *string
	IsActive      *bool
	IsFeatured    *bool
}

func (c *Catalog) UpdateProduct(ctx context.Context, id string, u ProductUpdate) (*models.Product, error) {
	changes := map[string]any{}
	if u.NameEn != nil {
		if strings.TrimSpace(*u.NameEn) == "" {
			return nil, apperr.Validation("name_en must not be empty")
		}
		changes["name_en"] = strings.TrimSpace(*u.NameEn)
	}
	if u.NameHi != nil {
		changes["name_hi"] = strings.TrimSpace(*u.NameHi)
	}
	if u.DescriptionEn != nil {
		changes["description_en"] = *u.DescriptionEn
	}
	if u.DescriptionHi != nil {
		changes["description_hi"] = *u.DescriptionHi
	}
	if u.Price != nil {
		if !u.Price.IsPositive() {
			return nil, apperr.Validation("price must be positive")
		}
		changes["price"] = *u.Price
	}
	if u.Stock != nil {
		if *u.Stock < 0 {
			return nil, apperr.Validation("stock must not be negative")
		}
		changes["stock"] = *u.Stock
	}
	if u.CategoryID != nil {
		changes["category_id"] = *u.CategoryID
	}
	if u.ImageURL != nil {
		changes["image_url"] = *u.ImageURL
	}
	if u.IsActive != nil {
		changes["is_active"] = *u.IsActive
	}
	if u.IsFeatured != nil {
		changes["is_featured"] = *u.IsFeatured
	}
	if len(changes) > 0 {
		res := c.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, apperr.NotFound("product %s not found", id)
		}
	}
	return c.Product(ctx, id)
}

// DisableProduct hides a product from the storefront. Products are never
// physically deleted because order items reference them.
func (c *Catalog) DisableProduct(ctx context.Context, id string) error {
	f := false
	_, err := c.UpdateProduct(ctx, id, ProductUpdate{IsActive: &f})
	return err
}

func validateProduct(p *models.Product) error {
	p.Slug = strings.TrimSpace(strings.ToLower(p.Slug))
	p.NameEn = strings.TrimSpace(p.NameEn)
	switch {
	case p.Slug == "":
		return apperr.Validation("slug required")
	case p.NameEn == "":
		return apperr.Validation("name_en required")
	case !p.Price.IsPositive():
		return apperr.Validation("price must be positive")
	case p.Stock < 0:
		return apperr.Validation("stock must not be negative")
	}
	return nil
}

func (c *Catalog) Categories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := c.db.WithContext(ctx).Where("is_active = ?", true).Order("sort_order, name_en").Find(&out).Error
	return out, err
}

func (c *Catalog) CreateCategory(ctx context.Context, cat *models.Category) error {
	cat.Slug = strings.TrimSpace(strings.ToLower(cat.Slug))
	if cat.Slug == "" || strings.TrimSpace(cat.NameEn) == "" {
		return apperr.Validation("slug and name_en required")
	}
	if err := c.db.WithContext(ctx).Create(cat).Error; err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("category slug %s already exists", cat.Slug)
		}
		return err
	}
	return nil
}

func (c *Catalog) Artisans(ctx context.Context) ([]models.Artisan, error) {
	var out []models.Artisan
	err := c.db.WithContext(ctx).Where("is_active = ?", true).Order("name_en").Find(&out).Error
	return out, err
}

func (c *Catalog) ArtisanBySlug(ctx context.Context, slug string) (*models.Artisan, error) {
	var a models.Artisan
	if err := c.db.WithContext(ctx).First(&a, "slug = ? AND is_active = ?", slug, true).Error; err != nil {
		return nil, notFound(err, "artisan %s not found", slug)
	}
	return &a, nil
}

// ArtisanForUser returns the artisan profile managed by an artisan-role account.
func (c *Catalog) ArtisanForUser(ctx context.Context, userID string) (*models.Artisan, error) {
	var a models.Artisan
	if err := c.db.WithContext(ctx).First(&a, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err, "no artisan profile linked to this account")
	}
	return &a, nil
}

func (c *Catalog) Banners(ctx context.Context) ([]models.Banner, error) {
	var out []models.Banner
	err := c.db.WithContext(ctx).Where("is_active = ?", true).Order("position").Find(&out).Error
	return out, err
}

func (c *Catalog) CreateBanner(ctx context.Context, b *models.Banner) error {
	if strings.TrimSpace(b.TitleEn) == "" || strings.TrimSpace(b.ImageURL) == "" {
		return apperr.Validation("title_en and image_url required")
	}
	return c.db.WithContext(ctx).Create(b).Error
}

// Upsert helpers keyed by slug; used by the seed command so reruns converge.

func (c *Catalog) UpsertCategory(ctx context.Context, cat *models.Category) error {
	return c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name_en", "name_hi", "image_url", "sort_order", "is_active", "updated_at"}),
	}).Create(cat).Error
}

func (c *Catalog) UpsertArtisan(ctx context.Context, a *models.Artisan) error {
	return c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name_en", "name_hi", "bio_en", "bio_hi", "region", "image_url", "is_active", "updated_at"}),
	}).Create(a).Error
}

// UpsertProduct leaves stock untouched on conflict so reseeding never
// resets live inventory.
func (c *Catalog) UpsertProduct(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	return c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name_en", "name_hi", "description_en", "description_hi", "price",
			"category_id", "artisan_id", "image_url", "is_active", "is_featured", "updated_at",
		}),
	}).Create(p).Error
}

func (c *Catalog) CategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var cat models.Category
	if err := c.db.WithContext(ctx).First(&cat, "slug = ?", slug).Error; err != nil {
		return nil, notFound(err, "category %s not found", slug)
	}
	return &cat, nil
}

func (c *Catalog) ArtisanBySlugAny(ctx context.Context, slug string) (*models.Artisan, error) {
	var a models.Artisan
	if err := c.db.WithContext(ctx).First(&a, "slug = ?", slug).Error; err != nil {
		return nil, notFound(err, "artisan %s not found", slug)
	}
	return &a, nil
}
