package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"haat/internal/apperr"
	"haat/internal/models"
)

type Wishlists struct {
	db *gorm.DB
}

func (w *Wishlists) List(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := w.db.WithContext(ctx).Preload("Product").
		Where("user_id = ?", userID).Order("created_at desc").Find(&items).Error
	return items, err
}

// Add is idempotent: adding a product twice keeps one entry.
func (w *Wishlists) Add(ctx context.Context, userID, productID string) error {
	var n int64
	if err := w.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND is_active = ?", productID, true).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("product %s not found", productID)
	}
	return w.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WishlistItem{UserID: userID, ProductID: productID}).Error
}

func (w *Wishlists) Remove(ctx context.Context, userID, productID string) error {
	return w.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{}).Error
}
