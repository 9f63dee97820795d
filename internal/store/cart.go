package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"haat/internal/apperr"
	"haat/internal/models"
)

type Carts struct {
	db *gorm.DB
}

func (c *Carts) List(ctx context.Context, userID string) ([]models.CartItem, error) {
	return CartItems(c.db.WithContext(ctx), userID)
}

// CartItems loads a user's cart with products using db, which may be a transaction.
func CartItems(db *gorm.DB, userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := db.Preload("Product").Where("user_id = ?", userID).Order("created_at").Find(&items).Error
	return items, err
}

// Add puts quantity units of a product in the cart, adding to any existing line.
func (c *Carts) Add(ctx context.Context, userID, productID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}
	if err := c.activeProduct(ctx, productID); err != nil {
		return nil, err
	}
	item := models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]any{"quantity": gorm.Expr("cart_items.quantity + ?", quantity)}),
	}).Create(&item).Error
	if err != nil {
		return nil, err
	}
	return c.get(ctx, userID, productID)
}

func (c *Carts) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, apperr.Validation("quantity must be at least 1")
	}
	res := c.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("product %s is not in the cart", productID)
	}
	return c.get(ctx, userID, productID)
}

func (c *Carts) Remove(ctx context.Context, userID, productID string) error {
	return c.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).Error
}

func (c *Carts) Clear(ctx context.Context, userID string) error {
	return ClearCart(c.db.WithContext(ctx), userID)
}

func ClearCart(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

func (c *Carts) get(ctx context.Context, userID, productID string) (*models.CartItem, error) {
	var item models.CartItem
	err := c.db.WithContext(ctx).Preload("Product").
		First(&item, "user_id = ? AND product_id = ?", userID, productID).Error
	if err != nil {
		return nil, notFound(err, "product %s is not in the cart", productID)
	}
	return &item, nil
}

func (c *Carts) activeProduct(ctx context.Context, productID string) error {
	var n int64
	err := c.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND is_active = ?", productID, true).Count(&n).Error
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("product %s not found", productID)
	}
	return nil
}
