package orders

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"haat/internal/apperr"
	"haat/internal/models"
	"haat/internal/store"
)

func (m *Manager) Get(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := m.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error; err != nil {
		return nil, orderNotFound(err, id)
	}
	return &o, nil
}

// GetForUser looks an order up by its number, scoped to its owner. Another
// user's order is reported as missing.
func (m *Manager) GetForUser(ctx context.Context, number, userID string) (*models.Order, error) {
	var o models.Order
	err := m.db.WithContext(ctx).Preload("Items").
		First(&o, "order_number = ? AND user_id = ?", number, userID).Error
	if err != nil {
		return nil, orderNotFound(err, number)
	}
	return &o, nil
}

func (m *Manager) ListForUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	limit, offset = store.Page(limit, offset)
	var out []models.Order
	err := m.db.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).
		Order("created_at desc, order_number desc").Limit(limit).Offset(offset).Find(&out).Error
	return out, err
}

type Filter struct {
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
	UserID        string
	Limit         int
	Offset        int
}

// List returns a page of orders plus the total count matching f.
func (m *Manager) List(ctx context.Context, f Filter) ([]models.Order, int64, error) {
	limit, offset := store.Page(f.Limit, f.Offset)
	q := m.db.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		if !ValidStatus(f.Status) {
			return nil, 0, apperr.Validation("unknown order status %q", f.Status)
		}
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		if !ValidPaymentStatus(f.PaymentStatus) {
			return nil, 0, apperr.Validation("unknown payment status %q", f.PaymentStatus)
		}
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []models.Order
	err := q.Preload("Items").Order("created_at desc, order_number desc").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

// Notifications returns the delivery record of an order, oldest first.
func (m *Manager) Notifications(ctx context.Context, orderID string) ([]models.NotificationEvent, error) {
	var n int64
	if err := m.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.NotFound("order %s not found", orderID)
	}
	var out []models.NotificationEvent
	err := m.db.WithContext(ctx).Where("order_id = ?", orderID).Order("dispatched_at, id").Find(&out).Error
	return out, err
}

func orderNotFound(err error, ref string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("order %s not found", ref)
	}
	return err
}
