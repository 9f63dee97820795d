// Package orders owns order creation, the status and payment state
// machines, and the notifications emitted when an order moves.
package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"haat/internal/apperr"
	"haat/internal/models"
	"haat/internal/notify"
	"haat/internal/store"
)

type Manager struct {
	db         *gorm.DB
	dispatcher notify.Dispatcher
	numbers    *snowflake.Node
	lg         *zap.SugaredLogger
}

// NewManager builds a Manager. node must be unique per running instance so
// order numbers never collide.
func NewManager(db *gorm.DB, dispatcher notify.Dispatcher, node int64, lg *zap.SugaredLogger) (*Manager, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &Manager{db: db, dispatcher: dispatcher, numbers: n, lg: lg}, nil
}

type LineInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type Shipping struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

type CreateInput struct {
	UserID        string
	Items         []LineInput
	Shipping      Shipping
	PaymentMethod models.PaymentMethod
	Notes         string
}

func (s *Shipping) validate() error {
	s.Name = strings.TrimSpace(s.Name)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Address = strings.TrimSpace(s.Address)
	s.City = strings.TrimSpace(s.City)
	s.PostalCode = strings.TrimSpace(s.PostalCode)
	if s.Name == "" || s.Address == "" || s.City == "" || s.PostalCode == "" {
		return apperr.Validation("shipping name, address, city and postal code are required")
	}
	return nil
}

func (in *CreateInput) validate() error {
	if in.UserID == "" {
		return apperr.Validation("order needs a customer")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentCOD
	}
	if in.PaymentMethod != models.PaymentCOD && in.PaymentMethod != models.PaymentOnline {
		return apperr.Validation("unknown payment method %q", in.PaymentMethod)
	}
	if len(in.Notes) > 500 {
		return apperr.Validation("notes must be at most 500 characters")
	}
	if err := in.Shipping.validate(); err != nil {
		return err
	}
	items, err := mergeLines(in.Items)
	if err != nil {
		return err
	}
	in.Items = items
	return nil
}

// mergeLines folds repeated products into one line, keeping first-seen order.
func mergeLines(lines []LineInput) ([]LineInput, error) {
	if len(lines) == 0 {
		return nil, apperr.Validation("order has no items")
	}
	idx := make(map[string]int, len(lines))
	out := make([]LineInput, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			return nil, apperr.Validation("item is missing product_id")
		}
		if l.Quantity < 1 {
			return nil, apperr.Validation("quantity for product %s must be at least 1", l.ProductID)
		}
		if i, ok := idx[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

// Create places an order. Stock for every line is decremented with a
// conditional update inside one transaction; if any line cannot be covered
// the whole order fails and earlier decrements roll back.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*models.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var order *models.Order
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = m.createInTx(tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	m.lg.Infow("order placed", "order", order.OrderNumber, "user", order.UserID, "total", order.Total.StringFixed(2))
	m.notify(ctx, order, models.NotifyOrderPlaced)
	return order, nil
}

// CheckoutCart places an order for everything in the user's cart and empties
// the cart in the same transaction.
func (m *Manager) CheckoutCart(ctx context.Context, in CreateInput) (*models.Order, error) {
	if in.UserID == "" {
		return nil, apperr.Validation("order needs a customer")
	}
	var order *models.Order
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := store.CartItems(tx, in.UserID)
		if err != nil {
			return err
		}
		if len(cart) == 0 {
			return apperr.Validation("cart is empty")
		}
		in.Items = nil
		for _, c := range cart {
			in.Items = append(in.Items, LineInput{ProductID: c.ProductID, Quantity: c.Quantity})
		}
		if err := in.validate(); err != nil {
			return err
		}
		order, err = m.createInTx(tx, in)
		if err != nil {
			return err
		}
		return store.ClearCart(tx, in.UserID)
	})
	if err != nil {
		return nil, err
	}
	m.lg.Infow("cart checked out", "order", order.OrderNumber, "user", order.UserID, "total", order.Total.StringFixed(2))
	m.notify(ctx, order, models.NotifyOrderPlaced)
	return order, nil
}

func (m *Manager) createInTx(tx *gorm.DB, in CreateInput) (*models.Order, error) {
	var customer models.User
	if err := tx.First(&customer, "id = ?", in.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("customer %s not found", in.UserID)
		}
		return nil, err
	}
	if !customer.IsActive {
		return nil, apperr.Validation("customer %s is disabled", in.UserID)
	}
	order := &models.Order{
		OrderNumber:    "HT" + m.numbers.Generate().String(),
		UserID:         in.UserID,
		Status:         models.OrderCreated,
		PaymentStatus:  models.PaymentPending,
		PaymentMethod:  in.PaymentMethod,
		ShippingName:   in.Shipping.Name,
		ShippingPhone:  in.Shipping.Phone,
		ShippingLine:   in.Shipping.Address,
		ShippingCity:   in.Shipping.City,
		ShippingPostal: in.Shipping.PostalCode,
		Notes:          strings.TrimSpace(in.Notes),
		Total:          decimal.Zero,
	}
	for _, line := range in.Items {
		var p models.Product
		if err := tx.First(&p, "id = ?", line.ProductID).Error; err != nil || !p.IsActive {
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			return nil, apperr.NotFound("product %s not found", line.ProductID)
		}
		res := tx.Model(&models.Product{}).
			Where("id = ? AND is_active = ? AND stock >= ?", p.ID, true, line.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", line.Quantity))
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, apperr.New(apperr.KindInsufficientStock, "insufficient stock for %s (%s)", p.NameEn, p.ID)
		}
		sub := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		order.Items = append(order.Items, models.OrderItem{
			ProductID:     p.ID,
			ProductNameEn: p.NameEn,
			ProductNameHi: p.NameHi,
			Quantity:      line.Quantity,
			UnitPrice:     p.Price,
			Subtotal:      sub,
		})
		order.Total = order.Total.Add(sub)
	}
	if err := tx.Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// Transition moves an order to a direct successor of its current status.
func (m *Manager) Transition(ctx context.Context, orderID string, to models.OrderStatus, actorID string) (*models.Order, error) {
	return m.transition(ctx, orderID, to, actorID, false)
}

// Override moves an order to any status, skipping intermediate ones. Terminal
// orders still cannot move. Callers restrict this to super admins.
func (m *Manager) Override(ctx context.Context, orderID string, to models.OrderStatus, actorID string) (*models.Order, error) {
	return m.transition(ctx, orderID, to, actorID, true)
}

func (m *Manager) transition(ctx context.Context, orderID string, to models.OrderStatus, actorID string, override bool) (*models.Order, error) {
	var order models.Order
	var from models.OrderStatus
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order %s not found", orderID)
			}
			return err
		}
		from = order.Status
		if err := checkTransition(from, to, override); err != nil {
			return err
		}
		changes := map[string]any{"status": to}
		if to == models.OrderRefunded && order.PaymentStatus == models.PaymentPaid {
			changes["payment_status"] = models.PaymentRefunded
		}
		res := tx.Model(&models.Order{}).Where("id = ? AND status = ?", order.ID, from).Updates(changes)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.KindInvalidTransition, "order %s changed concurrently", order.OrderNumber)
		}
		if to == models.OrderCancelled {
			for _, it := range order.Items {
				if err := tx.Model(&models.Product{}).Where("id = ?", it.ProductID).
					UpdateColumn("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
					return err
				}
			}
		}
		action := "ORDER_STATUS"
		if override {
			action = "ORDER_STATUS_OVERRIDE"
		}
		if err := store.Audit(ctx, tx, actorID, action, map[string]any{
			"order_id": order.ID, "order_number": order.OrderNumber, "from": from, "to": to,
		}); err != nil {
			return err
		}
		order.Status = to
		if ps, ok := changes["payment_status"]; ok {
			order.PaymentStatus = ps.(models.PaymentStatus)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.lg.Infow("order status changed", "order", order.OrderNumber, "from", from, "to", to, "actor", actorID, "override", override)
	if kind, ok := notifyOn[to]; ok {
		m.notify(ctx, &order, kind)
	}
	return &order, nil
}

// SetPaymentStatus advances the payment dimension, which moves independently
// of the order status.
func (m *Manager) SetPaymentStatus(ctx context.Context, orderID string, to models.PaymentStatus, actorID string) (*models.Order, error) {
	if !ValidPaymentStatus(to) {
		return nil, apperr.Validation("unknown payment status %q", to)
	}
	var order models.Order
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order %s not found", orderID)
			}
			return err
		}
		from := order.PaymentStatus
		if !CanTransitionPayment(from, to) {
			return apperr.New(apperr.KindInvalidTransition, "cannot move payment from %s to %s", from, to)
		}
		res := tx.Model(&models.Order{}).Where("id = ? AND payment_status = ?", order.ID, from).
			Update("payment_status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.KindInvalidTransition, "order %s changed concurrently", order.OrderNumber)
		}
		order.PaymentStatus = to
		return store.Audit(ctx, tx, actorID, "ORDER_PAYMENT", map[string]any{
			"order_id": order.ID, "order_number": order.OrderNumber, "from": from, "to": to,
		})
	})
	if err != nil {
		return nil, err
	}
	m.lg.Infow("payment status changed", "order", order.OrderNumber, "to", to, "actor", actorID)
	return &order, nil
}

// notify is best-effort: failures are logged and never undo the change.
func (m *Manager) notify(ctx context.Context, order *models.Order, kind models.NotificationKind) {
	if m.dispatcher == nil {
		return
	}
	var user models.User
	if err := m.db.WithContext(ctx).First(&user, "id = ?", order.UserID).Error; err != nil {
		m.lg.Warnw("notification skipped, recipient not found", "order", order.OrderNumber, "user", order.UserID, "error", err)
		return
	}
	ev := notify.Event{
		UserID:      user.ID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Kind:        kind,
		Status:      order.Status,
		Language:    user.Language,
		Name:        user.Name,
		Email:       user.Email,
		PushToken:   user.PushToken,
	}
	if err := m.dispatcher.Dispatch(ctx, ev); err != nil {
		m.lg.Warnw("notification dispatch failed", "order", order.OrderNumber, "kind", kind, "error", err)
	}
}
