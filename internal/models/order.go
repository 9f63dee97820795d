package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderCreated        OrderStatus = "created"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderShipped        OrderStatus = "shipped"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
	OrderReturned       OrderStatus = "returned"
	OrderRefunded       OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

type Order struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`
	OrderNumber    string          `gorm:"uniqueIndex;size:32;not null" json:"order_number"`
	UserID         string          `gorm:"size:36;index;not null" json:"user_id"`
	Items          []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Status         OrderStatus     `gorm:"size:20;not null;index" json:"status"`
	PaymentStatus  PaymentStatus   `gorm:"size:20;not null;index" json:"payment_status"`
	PaymentMethod  PaymentMethod   `gorm:"size:10;not null" json:"payment_method"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	ShippingName   string          `gorm:"size:120" json:"shipping_name"`
	ShippingPhone  string          `gorm:"size:20" json:"shipping_phone"`
	ShippingLine   string          `gorm:"size:500" json:"shipping_address"`
	ShippingCity   string          `gorm:"size:120" json:"shipping_city"`
	ShippingPostal string          `gorm:"size:12" json:"shipping_postal_code"`
	Notes          string          `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem is a price snapshot taken when the order was placed. Rows are
// never updated after creation.
type OrderItem struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID       string          `gorm:"size:36;index;not null" json:"order_id"`
	ProductID     string          `gorm:"size:36;index;not null" json:"product_id"`
	ProductNameEn string          `gorm:"size:200" json:"product_name_en"`
	ProductNameHi string          `gorm:"size:200" json:"product_name_hi"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	CreatedAt     time.Time       `json:"created_at"`
}
