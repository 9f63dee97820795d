package models

import "time"

type NotificationKind string

const (
	NotifyOrderPlaced    NotificationKind = "order_placed"
	NotifyConfirmed      NotificationKind = "order_confirmed"
	NotifyShipped        NotificationKind = "shipped"
	NotifyOutForDelivery NotificationKind = "out_for_delivery"
	NotifyDelivered      NotificationKind = "delivered"
	NotifyCancelled      NotificationKind = "cancelled"
	NotifyRefunded       NotificationKind = "refunded"
)

const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// NotificationEvent is an append-only record of a delivery outcome on one
// channel. At most one "sent" row exists per (order, kind, channel).
type NotificationEvent struct {
	ID           int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       string           `gorm:"size:36;index;not null" json:"user_id"`
	OrderID      string           `gorm:"size:36;not null;uniqueIndex:idx_notify_order_kind_channel" json:"order_id"`
	Kind         NotificationKind `gorm:"size:32;not null;uniqueIndex:idx_notify_order_kind_channel" json:"kind"`
	Channel      Channel          `gorm:"size:10;not null;uniqueIndex:idx_notify_order_kind_channel" json:"channel"`
	Status       OrderStatus      `gorm:"size:20;not null" json:"status"`
	Language     Language         `gorm:"size:5;not null" json:"language"`
	Outcome      string           `gorm:"size:10;not null;uniqueIndex:idx_notify_order_kind_channel" json:"outcome"`
	Error        string           `gorm:"size:500" json:"error,omitempty"`
	DispatchedAt time.Time        `gorm:"not null" json:"dispatched_at"`
}
