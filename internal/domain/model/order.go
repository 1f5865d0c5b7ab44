package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 決済の状態。決済プロバイダのwebhookで進む
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

var paymentStatusRank = map[PaymentStatus]int{
	PaymentStatusPending:   0,
	PaymentStatusFailed:    1,
	PaymentStatusCompleted: 2,
	PaymentStatusRefunded:  3,
}

// Rank orders payment statuses so that late or replayed events never move
// an order backwards. Unknown statuses rank -1.
func (s PaymentStatus) Rank() int {
	r, ok := paymentStatusRank[s]
	if !ok {
		return -1
	}
	return r
}

// Below returns every known status ranked strictly lower than s.
func (s PaymentStatus) Below() []PaymentStatus {
	out := make([]PaymentStatus, 0, len(paymentStatusRank))
	for st, r := range paymentStatusRank {
		if r < s.Rank() {
			out = append(out, st)
		}
	}
	return out
}

// 配送の状態。管理者が前にだけ進める
type OrderStatus string

const (
	OrderStatusReceived  OrderStatus = "received"
	OrderStatusPacked    OrderStatus = "packed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusReturned  OrderStatus = "returned"
)

var orderStatusLadder = []OrderStatus{
	OrderStatusReceived,
	OrderStatusPacked,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusReturned,
}

// Position returns the index of s on the fulfilment ladder, or -1.
func (s OrderStatus) Position() int {
	for i, st := range orderStatusLadder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) Valid() bool {
	return s.Position() >= 0
}

type Order struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64 `gorm:"not null;index;uniqueIndex:idx_orders_user_idempotency" json:"user_id"`
	ShippingID int64 `gorm:"not null" json:"shipping_id"`

	//決済プロバイダ側のセッションID
	PaymentReference string        `gorm:"type:varchar(255);not null;index" json:"payment_reference"`
	PaymentURL       string        `gorm:"type:text" json:"payment_url"`
	PaymentStatus    PaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	OrderStatus      OrderStatus   `gorm:"type:varchar(20);not null;index" json:"order_status"`

	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Currency       string          `gorm:"type:varchar(10);not null" json:"currency"`

	CouponID   *int64 `gorm:"index" json:"coupon_id,omitempty"`
	CouponCode string `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`

	//二重送信防止キー（任意）
	IdempotencyKey *string `gorm:"type:varchar(255);uniqueIndex:idx_orders_user_idempotency" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
