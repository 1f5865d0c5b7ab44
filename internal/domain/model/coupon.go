package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 割引クーポン。codeはユニーク
type Coupon struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code               string          `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"discount_percentage"`

	//この日まで使える（当日を含む）
	ValidTill time.Time `gorm:"type:date;not null" json:"valid_till"`

	//集計用。上限ではない
	TimesUsed int64 `gorm:"not null;default:0" json:"times_used"`

	//空なら全商品に適用
	ProductType string `gorm:"type:varchar(100)" json:"product_type,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// Scoped reports whether the coupon only applies to one product type.
func (c Coupon) Scoped() bool {
	return c.ProductType != ""
}

// 1ユーザー1回の利用記録
type CouponRedemption struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_coupon_redemptions_user_coupon" json:"user_id"`
	CouponID  int64     `gorm:"not null;uniqueIndex:idx_coupon_redemptions_user_coupon;index" json:"coupon_id"`
	OrderID   int64     `gorm:"not null;index" json:"order_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
