package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品。stockは注文確定時にだけ減る
type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	//クーポンの適用範囲に使うカテゴリ
	ProductType string `gorm:"type:varchar(100);not null;index" json:"product_type"`

	Price decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock int64           `gorm:"not null;check:chk_products_stock_non_negative,stock >= 0" json:"stock"`

	IsActive  bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
