package repository

import (
	"context"
	"time"

	"grocerystore/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page          int
	Limit         int
	OrderStatus   string
	PaymentStatus string
	UserID        *int64
	From          *time.Time
	To            *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (model.Order, error)

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	// 現在のステータスがfromのときだけtoに進める
	AdvanceStatus(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) (bool, error)

	// 本人の未返金注文だけ返金済みにする
	MarkRefunded(ctx context.Context, orderID int64, userID int64) (bool, error)

	// 参照が一致し、今より低い状態の注文だけ更新する。更新件数を返す
	UpdatePaymentStatus(ctx context.Context, reference string, status model.PaymentStatus) (int64, error)
	CountByPaymentReference(ctx context.Context, reference string) (int64, error)
}

type OrderItemRepository interface {
	CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
}
