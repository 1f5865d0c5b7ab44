package repository

import (
	"context"

	"grocerystore/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
}

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)

	// 同じ商品の明細を行ロック付きで取得。無ければErrNotFound
	FindByCartAndProductForUpdate(ctx context.Context, cartID int64, productID int64) (model.CartItem, error)

	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, item model.CartItem) error
	DeleteByCartAndProduct(ctx context.Context, cartID int64, productID int64) error

	// 注文に使った明細だけ消し、消した件数を返す
	DeleteByIDs(ctx context.Context, cartID int64, ids []int64) (int64, error)
}
