package repository

import (
	"context"

	"grocerystore/internal/domain/model"
)

// InventoryRepository は products.stock を動かす唯一の経路
type InventoryRepository interface {
	// 行ロックを取って現在庫を読む
	LockStock(ctx context.Context, productID int64) (int64, error)
	SetStock(ctx context.Context, productID int64, stock int64) error
	// 条件付き減算。足りなければ false
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)
	// 決済失敗時の戻し
	IncreaseStock(ctx context.Context, productID int64, qty int64) error
	CreateAdjustment(ctx context.Context, adjustment *model.InventoryAdjustment) error
}
