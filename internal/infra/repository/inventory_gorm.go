package repository

import (
	"context"

	"grocerystore/internal/domain/model"
	repo "grocerystore/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryGormRepository は products.stock を直接操作する
type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// products 行への更新クエリ。unscoped なら論理削除済みも対象
func (r *InventoryGormRepository) stockOf(ctx context.Context, productID int64, unscoped bool) *gorm.DB {
	q := r.db.WithContext(ctx)
	if unscoped {
		q = q.Unscoped()
	}
	return q.Model(&model.Product{}).Where("id = ?", productID)
}

// SELECT ... FOR UPDATE。sqlite では Locking 句は無視される
func (r *InventoryGormRepository) LockStock(ctx context.Context, productID int64) (int64, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "stock").
		Where("id = ?", productID).
		Take(&p).Error
	if err != nil {
		return 0, translate(err)
	}
	return p.Stock, nil
}

func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, stock int64) error {
	return affectedOne(r.stockOf(ctx, productID, false).UpdateColumn("stock", stock))
}

// stock >= qty を条件に入れて1文で減らす。競合しても負にならない
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	res := r.stockOf(ctx, productID, false).
		Where("stock >= ?", qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// 予約後に商品が消されても在庫は戻す
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	return affectedOne(r.stockOf(ctx, productID, true).UpdateColumn("stock", gorm.Expr("stock + ?", qty)))
}

func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj *model.InventoryAdjustment) error {
	return translate(r.db.WithContext(ctx).Create(adj).Error)
}

func affectedOne(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
