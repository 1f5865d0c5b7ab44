package repository

import (
	"context"

	"grocerystore/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartGormRepository は1ユーザー1カートのヘッダ
type CartGormRepository struct {
	db *gorm.DB
}

func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// 同時に作られても user_id のユニーク制約で1行になる
func (r *CartGormRepository) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&model.Cart{UserID: userID}).Error
	if err != nil {
		return model.Cart{}, translate(err)
	}
	return r.FindByUserID(ctx, userID)
}

func (r *CartGormRepository) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	var c model.Cart
	if err := r.db.WithContext(ctx).Where(map[string]interface{}{"user_id": userID}).Take(&c).Error; err != nil {
		return model.Cart{}, translate(err)
	}
	return c, nil
}

// CartItemGormRepository はカート明細。価格は追加時点のスナップショット
type CartItemGormRepository struct {
	db *gorm.DB
}

func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

func (r *CartItemGormRepository) inCart(ctx context.Context, cartID int64) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.CartItem{}).Where("cart_id = ?", cartID)
}

// 追加順
func (r *CartItemGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	lines := []model.CartItem{}
	if err := r.inCart(ctx, cartID).Order("id").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *CartItemGormRepository) FindByCartAndProductForUpdate(ctx context.Context, cartID int64, productID int64) (model.CartItem, error) {
	var line model.CartItem
	err := r.inCart(ctx, cartID).
		Where("product_id = ?", productID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&line).Error
	if err != nil {
		return model.CartItem{}, translate(err)
	}
	return line, nil
}

func (r *CartItemGormRepository) Create(ctx context.Context, item model.CartItem) (model.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return model.CartItem{}, translate(err)
	}
	return item, nil
}

// quantity と line_total は常に組で書く
func (r *CartItemGormRepository) UpdateQuantity(ctx context.Context, item model.CartItem) error {
	return affectedOne(r.db.WithContext(ctx).
		Model(&model.CartItem{ID: item.ID}).
		UpdateColumns(map[string]interface{}{
			"quantity":   item.Quantity,
			"line_total": item.LineTotal,
		}))
}

func (r *CartItemGormRepository) DeleteByCartAndProduct(ctx context.Context, cartID int64, productID int64) error {
	return affectedOne(r.db.WithContext(ctx).
		Where(map[string]interface{}{"cart_id": cartID, "product_id": productID}).
		Delete(&model.CartItem{}))
}

// 注文に使った明細だけ消す。確定中に追加された行は残る。
// 他の確定処理が先に消していた行は件数に入らない
func (r *CartItemGormRepository) DeleteByIDs(ctx context.Context, cartID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Where("id IN ?", ids).
		Delete(&model.CartItem{})
	return res.RowsAffected, res.Error
}
