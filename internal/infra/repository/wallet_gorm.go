package repository

import (
	"context"

	"grocerystore/internal/domain/model"
	repo "grocerystore/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WalletGormRepository struct {
	db *gorm.DB
}

func NewWalletGormRepository(db *gorm.DB) *WalletGormRepository {
	return &WalletGormRepository{db: db}
}

// 残高0で作成
func (r *WalletGormRepository) Create(ctx context.Context, userID int64) (model.Wallet, error) {
	w := model.Wallet{UserID: userID, Balance: decimal.Zero}
	if err := r.db.WithContext(ctx).Create(&w).Error; err != nil {
		return model.Wallet{}, translate(err)
	}
	return w, nil
}

func (r *WalletGormRepository) FindByUserID(ctx context.Context, userID int64) (model.Wallet, error) {
	var w model.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		return model.Wallet{}, translate(err)
	}
	return w, nil
}

// 加算はDB側で行う（読んで書くと同時返金で更新が消える）
func (r *WalletGormRepository) Credit(ctx context.Context, userID int64, amount decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&model.Wallet{}).
		Where("user_id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
