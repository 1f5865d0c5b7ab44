package repository

import (
	"context"

	"grocerystore/internal/domain/model"

	"gorm.io/gorm"
)

// AddressGormRepository は配送先の保存先
type AddressGormRepository struct {
	db *gorm.DB
}

func NewAddressGormRepository(db *gorm.DB) *AddressGormRepository {
	return &AddressGormRepository{db: db}
}

func (r *AddressGormRepository) Create(ctx context.Context, a model.Address) (model.Address, error) {
	if err := r.db.WithContext(ctx).Create(&a).Error; err != nil {
		return model.Address{}, translate(err)
	}
	return a, nil
}

// 登録順
func (r *AddressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	list := []model.Address{}
	err := r.db.WithContext(ctx).
		Where(map[string]interface{}{"user_id": userID}).
		Order("id").
		Find(&list).Error
	return list, err
}

// 注文時の配送先確認。他人の住所はErrNotFound
func (r *AddressGormRepository) FindOwned(ctx context.Context, addressID int64, userID int64) (model.Address, error) {
	var a model.Address
	err := r.db.WithContext(ctx).
		Where(map[string]interface{}{"id": addressID, "user_id": userID}).
		Take(&a).Error
	if err != nil {
		return model.Address{}, translate(err)
	}
	return a, nil
}
