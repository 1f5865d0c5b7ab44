package repository

import (
	"context"
	"strings"

	"grocerystore/internal/domain/model"
	repo "grocerystore/internal/repository"

	"gorm.io/gorm"
)

type CouponGormRepository struct {
	db *gorm.DB
}

func NewCouponGormRepository(db *gorm.DB) *CouponGormRepository {
	return &CouponGormRepository{db: db}
}

// code重複はErrDuplicate
func (r *CouponGormRepository) Create(ctx context.Context, c model.Coupon) (model.Coupon, error) {
	c.Code = strings.TrimSpace(c.Code)
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Coupon{}, translate(err)
	}
	return c, nil
}

func (r *CouponGormRepository) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.TrimSpace(code)).
		First(&c).Error
	if err != nil {
		return model.Coupon{}, translate(err)
	}
	return c, nil
}

func (r *CouponGormRepository) List(ctx context.Context) ([]model.Coupon, error) {
	var list []model.Coupon
	if err := r.db.WithContext(ctx).Order("id asc").Find(&list).Error; err != nil {
		return []model.Coupon{}, err
	}
	return list, nil
}

// 0未満にはしない
func (r *CouponGormRepository) AddTimesUsed(ctx context.Context, couponID int64, delta int64) error {
	q := r.db.WithContext(ctx).Model(&model.Coupon{}).Where("id = ?", couponID)
	if delta < 0 {
		q = q.Where("times_used >= ?", -delta)
	}
	res := q.Update("times_used", gorm.Expr("times_used + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type CouponRedemptionGormRepository struct {
	db *gorm.DB
}

func NewCouponRedemptionGormRepository(db *gorm.DB) *CouponRedemptionGormRepository {
	return &CouponRedemptionGormRepository{db: db}
}

func (r *CouponRedemptionGormRepository) Exists(ctx context.Context, userID int64, couponID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CouponRedemption{}).
		Where("user_id = ? AND coupon_id = ?", userID, couponID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *CouponRedemptionGormRepository) Create(ctx context.Context, red model.CouponRedemption) error {
	return translate(r.db.WithContext(ctx).Create(&red).Error)
}
