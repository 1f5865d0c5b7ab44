package repository

import (
	"context"

	"grocerystore/internal/domain/model"
)

type CouponRepository interface {
	Create(ctx context.Context, c model.Coupon) (model.Coupon, error)
	FindByCode(ctx context.Context, code string) (model.Coupon, error)
	List(ctx context.Context) ([]model.Coupon, error)

	// times_usedをdeltaだけ動かす（補償では-1）
	AddTimesUsed(ctx context.Context, couponID int64, delta int64) error
}

// 1ユーザー1回の制約は (user_id, coupon_id) のユニーク制約で守る
type CouponRedemptionRepository interface {
	Exists(ctx context.Context, userID int64, couponID int64) (bool, error)

	// 既に使用済みならErrDuplicate
	Create(ctx context.Context, r model.CouponRedemption) error
}
