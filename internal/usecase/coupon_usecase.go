package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocerystore/internal/domain/model"
	repo "grocerystore/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponUsecase は管理者のクーポン登録と一覧
type CouponUsecase struct {
	tx    repo.TransactionManager
	repos repo.TxRepos
	now   func() time.Time
}

func NewCouponUsecase(tx repo.TransactionManager, repos repo.TxRepos) *CouponUsecase {
	return &CouponUsecase{tx: tx, repos: repos, now: time.Now}
}

type CouponInput struct {
	Code               string
	DiscountPercentage decimal.Decimal
	// YYYY-MM-DD
	ValidTill   string
	ProductType string
}

// CreateCoupons は全件検証してからまとめて登録する。1件でも不正なら何も作らない
func (u *CouponUsecase) CreateCoupons(ctx context.Context, actor Actor, list []CouponInput) ([]model.Coupon, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, invalidInput("no coupons given")
	}

	today := dateOnly(u.now())
	seen := make(map[string]struct{}, len(list))
	coupons := make([]model.Coupon, 0, len(list))
	for i, in := range list {
		code := strings.ToUpper(strings.TrimSpace(in.Code))
		if code == "" || len(code) > 50 {
			return nil, invalidInput(fmt.Sprintf("coupon %d: invalid code", i))
		}
		if _, dup := seen[code]; dup {
			return nil, ErrDuplicateCoupon
		}
		seen[code] = struct{}{}

		if !in.DiscountPercentage.IsPositive() || in.DiscountPercentage.GreaterThan(hundred) {
			return nil, invalidInput(fmt.Sprintf("coupon %d: discount_percentage must be in (0, 100]", i))
		}

		till, err := time.Parse(time.DateOnly, strings.TrimSpace(in.ValidTill))
		if err != nil {
			return nil, invalidInput(fmt.Sprintf("coupon %d: valid_till must be YYYY-MM-DD", i))
		}
		if till.Before(today) {
			return nil, invalidInput(fmt.Sprintf("coupon %d: valid_till is in the past", i))
		}

		coupons = append(coupons, model.Coupon{
			Code:               code,
			DiscountPercentage: in.DiscountPercentage.Round(2),
			ValidTill:          till,
			ProductType:        strings.TrimSpace(in.ProductType),
		})
	}

	out := make([]model.Coupon, 0, len(coupons))
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		for _, c := range coupons {
			created, err := r.Coupons().Create(ctx, c)
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrDuplicateCoupon
			}
			if err != nil {
				return internalError(err, "create coupon")
			}

			if err := writeAudit(ctx, r, model.AuditLog{
				ActorUserID:  actor.UserID,
				Action:       model.AuditActionCreateCoupon,
				ResourceType: model.AuditResourceCoupon,
				ResourceID:   created.ID,
				AfterJSON: fmt.Sprintf(`{"code":%q,"discount_percentage":%q,"valid_till":%q}`,
					created.Code, created.DiscountPercentage.StringFixed(2), created.ValidTill.Format(time.DateOnly)),
			}); err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *CouponUsecase) ListCoupons(ctx context.Context, actor Actor) ([]model.Coupon, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	list, err := u.repos.Coupons().List(ctx)
	if err != nil {
		return nil, internalError(err, "list coupons")
	}
	return list, nil
}
