package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"grocerystore/internal/domain/model"
	repo "grocerystore/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	hundred        = decimal.NewFromInt(100)
	minimumOrder   = decimal.NewFromInt(100)
	refundFraction = decimal.RequireFromString("0.9")
)

// PricedLine is a cart line with the product facts checkout needs.
type PricedLine struct {
	CartItemID  int64
	ProductID   int64
	Title       string
	ProductType string
	UnitPrice   decimal.Decimal
	Quantity    int64
	LineTotal   decimal.Decimal
	Available   bool
}

// AppliedCoupon is the result of a successful coupon validation.
// Coupon is nil when no code was given.
type AppliedCoupon struct {
	Coupon         *model.Coupon
	Percent        decimal.Decimal
	ScopedSubtotal decimal.Decimal
}

// CouponLedger validates discount codes and computes payable amounts.
type CouponLedger struct {
	now func() time.Time
}

func NewCouponLedger() *CouponLedger {
	return &CouponLedger{now: time.Now}
}

// Validate resolves code against the cart. Empty code means no discount.
// The redemption check here is only a pre-check; the unique index on
// coupon_redemptions is what finally enforces one use per user.
func (l *CouponLedger) Validate(ctx context.Context, r repo.TxRepos, code string, userID int64, lines []PricedLine) (AppliedCoupon, error) {
	subtotal := cartTotal(lines)

	//コードは登録時に大文字へ揃えている
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return AppliedCoupon{Percent: decimal.Zero, ScopedSubtotal: subtotal}, nil
	}

	c, err := r.Coupons().FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return AppliedCoupon{}, ErrCouponNotFound
	}
	if err != nil {
		return AppliedCoupon{}, internalError(err, "find coupon")
	}

	if dateOnly(c.ValidTill).Before(dateOnly(l.now())) {
		return AppliedCoupon{}, ErrCouponExpired
	}

	scoped := subtotal
	if c.Scoped() {
		scoped = decimal.Zero
		matched := false
		for _, ln := range lines {
			if ln.ProductType == c.ProductType {
				scoped = scoped.Add(ln.LineTotal)
				matched = true
			}
		}
		if !matched {
			return AppliedCoupon{}, ErrCouponNotApplicable
		}
	}

	used, err := r.CouponRedemptions().Exists(ctx, userID, c.ID)
	if err != nil {
		return AppliedCoupon{}, internalError(err, "check coupon redemption")
	}
	if used {
		return AppliedCoupon{}, ErrCouponAlreadyUsed
	}

	//利用回数は集計用
	if err := r.Coupons().AddTimesUsed(ctx, c.ID, 1); err != nil {
		return AppliedCoupon{}, internalError(err, "increment coupon usage")
	}

	return AppliedCoupon{Coupon: &c, Percent: c.DiscountPercentage, ScopedSubtotal: scoped}, nil
}

// ComputeAmount returns the discount and the payable amount, both rounded
// to two decimals.
func (l *CouponLedger) ComputeAmount(total decimal.Decimal, scopedSubtotal decimal.Decimal, percent decimal.Decimal) (discount decimal.Decimal, payable decimal.Decimal, err error) {
	if total.LessThan(minimumOrder) {
		return decimal.Zero, decimal.Zero, ErrMinimumOrderNotMet
	}
	discount = scopedSubtotal.Mul(percent).Div(hundred).Round(2)
	payable = total.Sub(discount).Round(2)
	return discount, payable, nil
}

func cartTotal(lines []PricedLine) decimal.Decimal {
	sum := decimal.Zero
	for _, ln := range lines {
		sum = sum.Add(ln.LineTotal)
	}
	return sum
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
