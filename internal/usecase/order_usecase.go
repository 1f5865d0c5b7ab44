package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"grocerystore/internal/domain/model"
	"grocerystore/internal/infra/lock"
	"grocerystore/internal/notify"
	"grocerystore/internal/payment"
	repo "grocerystore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Locker serialises checkouts of the same user.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Notifier queues mail without waiting for delivery.
type Notifier interface {
	Enqueue(msg notify.Message) bool
}

type OrderUsecaseConfig struct {
	Currency string
	LockTTL  time.Duration
	// 決済セッション作成の上限。LockTTL より短くする
	GatewayTimeout time.Duration
}

type OrderUsecase struct {
	tx       repo.TransactionManager
	repos    repo.TxRepos
	coupons  *CouponLedger
	gateway  payment.Gateway
	locker   Locker
	notifier Notifier
	lg       *zap.Logger
	cfg      OrderUsecaseConfig
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	repos repo.TxRepos,
	coupons *CouponLedger,
	gateway payment.Gateway,
	locker Locker,
	notifier Notifier,
	lg *zap.Logger,
	cfg OrderUsecaseConfig,
) *OrderUsecase {
	if cfg.Currency == "" {
		cfg.Currency = "inr"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.GatewayTimeout <= 0 || cfg.GatewayTimeout >= cfg.LockTTL {
		cfg.GatewayTimeout = cfg.LockTTL * 2 / 3
	}
	return &OrderUsecase{
		tx:       tx,
		repos:    repos,
		coupons:  coupons,
		gateway:  gateway,
		locker:   locker,
		notifier: notifier,
		lg:       lg,
		cfg:      cfg,
	}
}

type PlaceOrderInput struct {
	ShippingID     int64
	CouponCode     string
	IdempotencyKey string
}

type OrderDetail struct {
	Order model.Order       `json:"order"`
	Items []model.OrderItem `json:"items"`
}

type OrderPage struct {
	Items []model.Order `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 1回目のトランザクションで確定した内容
type reservation struct {
	user     *model.User
	cartID   int64
	lines    []PricedLine
	coupon   AppliedCoupon
	subtotal decimal.Decimal
	discount decimal.Decimal
	payable  decimal.Decimal
}

// PlaceOrder は在庫を確保してから決済セッションを作り、注文を記録する。
// 決済セッション作成は外部呼び出しなのでトランザクションの外で行い、
// 失敗したら確保した在庫とクーポン使用数を戻す
func (u *OrderUsecase) PlaceOrder(ctx context.Context, actor Actor, in PlaceOrderInput) (OrderDetail, error) {
	if err := requireCustomer(actor); err != nil {
		return OrderDetail{}, err
	}
	if in.ShippingID <= 0 {
		return OrderDetail{}, ErrShippingInfoMissing
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return OrderDetail{}, invalidInput("idempotency key too long")
	}

	release, err := u.locker.Acquire(ctx, "checkout:"+strconv.FormatInt(actor.UserID, 10), u.cfg.LockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return OrderDetail{}, ErrCheckoutInProgress
	}
	if err != nil {
		return OrderDetail{}, internalError(err, "acquire checkout lock")
	}
	defer release()

	// 同じキーなら前回の注文を返す
	if key != "" {
		existing, found, err := u.repos.Orders().FindByIdempotencyKey(ctx, actor.UserID, key)
		if err != nil {
			return OrderDetail{}, internalError(err, "find order by idempotency key")
		}
		if found {
			return u.detail(ctx, u.repos, existing)
		}
	}

	var rsv reservation
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		rsv, err = u.reserve(ctx, r, actor.UserID, in)
		return err
	})
	if err != nil {
		return OrderDetail{}, err
	}

	//ロックが切れる前に諦める
	gwCtx, cancel := context.WithTimeout(ctx, u.cfg.GatewayTimeout)
	sess, err := u.gateway.CreateSession(gwCtx, payment.SessionRequest{
		Amount:          rsv.payable,
		Currency:        u.cfg.Currency,
		CustomerEmail:   rsv.user.Email,
		ClientReference: "user-" + strconv.FormatInt(actor.UserID, 10),
		Description:     fmt.Sprintf("grocerystore order (%d items)", len(rsv.lines)),
	})
	cancel()
	if err != nil {
		u.lg.Warn("payment session failed", zap.Int64("user_id", actor.UserID), zap.Error(err))
		u.compensate(ctx, actor.UserID, rsv)
		return OrderDetail{}, &Error{Kind: ErrPaymentGateway.Kind, Code: ErrPaymentGateway.Code, Message: ErrPaymentGateway.Message, Err: err}
	}

	var out OrderDetail
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		out, err = u.record(ctx, r, actor.UserID, in.ShippingID, key, rsv, sess)
		return err
	})
	if err != nil {
		//注文は残らないので、作ったセッションも支払えないようにする
		u.lg.Error("order record failed after payment session",
			zap.Int64("user_id", actor.UserID),
			zap.String("payment_reference", sess.ID),
			zap.Error(err),
		)
		u.compensate(ctx, actor.UserID, rsv)
		u.expireSession(ctx, actor.UserID, sess.ID)
		return OrderDetail{}, err
	}

	u.sendConfirmation(rsv, out)
	return out, nil
}

func (u *OrderUsecase) reserve(ctx context.Context, r repo.TxRepos, userID int64, in PlaceOrderInput) (reservation, error) {
	var rsv reservation

	user, err := r.Users().FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return rsv, ErrUnauthorized
	}
	if err != nil {
		return rsv, internalError(err, "find user")
	}
	rsv.user = user

	cart, err := r.Carts().FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return rsv, ErrCartEmpty
	}
	if err != nil {
		return rsv, internalError(err, "find cart")
	}
	rsv.cartID = cart.ID

	lines, err := loadCartLines(ctx, r, userID)
	if err != nil {
		return rsv, err
	}
	if len(lines) == 0 {
		return rsv, ErrCartEmpty
	}
	for _, ln := range lines {
		if !ln.Available {
			return rsv, ErrProductNotFound
		}
	}
	rsv.lines = lines

	if _, err := r.Addresses().FindOwned(ctx, in.ShippingID, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return rsv, ErrShippingInfoMissing
		}
		return rsv, internalError(err, "find address")
	}

	applied, err := u.coupons.Validate(ctx, r, in.CouponCode, userID, lines)
	if err != nil {
		return rsv, err
	}
	rsv.coupon = applied

	rsv.subtotal = cartTotal(lines)
	rsv.discount, rsv.payable, err = u.coupons.ComputeAmount(rsv.subtotal, applied.ScopedSubtotal, applied.Percent)
	if err != nil {
		return rsv, err
	}

	//1行でも足りなければトランザクションごと巻き戻る
	for _, ln := range lines {
		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ln.ProductID, ln.Quantity)
		if err != nil {
			return rsv, internalError(err, "decrease stock")
		}
		if !ok {
			return rsv, ErrInsufficientStock
		}
	}

	return rsv, nil
}

func (u *OrderUsecase) record(ctx context.Context, r repo.TxRepos, userID int64, shippingID int64, key string, rsv reservation, sess payment.Session) (OrderDetail, error) {
	status := sess.Status
	if status != model.PaymentStatusCompleted {
		status = model.PaymentStatusPending
	}

	order := model.Order{
		UserID:           userID,
		ShippingID:       shippingID,
		PaymentReference: sess.ID,
		PaymentURL:       sess.URL,
		PaymentStatus:    status,
		OrderStatus:      model.OrderStatusReceived,
		Subtotal:         rsv.subtotal,
		DiscountAmount:   rsv.discount,
		TotalAmount:      rsv.payable,
		Currency:         u.cfg.Currency,
	}
	if rsv.coupon.Coupon != nil {
		id := rsv.coupon.Coupon.ID
		order.CouponID = &id
		order.CouponCode = rsv.coupon.Coupon.Code
	}
	if key != "" {
		order.IdempotencyKey = &key
	}

	//注文に使う明細を先に消す。ロック切れで同じカートを確定した別リクエストが
	//先に消していたら件数が足りないので、この注文は記録しない
	ids := make([]int64, 0, len(rsv.lines))
	for _, ln := range rsv.lines {
		ids = append(ids, ln.CartItemID)
	}
	deleted, err := r.CartItems().DeleteByIDs(ctx, rsv.cartID, ids)
	if err != nil {
		return OrderDetail{}, internalError(err, "clear cart")
	}
	if deleted != int64(len(ids)) {
		return OrderDetail{}, ErrCartChanged
	}

	created, err := r.Orders().Create(ctx, order)
	if err != nil {
		return OrderDetail{}, internalError(err, "create order")
	}

	items := make([]model.OrderItem, 0, len(rsv.lines))
	for _, ln := range rsv.lines {
		items = append(items, model.OrderItem{
			ProductID:           ln.ProductID,
			ProductNameSnapshot: ln.Title,
			ProductTypeSnapshot: ln.ProductType,
			UnitPriceSnapshot:   ln.UnitPrice,
			Quantity:            ln.Quantity,
			LineTotal:           ln.LineTotal,
		})
	}
	if err := r.OrderItems().CreateBulk(ctx, created.ID, items); err != nil {
		return OrderDetail{}, internalError(err, "create order items")
	}

	if rsv.coupon.Coupon != nil {
		err := r.CouponRedemptions().Create(ctx, model.CouponRedemption{
			UserID:   userID,
			CouponID: rsv.coupon.Coupon.ID,
			OrderID:  created.ID,
		})
		if errors.Is(err, repo.ErrDuplicate) {
			return OrderDetail{}, ErrCouponAlreadyUsed
		}
		if err != nil {
			return OrderDetail{}, internalError(err, "create coupon redemption")
		}
	}

	saved, err := r.OrderItems().ListByOrderID(ctx, created.ID)
	if err != nil {
		return OrderDetail{}, internalError(err, "list order items")
	}
	return OrderDetail{Order: created, Items: saved}, nil
}

// compensate は確保した在庫とクーポン使用数を戻す。
// リクエストが切れても実行する
func (u *OrderUsecase) compensate(ctx context.Context, userID int64, rsv reservation) {
	ctx = context.WithoutCancel(ctx)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		for _, ln := range rsv.lines {
			if err := r.Inventory().IncreaseStock(ctx, ln.ProductID, ln.Quantity); err != nil {
				return err
			}
		}
		if rsv.coupon.Coupon != nil {
			if err := r.Coupons().AddTimesUsed(ctx, rsv.coupon.Coupon.ID, -1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		u.lg.Error("checkout compensation failed",
			zap.Int64("user_id", userID),
			zap.Int("lines", len(rsv.lines)),
			zap.Error(err),
		)
	}
}

// 失敗しても注文の結果は変えない。残ったセッションはプロバイダ側の期限で切れる
func (u *OrderUsecase) expireSession(ctx context.Context, userID int64, sessionID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.cfg.GatewayTimeout)
	defer cancel()
	if err := u.gateway.ExpireSession(ctx, sessionID); err != nil {
		u.lg.Error("expire orphaned payment session",
			zap.Int64("user_id", userID),
			zap.String("payment_reference", sessionID),
			zap.Error(err),
		)
	}
}

func (u *OrderUsecase) sendConfirmation(rsv reservation, out OrderDetail) {
	if u.notifier == nil {
		return
	}

	lines := make([]notify.OrderLine, 0, len(out.Items))
	for _, it := range out.Items {
		lines = append(lines, notify.OrderLine{
			Title:     it.ProductNameSnapshot,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPriceSnapshot,
			LineTotal: it.LineTotal,
		})
	}

	html, err := notify.RenderOrderConfirmation(notify.OrderConfirmation{
		OrderID:    out.Order.ID,
		Username:   rsv.user.Username,
		Lines:      lines,
		Subtotal:   out.Order.Subtotal,
		Discount:   out.Order.DiscountAmount,
		Total:      out.Order.TotalAmount,
		Currency:   out.Order.Currency,
		CouponCode: out.Order.CouponCode,
		PaymentURL: out.Order.PaymentURL,
	})
	if err != nil {
		u.lg.Error("render order confirmation", zap.Int64("order_id", out.Order.ID), zap.Error(err))
		return
	}

	u.notifier.Enqueue(notify.Message{
		ID:      uuid.NewString(),
		To:      rsv.user.Email,
		Subject: fmt.Sprintf("Order #%d confirmation", out.Order.ID),
		HTML:    html,
	})
}

// OrderHistory は自分の注文を新しい順に返す
func (u *OrderUsecase) OrderHistory(ctx context.Context, actor Actor, page int, limit int) (OrderPage, error) {
	if actor.UserID <= 0 {
		return OrderPage{}, ErrUnauthorized
	}
	page, limit = normalizePage(page, limit)

	items, total, err := u.repos.Orders().ListByUserID(ctx, actor.UserID, page, limit)
	if err != nil {
		return OrderPage{}, internalError(err, "list orders")
	}
	return OrderPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// GetOrder は本人の注文（管理者は全件）を明細付きで返す
func (u *OrderUsecase) GetOrder(ctx context.Context, actor Actor, orderID int64) (OrderDetail, error) {
	if actor.UserID <= 0 {
		return OrderDetail{}, ErrUnauthorized
	}
	if orderID <= 0 {
		return OrderDetail{}, invalidInput("invalid order id")
	}

	o, err := u.repos.Orders().FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderDetail{}, ErrOrderNotFound
	}
	if err != nil {
		return OrderDetail{}, internalError(err, "find order")
	}
	//他人の注文は存在しない扱い
	if o.UserID != actor.UserID && !actor.IsAdmin() {
		return OrderDetail{}, ErrOrderNotFound
	}
	return u.detail(ctx, u.repos, o)
}

// CancelOrder は注文を返金済みにし、合計の90%をウォレットに戻す。
// 在庫は戻さない
func (u *OrderUsecase) CancelOrder(ctx context.Context, actor Actor, orderID int64) (OrderDetail, error) {
	if err := requireCustomer(actor); err != nil {
		return OrderDetail{}, err
	}
	if orderID <= 0 {
		return OrderDetail{}, invalidInput("invalid order id")
	}

	var out OrderDetail
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Orders().MarkRefunded(ctx, orderID, actor.UserID)
		if err != nil {
			return internalError(err, "mark refunded")
		}
		if !ok {
			return ErrOrderNotFound
		}

		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return internalError(err, "find order")
		}

		refund := RefundAmount(o.TotalAmount)
		if err := r.Wallets().Credit(ctx, actor.UserID, refund); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrWalletNotFound
			}
			return internalError(err, "credit wallet")
		}

		out, err = u.detail(ctx, r, o)
		return err
	})
	if err != nil {
		return OrderDetail{}, err
	}
	return out, nil
}

// RefundAmount is the wallet credit for a cancelled order.
func RefundAmount(total decimal.Decimal) decimal.Decimal {
	return total.Mul(refundFraction).Round(2)
}

func (u *OrderUsecase) detail(ctx context.Context, r repo.TxRepos, o model.Order) (OrderDetail, error) {
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderDetail{}, internalError(err, "list order items")
	}
	return OrderDetail{Order: o, Items: items}, nil
}

func normalizePage(page int, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
