package usecase_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"grocerystore/internal/domain/model"
	"grocerystore/internal/infra/lock"
	infraRepo "grocerystore/internal/infra/repository"
	"grocerystore/internal/notify"
	"grocerystore/internal/payment"
	repo "grocerystore/internal/repository"
	"grocerystore/internal/testutil"
	"grocerystore/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type gatewayMock struct{ mock.Mock }

func (m *gatewayMock) CreateSession(ctx context.Context, req payment.SessionRequest) (payment.Session, error) {
	args := m.Called(ctx, req)
	s, _ := args.Get(0).(payment.Session)
	return s, args.Error(1)
}

func (m *gatewayMock) ExpireSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *gatewayMock) ParseWebhook(payload []byte, signature string) (payment.Event, error) {
	args := m.Called(payload, signature)
	ev, _ := args.Get(0).(payment.Event)
	return ev, args.Error(1)
}

type notifierStub struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (n *notifierStub) Enqueue(msg notify.Message) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return true
}

func (n *notifierStub) sent() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.msgs...)
}

// shop は実DB(sqlite)と実repoでusecaseを組み立てる
type shop struct {
	t        *testing.T
	ctx      context.Context
	db       *gorm.DB
	txm      *infraRepo.TxManagerGorm
	repos    repo.TxRepos
	gateway  *gatewayMock
	notifier *notifierStub
	locker   *lock.LocalLocker

	carts   *usecase.CartUsecase
	orders  *usecase.OrderUsecase
	webhook *usecase.WebhookUsecase
	wallets *usecase.WalletUsecase
}

func newShop(t *testing.T) *shop {
	t.Helper()
	return newShopWith(t, nil, time.Minute)
}

// newShopWith は checkout のロックだけ差し替える。lk が nil ならプロセス内ロック
func newShopWith(t *testing.T, lk usecase.Locker, lockTTL time.Duration) *shop {
	t.Helper()

	db := testutil.NewDB(t)
	txm := infraRepo.NewTxManagerGorm(db)
	repos := txm.Repos()
	gw := new(gatewayMock)
	nt := &notifierStub{}
	local := lock.NewLocalLocker()
	if lk == nil {
		lk = local
	}

	return &shop{
		t:        t,
		ctx:      context.Background(),
		db:       db,
		txm:      txm,
		repos:    repos,
		gateway:  gw,
		notifier: nt,
		locker:   local,
		carts:    usecase.NewCartUsecase(txm, repos),
		orders: usecase.NewOrderUsecase(txm, repos, usecase.NewCouponLedger(), gw, lk, nt, zap.NewNop(), usecase.OrderUsecaseConfig{
			Currency: "inr",
			LockTTL:  lockTTL,
		}),
		webhook: usecase.NewWebhookUsecase(txm, gw, zap.NewNop()),
		wallets: usecase.NewWalletUsecase(repos.Wallets()),
	}
}

func (s *shop) user(email string) usecase.Actor {
	s.t.Helper()
	u := &model.User{Username: email, Email: email, PasswordHash: "x", Role: model.RoleUser, IsActive: true}
	require.NoError(s.t, s.repos.Users().Create(s.ctx, u))
	_, err := s.repos.Wallets().Create(s.ctx, u.ID)
	require.NoError(s.t, err)
	return usecase.Actor{UserID: u.ID, Role: model.RoleUser}
}

func (s *shop) admin() usecase.Actor {
	s.t.Helper()
	u := &model.User{Username: "admin", Email: "admin@example.com", PasswordHash: "x", Role: model.RoleAdmin, IsActive: true}
	require.NoError(s.t, s.repos.Users().Create(s.ctx, u))
	return usecase.Actor{UserID: u.ID, Role: model.RoleAdmin}
}

func (s *shop) product(title string, productType string, price string, stock int64) model.Product {
	s.t.Helper()
	p, err := s.repos.Products().Create(s.ctx, model.Product{
		Title:       title,
		ProductType: productType,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		IsActive:    true,
	})
	require.NoError(s.t, err)
	return p
}

func (s *shop) address(actor usecase.Actor) model.Address {
	s.t.Helper()
	a, err := s.repos.Addresses().Create(s.ctx, model.Address{
		UserID:  actor.UserID,
		Name:    "Taro",
		Phone:   "9876543210",
		Address: "1-2-3 Market St",
		City:    "Pune",
		State:   "MH",
	})
	require.NoError(s.t, err)
	return a
}

func (s *shop) coupon(code string, percent string, validTill time.Time, productType string) model.Coupon {
	s.t.Helper()
	c, err := s.repos.Coupons().Create(s.ctx, model.Coupon{
		Code:               code,
		DiscountPercentage: decimal.RequireFromString(percent),
		ValidTill:          validTill,
		ProductType:        productType,
	})
	require.NoError(s.t, err)
	return c
}

func (s *shop) addToCart(actor usecase.Actor, p model.Product, qty int64) {
	s.t.Helper()
	_, err := s.carts.AddOrMergeItem(s.ctx, actor, usecase.AddCartInput{ProductID: p.ID, Quantity: qty})
	require.NoError(s.t, err)
}

// 決済セッション作成は成功させる
func (s *shop) sessionOK(ref string) {
	s.gateway.On("CreateSession", mock.Anything, mock.Anything).
		Return(payment.Session{ID: ref, URL: "https://pay.example/" + ref, Status: model.PaymentStatusPending}, nil).
		Once()
}

func (s *shop) stockOf(id int64) int64 {
	s.t.Helper()
	var p model.Product
	require.NoError(s.t, s.db.Unscoped().First(&p, id).Error)
	return p.Stock
}

func (s *shop) timesUsed(id int64) int64 {
	s.t.Helper()
	var c model.Coupon
	require.NoError(s.t, s.db.First(&c, id).Error)
	return c.TimesUsed
}

func (s *shop) countRedemptions(couponID int64) int64 {
	s.t.Helper()
	var n int64
	require.NoError(s.t, s.db.Model(&model.CouponRedemption{}).Where("coupon_id = ?", couponID).Count(&n).Error)
	return n
}

func (s *shop) countOrders() int64 {
	s.t.Helper()
	var n int64
	require.NoError(s.t, s.db.Model(&model.Order{}).Count(&n).Error)
	return n
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, decimal.RequireFromString(want).StringFixed(2), got.StringFixed(2))
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
