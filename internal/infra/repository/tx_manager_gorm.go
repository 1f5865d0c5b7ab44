package repository

import (
	"context"

	repo "grocerystore/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	db *gorm.DB
}

func (r *txReposGorm) Users() repo.UserRepository           { return NewUserGormRepository(r.db) }
func (r *txReposGorm) Wallets() repo.WalletRepository       { return NewWalletGormRepository(r.db) }
func (r *txReposGorm) Products() repo.ProductRepository     { return NewProductGormRepository(r.db) }
func (r *txReposGorm) Inventory() repo.InventoryRepository  { return NewInventoryGormRepository(r.db) }
func (r *txReposGorm) Carts() repo.CartRepository           { return NewCartGormRepository(r.db) }
func (r *txReposGorm) CartItems() repo.CartItemRepository   { return NewCartItemGormRepository(r.db) }
func (r *txReposGorm) Addresses() repo.AddressRepository    { return NewAddressGormRepository(r.db) }
func (r *txReposGorm) Coupons() repo.CouponRepository       { return NewCouponGormRepository(r.db) }
func (r *txReposGorm) Orders() repo.OrderRepository         { return NewOrderGormRepository(r.db) }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository { return NewOrderItemGormRepository(r.db) }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository   { return NewAuditLogGormRepository(r.db) }
func (r *txReposGorm) PaymentEvents() repo.PaymentEventRepository {
	return NewPaymentEventGormRepository(r.db)
}
func (r *txReposGorm) CouponRedemptions() repo.CouponRedemptionRepository {
	return NewCouponRedemptionGormRepository(r.db)
}

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		return fn(&txReposGorm{db: tx})
	})
}

// Repos returns repositories bound to the plain connection, for reads that
// do not need a transaction.
func (tm *TxManagerGorm) Repos() repo.TxRepos {
	return &txReposGorm{db: tm.db}
}
