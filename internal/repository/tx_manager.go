package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Users() UserRepository
	Wallets() WalletRepository
	Products() ProductRepository
	Inventory() InventoryRepository
	Carts() CartRepository
	CartItems() CartItemRepository
	Addresses() AddressRepository
	Coupons() CouponRepository
	CouponRedemptions() CouponRedemptionRepository
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	PaymentEvents() PaymentEventRepository
	AuditLogs() AuditLogRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
