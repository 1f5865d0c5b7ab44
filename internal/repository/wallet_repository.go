package repository

import (
	"context"

	"grocerystore/internal/domain/model"

	"github.com/shopspring/decimal"
)

type WalletRepository interface {
	Create(ctx context.Context, userID int64) (model.Wallet, error)
	FindByUserID(ctx context.Context, userID int64) (model.Wallet, error)
	Credit(ctx context.Context, userID int64, amount decimal.Decimal) error
}
