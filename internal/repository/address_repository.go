package repository

import (
	"context"

	"grocerystore/internal/domain/model"
)

type AddressRepository interface {
	Create(ctx context.Context, address model.Address) (model.Address, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)
	// 所有者が一致しない住所は存在しない扱い
	FindOwned(ctx context.Context, addressID int64, userID int64) (model.Address, error)
}
