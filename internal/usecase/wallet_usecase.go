package usecase

import (
	"context"
	"errors"

	"grocerystore/internal/domain/model"
	repo "grocerystore/internal/repository"
)

type WalletUsecase struct {
	wallets repo.WalletRepository
}

func NewWalletUsecase(wallets repo.WalletRepository) *WalletUsecase {
	return &WalletUsecase{wallets: wallets}
}

// ViewWalletBalance は自分のウォレットを返す
func (u *WalletUsecase) ViewWalletBalance(ctx context.Context, actor Actor) (model.Wallet, error) {
	if err := requireCustomer(actor); err != nil {
		return model.Wallet{}, err
	}

	w, err := u.wallets.FindByUserID(ctx, actor.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Wallet{}, ErrWalletNotFound
	}
	if err != nil {
		return model.Wallet{}, internalError(err, "find wallet")
	}
	return w, nil
}
