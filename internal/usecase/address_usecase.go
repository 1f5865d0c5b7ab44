package usecase

import (
	"context"
	"strings"

	"grocerystore/internal/domain/model"
	"grocerystore/internal/repository"
)

type AddressCreateInput struct {
	Name       string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
}

type AddressUsecase struct {
	addresses repository.AddressRepository
}

func NewAddressUsecase(addresses repository.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses}
}

// AddShippingAddress は配送先を登録する。電話番号は数字10桁
func (u *AddressUsecase) AddShippingAddress(ctx context.Context, actor Actor, in AddressCreateInput) (model.Address, error) {
	if err := requireCustomer(actor); err != nil {
		return model.Address{}, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.PostalCode = strings.TrimSpace(in.PostalCode)

	if in.Name == "" || in.Address == "" || in.City == "" || in.State == "" {
		return model.Address{}, invalidInput("name, address, city and state are required")
	}
	if !validPhone(in.Phone) {
		return model.Address{}, invalidInput("phone must be exactly 10 digits")
	}

	a, err := u.addresses.Create(ctx, model.Address{
		UserID:     actor.UserID,
		Name:       in.Name,
		Phone:      in.Phone,
		Address:    in.Address,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
	})
	if err != nil {
		return model.Address{}, internalError(err, "create address")
	}
	return a, nil
}

func (u *AddressUsecase) ListShippingAddresses(ctx context.Context, actor Actor) ([]model.Address, error) {
	if err := requireCustomer(actor); err != nil {
		return nil, err
	}

	list, err := u.addresses.ListByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, internalError(err, "list addresses")
	}
	return list, nil
}

func validPhone(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
