package usecase

import "grocerystore/internal/domain/model"

// Actor is the authenticated caller of a usecase.
type Actor struct {
	UserID int64
	Role   model.Role
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// 顧客向け操作（カート・注文）は管理者に使わせない
func requireCustomer(a Actor) error {
	if a.UserID <= 0 {
		return ErrUnauthorized
	}
	if a.IsAdmin() {
		return ErrUserOnly
	}
	return nil
}

func requireAdmin(a Actor) error {
	if a.UserID <= 0 {
		return ErrUnauthorized
	}
	if !a.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}
