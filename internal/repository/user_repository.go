package repository

import (
	"context"

	"grocerystore/internal/domain/model"
)

// UserRepository はアカウントの永続化。見つからない場合はErrNotFound
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// username, is_active, last_login_at だけを書き戻す
	Update(ctx context.Context, user *model.User) error
	// 発行済みアクセストークンを一括で失効させる
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
