package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"grocerystore/internal/domain/model"
	"grocerystore/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

type UserDTO struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	IsActive     bool   `json:"is_active"`
}

type AccessTokenDTO struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

type LoginResult struct {
	User  UserDTO        `json:"user"`
	Token AccessTokenDTO `json:"token"`
}

type ForceLogoutResult struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type AuthUsecase struct {
	tx    repository.TransactionManager
	users repository.UserRepository
	cfg   AuthConfig
	now   func() time.Time
}

func NewAuthUsecase(tx repository.TransactionManager, users repository.UserRepository, cfg AuthConfig) *AuthUsecase {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * time.Minute
	}
	return &AuthUsecase{tx: tx, users: users, cfg: cfg, now: time.Now}
}

// Register はユーザーと残高0のウォレットを同じトランザクションで作る
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return UserDTO{}, invalidInput("invalid email")
	}
	if username == "" || len(username) > 100 {
		return UserDTO{}, invalidInput("invalid username")
	}
	//bcryptは72バイトまで
	if len(in.Password) < 8 || len(in.Password) > 72 {
		return UserDTO{}, invalidInput("password must be 8 to 72 characters")
	}

	//パスワードは必ずハッシュ化して保存
	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserDTO{}, internalError(err, "hash password")
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
		IsActive:     true,
	}

	err = u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		if err := r.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailTaken
			}
			return internalError(err, "create user")
		}
		if _, err := r.Wallets().Create(ctx, user.ID); err != nil {
			return internalError(err, "create wallet")
		}
		return nil
	})
	if err != nil {
		return UserDTO{}, err
	}

	return toUserDTO(user), nil
}

// Login はパスワードを照合してアクセストークンを発行する
func (u *AuthUsecase) Login(ctx context.Context, email string, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return LoginResult{}, invalidInput("email and password are required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, internalError(err, "find user")
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return LoginResult{}, ErrForbidden
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	now := u.now()
	user.LastLoginAt = &now
	if err := u.users.Update(ctx, user); err != nil {
		return LoginResult{}, internalError(err, "update last login")
	}

	token, err := u.issueAccessToken(user, now)
	if err != nil {
		return LoginResult{}, internalError(err, "sign token")
	}

	return LoginResult{
		User: toUserDTO(user),
		Token: AccessTokenDTO{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int(u.cfg.TokenTTL.Seconds()),
		},
	}, nil
}

// ForceLogout は対象ユーザーのtoken_versionを進め、発行済みトークンを無効にする
func (u *AuthUsecase) ForceLogout(ctx context.Context, actor Actor, targetUserID int64) (ForceLogoutResult, error) {
	if err := requireAdmin(actor); err != nil {
		return ForceLogoutResult{}, err
	}
	if targetUserID <= 0 {
		return ForceLogoutResult{}, invalidInput("invalid user id")
	}

	var out ForceLogoutResult
	err := u.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		before, err := r.Users().FindByID(ctx, targetUserID)
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(KindNotFound, "user_not_found", "user not found")
		}
		if err != nil {
			return internalError(err, "find user")
		}

		if err := r.Users().IncrementTokenVersion(ctx, targetUserID); err != nil {
			return internalError(err, "increment token version")
		}

		out = ForceLogoutResult{UserID: targetUserID, NewTokenVersion: before.TokenVersion + 1}
		return writeAudit(ctx, r, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionForceLogout,
			ResourceType: model.AuditResourceUser,
			ResourceID:   targetUserID,
			BeforeJSON:   `{"token_version":` + strconv.Itoa(before.TokenVersion) + `}`,
			AfterJSON:    `{"token_version":` + strconv.Itoa(out.NewTokenVersion) + `}`,
		})
	})
	if err != nil {
		return ForceLogoutResult{}, err
	}
	return out, nil
}

func (u *AuthUsecase) issueAccessToken(user *model.User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  now.Add(u.cfg.TokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(u.cfg.JWTSecret))
}

func toUserDTO(user *model.User) UserDTO {
	return UserDTO{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Role:         string(user.Role),
		TokenVersion: user.TokenVersion,
		IsActive:     user.IsActive,
	}
}
