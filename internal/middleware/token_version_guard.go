package middleware

import (
	"errors"
	"net/http"

	"grocerystore/internal/repository"

	"github.com/labstack/echo/v4"
)

// TokenVersionGuard は強制ログアウト済みのトークンと停止ユーザーを弾く。
// AuthJWT の後ろに置く
func TokenVersionGuard(users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(CtxUserIDKey).(int64)
			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if userID <= 0 || !ok {
				return deny(c, http.StatusUnauthorized, "unauthorized")
			}

			u, err := users.FindByID(c.Request().Context(), userID)
			if errors.Is(err, repository.ErrNotFound) || (err == nil && u == nil) {
				return deny(c, http.StatusUnauthorized, "unauthorized")
			}
			if err != nil {
				c.Set(CtxErrorKey, err)
				return deny(c, http.StatusInternalServerError, "internal")
			}

			//ForceLogoutでDB側だけ進んでいる
			if u.TokenVersion != tv {
				return deny(c, http.StatusUnauthorized, "unauthorized")
			}
			if !u.IsActive {
				return deny(c, http.StatusForbidden, "account_disabled")
			}
			return next(c)
		}
	}
}
