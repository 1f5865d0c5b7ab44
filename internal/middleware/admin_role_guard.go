package middleware

import (
	"net/http"
	"strings"

	"grocerystore/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// AdminRoleGuard は AuthJWT の後ろに置き、管理者以外を403で止める
func AdminRoleGuard() echo.MiddlewareFunc {
	return requireRole(model.RoleAdmin)
}

func requireRole(want model.Role) echo.MiddlewareFunc {
	denyCode := strings.ToLower(string(want)) + "_only"

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRoleKey).(string)
			switch model.Role(role) {
			case "":
				return deny(c, http.StatusUnauthorized, "unauthorized")
			case want:
				return next(c)
			default:
				return deny(c, http.StatusForbidden, denyCode)
			}
		}
	}
}
