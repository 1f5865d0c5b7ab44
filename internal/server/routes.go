package server

import (
	"net/http"

	"grocerystore/internal/handler"
	"grocerystore/internal/middleware"
	"grocerystore/internal/repository"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	JWTSecret string
	Users     repository.UserRepository

	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Cart         *handler.CartHandler
	Address      *handler.AddressHandler
	Order        *handler.OrderHandler
	Wallet       *handler.WalletHandler
	Webhook      *handler.WebhookHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminProduct *handler.AdminProductHandler
	AdminCoupon  *handler.AdminCouponHandler
	AdminUser    *handler.AdminUserHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	//公開
	h.Auth.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.Webhook.RegisterRoutes(e)

	//ログイン必須
	authed := []echo.MiddlewareFunc{
		middleware.AuthJWT(h.JWTSecret),
		middleware.TokenVersionGuard(h.Users),
	}
	h.Cart.RegisterRoutes(e, authed...)
	h.Address.RegisterRoutes(e, authed...)
	h.Order.RegisterRoutes(e, authed...)
	h.Wallet.RegisterRoutes(e, authed...)

	//管理者
	admin := e.Group("/admin", append(authed, middleware.AdminRoleGuard())...)
	h.AdminOrder.RegisterRoutes(admin)
	h.AdminProduct.RegisterRoutes(admin)
	h.AdminCoupon.RegisterRoutes(admin)
	h.AdminUser.RegisterRoutes(admin)
}
