package handler

import (
	"net/http"

	"grocerystore/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type AdminCouponHandler struct {
	uc *usecase.CouponUsecase
}

func NewAdminCouponHandler(uc *usecase.CouponUsecase) *AdminCouponHandler {
	return &AdminCouponHandler{uc: uc}
}

type CouponRequest struct {
	Code               string          `json:"code" validate:"required,max=50"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	ValidTill          string          `json:"valid_till" validate:"required,datetime=2006-01-02"`
	ProductType        string          `json:"product_type" validate:"max=100"`
}

type CreateCouponsRequest struct {
	Coupons []CouponRequest `json:"coupons" validate:"required,min=1,dive"`
}

func (h *AdminCouponHandler) RegisterRoutes(admin *echo.Group) {
	admin.POST("/coupons", h.create)
	admin.GET("/coupons", h.list)
}

func (h *AdminCouponHandler) create(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateCouponsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	in := make([]usecase.CouponInput, 0, len(req.Coupons))
	for _, cp := range req.Coupons {
		in = append(in, usecase.CouponInput{
			Code:               cp.Code,
			DiscountPercentage: cp.DiscountPercentage,
			ValidTill:          cp.ValidTill,
			ProductType:        cp.ProductType,
		})
	}

	out, err := h.uc.CreateCoupons(c.Request().Context(), actor, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"coupons": out})
}

func (h *AdminCouponHandler) list(c echo.Context) error {
	actor, ok := actorFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.uc.ListCoupons(c.Request().Context(), actor)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"coupons": out})
}
