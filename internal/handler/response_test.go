package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"grocerystore/internal/middleware"
	"grocerystore/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantBody string
	}{
		{usecase.ErrCartEmpty, http.StatusPreconditionFailed, `"code":"cart_empty"`},
		{usecase.ErrCouponExpired, http.StatusGone, `"code":"coupon_expired"`},
		{usecase.ErrInsufficientStock, http.StatusConflict, `"code":"insufficient_stock"`},
		{usecase.ErrInvalidTransition, http.StatusUnprocessableEntity, `"code":"invalid_transition"`},
		{usecase.ErrUserOnly, http.StatusForbidden, `"code":"user_only"`},
		{usecase.ErrOrderNotFound, http.StatusNotFound, `"code":"order_not_found"`},
		{usecase.ErrInvalidCredentials, http.StatusUnauthorized, `"code":"invalid_credentials"`},
		{usecase.ErrPaymentGateway, http.StatusBadGateway, `"code":"payment_gateway_error"`},
		{errors.New("db is on fire"), http.StatusInternalServerError, `"error":"internal error"`},
	}

	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			assert.NoError(t, writeError(c, tt.err))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.NotContains(t, rec.Body.String(), "fire")
			assert.Equal(t, tt.err, c.Get(middleware.CtxErrorKey))
		})
	}
}

func TestActorFromContext(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := actorFromContext(c)
	assert.False(t, ok)

	c.Set(middleware.CtxUserIDKey, int64(7))
	c.Set(middleware.CtxUserRoleKey, "ADMIN")
	a, ok := actorFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, int64(7), a.UserID)
	assert.True(t, a.IsAdmin())
}
