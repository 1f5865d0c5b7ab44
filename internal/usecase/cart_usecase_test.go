package usecase_test

import (
	"testing"

	"grocerystore/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddOrMergeItem_MergesSameProduct(t *testing.T) {
	s := newShop(t)
	buyer := s.user("cart@example.com")
	apples := s.product("Apples", "fruit", "12.50", 10)

	view, err := s.carts.AddOrMergeItem(s.ctx, buyer, usecase.AddCartInput{ProductID: apples.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	view, err = s.carts.AddOrMergeItem(s.ctx, buyer, usecase.AddCartInput{ProductID: apples.ID, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(5), view.Items[0].Quantity)
	assertMoney(t, "62.50", view.Items[0].LineTotal)
	assertMoney(t, "62.50", view.Total)

	//カート投入では在庫は減らない
	assert.Equal(t, int64(10), s.stockOf(apples.ID))
}

func TestAddOrMergeItem_KeepsPriceSnapshot(t *testing.T) {
	s := newShop(t)
	buyer := s.user("snap@example.com")
	apples := s.product("Apples", "fruit", "10", 10)
	s.addToCart(buyer, apples, 1)

	apples.Price = decimal.RequireFromString("99")
	require.NoError(t, s.repos.Products().Update(s.ctx, apples))

	view, err := s.carts.AddOrMergeItem(s.ctx, buyer, usecase.AddCartInput{ProductID: apples.ID, Quantity: 1})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assertMoney(t, "10", view.Items[0].UnitPrice)
	assertMoney(t, "20", view.Total)
}

func TestAddOrMergeItem_Rejects(t *testing.T) {
	s := newShop(t)
	buyer := s.user("rej@example.com")
	admin := s.admin()
	apples := s.product("Apples", "fruit", "10", 5)
	hidden := s.product("Hidden", "fruit", "10", 5)
	hidden.IsActive = false
	require.NoError(t, s.repos.Products().Update(s.ctx, hidden))

	tests := []struct {
		name  string
		actor usecase.Actor
		in    usecase.AddCartInput
		want  error
	}{
		{"quantity zero", buyer, usecase.AddCartInput{ProductID: apples.ID, Quantity: 0}, nil},
		{"unknown product", buyer, usecase.AddCartInput{ProductID: 9999, Quantity: 1}, usecase.ErrProductNotFound},
		{"inactive product", buyer, usecase.AddCartInput{ProductID: hidden.ID, Quantity: 1}, usecase.ErrProductNotFound},
		{"over stock", buyer, usecase.AddCartInput{ProductID: apples.ID, Quantity: 6}, usecase.ErrInsufficientStock},
		{"admin", admin, usecase.AddCartInput{ProductID: apples.ID, Quantity: 1}, usecase.ErrUserOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.carts.AddOrMergeItem(s.ctx, tt.actor, tt.in)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			ue, ok := usecase.AsError(err)
			require.True(t, ok)
			assert.Equal(t, usecase.KindInvalidInput, ue.Kind)
		})
	}

	//マージ後の数量で在庫を超える
	s.addToCart(buyer, apples, 4)
	_, err := s.carts.AddOrMergeItem(s.ctx, buyer, usecase.AddCartInput{ProductID: apples.ID, Quantity: 2})
	assert.ErrorIs(t, err, usecase.ErrInsufficientStock)

	view, err := s.carts.ViewCart(s.ctx, buyer)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(4), view.Items[0].Quantity)
}

func TestViewCart_EmptyAndDeletedProduct(t *testing.T) {
	s := newShop(t)
	buyer := s.user("view@example.com")

	view, err := s.carts.ViewCart(s.ctx, buyer)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assertMoney(t, "0", view.Total)

	apples := s.product("Apples", "fruit", "10", 50)
	s.addToCart(buyer, apples, 10)
	require.NoError(t, s.repos.Products().SoftDelete(s.ctx, apples.ID))

	view, err = s.carts.ViewCart(s.ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)

	//削除済み商品の入ったカートは注文できない
	addr := s.address(buyer)
	_, err = s.orders.PlaceOrder(s.ctx, buyer, usecase.PlaceOrderInput{ShippingID: addr.ID})
	assert.ErrorIs(t, err, usecase.ErrProductNotFound)
}

func TestRemoveItem(t *testing.T) {
	s := newShop(t)
	buyer := s.user("rm@example.com")
	apples := s.product("Apples", "fruit", "10", 50)
	milk := s.product("Milk", "dairy", "5", 50)

	err := s.carts.RemoveItem(s.ctx, buyer, apples.ID)
	assert.ErrorIs(t, err, usecase.ErrCartItemNotFound)

	s.addToCart(buyer, apples, 1)
	s.addToCart(buyer, milk, 1)

	require.NoError(t, s.carts.RemoveItem(s.ctx, buyer, apples.ID))
	err = s.carts.RemoveItem(s.ctx, buyer, apples.ID)
	assert.ErrorIs(t, err, usecase.ErrCartItemNotFound)

	view, err := s.carts.ViewCart(s.ctx, buyer)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, milk.ID, view.Items[0].ProductID)
}
