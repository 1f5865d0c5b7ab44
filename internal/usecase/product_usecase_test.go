package usecase_test

import (
	"testing"

	"grocerystore/internal/domain/model"
	"grocerystore/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListProducts_Filters(t *testing.T) {
	s := newShop(t)
	uc := usecase.NewProductUsecase(s.txm, s.repos)
	s.product("Green Apples", "fruit", "30", 5)
	s.product("Red Apples", "fruit", "10", 5)
	s.product("Milk", "dairy", "20", 5)
	hidden := s.product("Old Apples", "fruit", "1", 5)
	hidden.IsActive = false
	require.NoError(t, s.repos.Products().Update(s.ctx, hidden))

	out, err := uc.ListProducts(s.ctx, usecase.ListProductsInput{Q: "apples", Sort: "price_asc"})
	require.NoError(t, err)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Red Apples", out.Items[0].Title)
	assert.Equal(t, int64(2), out.Total)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 20, out.Limit)

	out, err = uc.ListProducts(s.ctx, usecase.ListProductsInput{ProductType: "dairy"})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Milk", out.Items[0].Title)

	lo, hi := decimal.RequireFromString("15"), decimal.RequireFromString("25")
	out, err = uc.ListProducts(s.ctx, usecase.ListProductsInput{MinPrice: &lo, MaxPrice: &hi})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Milk", out.Items[0].Title)

	_, err = uc.ListProducts(s.ctx, usecase.ListProductsInput{MinPrice: &hi, MaxPrice: &lo})
	assert.Error(t, err)
	_, err = uc.ListProducts(s.ctx, usecase.ListProductsInput{Sort: "random"})
	assert.Error(t, err)

	_, err = uc.GetProduct(s.ctx, hidden.ID)
	assert.ErrorIs(t, err, usecase.ErrProductNotFound)
}

func TestUpdateInventory_WritesAdjustmentAndAudit(t *testing.T) {
	s := newShop(t)
	uc := usecase.NewProductUsecase(s.txm, s.repos)
	admin := s.admin()
	buyer := s.user("inv@example.com")
	rice := s.product("Rice", "grain", "40", 10)

	_, err := uc.UpdateInventory(s.ctx, buyer, rice.ID, 5, "count")
	assert.ErrorIs(t, err, usecase.ErrAdminOnly)

	_, err = uc.UpdateInventory(s.ctx, admin, rice.ID, -1, "count")
	assert.Error(t, err)
	_, err = uc.UpdateInventory(s.ctx, admin, rice.ID, 5, "  ")
	assert.Error(t, err)
	_, err = uc.UpdateInventory(s.ctx, admin, 9999, 5, "count")
	assert.ErrorIs(t, err, usecase.ErrProductNotFound)

	adj, err := uc.UpdateInventory(s.ctx, admin, rice.ID, 25, "restock")
	require.NoError(t, err)
	assert.Equal(t, int64(10), adj.StockBefore)
	assert.Equal(t, int64(25), adj.StockAfter)
	assert.Equal(t, int64(15), adj.Delta)
	assert.NotZero(t, adj.ID)
	assert.Equal(t, int64(25), s.stockOf(rice.ID))

	var adjs []model.InventoryAdjustment
	require.NoError(t, s.db.Where("product_id = ?", rice.ID).Find(&adjs).Error)
	require.Len(t, adjs, 1)
	assert.Equal(t, "restock", adjs[0].Reason)

	var logs []model.AuditLog
	require.NoError(t, s.db.Where("action = ?", model.AuditActionUpdateStock).Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, rice.ID, logs[0].ResourceID)
	assert.JSONEq(t, `{"stock":10}`, logs[0].BeforeJSON)
	assert.JSONEq(t, `{"stock":25,"reason":"restock"}`, logs[0].AfterJSON)
}

func TestProductAdmin_CreateUpdateDelete(t *testing.T) {
	s := newShop(t)
	uc := usecase.NewProductUsecase(s.txm, s.repos)
	admin := s.admin()

	p, err := uc.CreateProduct(s.ctx, admin, usecase.ProductInput{
		Title: " Bread ", ProductType: "bakery", Price: decimal.RequireFromString("35.555"), Stock: 8, IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bread", p.Title)
	assertMoney(t, "35.56", p.Price)

	//更新では在庫は変わらない
	err = uc.UpdateProduct(s.ctx, admin, p.ID, usecase.ProductInput{
		Title: "Bread", ProductType: "bakery", Price: decimal.RequireFromString("30"), Stock: 999, IsActive: true,
	})
	require.NoError(t, err)
	got, err := uc.GetProduct(s.ctx, p.ID)
	require.NoError(t, err)
	assertMoney(t, "30", got.Price)
	assert.Equal(t, int64(8), got.Stock)

	require.NoError(t, uc.DeleteProduct(s.ctx, admin, p.ID))
	_, err = uc.GetProduct(s.ctx, p.ID)
	assert.ErrorIs(t, err, usecase.ErrProductNotFound)

	err = uc.DeleteProduct(s.ctx, admin, p.ID)
	assert.ErrorIs(t, err, usecase.ErrProductNotFound)
}
